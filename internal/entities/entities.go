package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Entity is one recognised span, in the order the tagger returned it.
type Entity struct {
	Entity string  `json:"entity"`
	Word   string  `json:"word"`
	Score  float64 `json:"score"`
}

// Tagger recognises named entities in text.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Entity, error)
}

// ErrInvalidScore is returned for scores that are not finite numbers.
var ErrInvalidScore = errors.New("invalid entity score")

// NormalizeScore converts a model score to a plain float64, clamped to [0,1]
// and rounded to two decimals.
func NormalizeScore(raw json.Number) (float64, error) {
	f, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, raw.String())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, raw.String())
	}
	f = math.Min(1, math.Max(0, f))
	return math.Round(f*100) / 100, nil
}
