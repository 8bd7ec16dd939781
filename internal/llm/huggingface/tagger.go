package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"legal-analyzer-api/internal/entities"
	"legal-analyzer-api/internal/inference"
	"legal-analyzer-api/internal/llm"
	"legal-analyzer-api/internal/shared/telemetry"
	"legal-analyzer-api/internal/shared/util"
)

const (
	tagOperation      = "entities"
	aggregationSimple = "simple"
	warmupText        = "Acme Corporation signed the agreement with John Smith in New York."
)

var entitiesSchema = inference.MustCompileSchema("entities.json", `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["word", "score"],
    "anyOf": [{"required": ["entity_group"]}, {"required": ["entity"]}],
    "properties": {
      "entity_group": {"type": "string"},
      "entity": {"type": "string"},
      "word": {"type": "string"},
      "score": {"type": "number"}
    }
  }
}`)

// Tagger calls a hosted token-classification model. It implements entities.Tagger.
type Tagger struct {
	client *inference.Client
	url    string
	ready  atomic.Bool
}

// NewTagger builds a Tagger once per process. It fails when the model URL or
// the API key is missing.
func NewTagger(client *inference.Client, url string) (*Tagger, error) {
	if client == nil {
		return nil, errors.New("inference client is required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("entity model URL is required")
	}
	if !client.HasAPIKey() {
		return nil, llm.ErrMissingAPIKey
	}
	t := &Tagger{client: client, url: url}
	t.ready.Store(true)
	return t, nil
}

// Warmup sends a short probe so the hosted model is loaded before the first upload.
func (t *Tagger) Warmup(ctx context.Context) error {
	t.ready.Store(false)
	if _, err := t.Tag(ctx, warmupText); err != nil {
		return fmt.Errorf("warm up entity model: %w", err)
	}
	t.ready.Store(true)
	return nil
}

// Ready reports whether the tagger can serve requests.
func (t *Tagger) Ready() bool {
	return t != nil && t.ready.Load()
}

type tagParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type tagRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tagParameters `json:"parameters"`
}

type taggedSpan struct {
	EntityGroup string      `json:"entity_group"`
	Entity      string      `json:"entity"`
	Word        string      `json:"word"`
	Score       json.Number `json:"score"`
	Start       *int        `json:"start,omitempty"`
	End         *int        `json:"end,omitempty"`
}

// Tag returns the spans found in the first llm.MaxInputChars code points of
// text, in model order. Blank text yields an empty list.
func (t *Tagger) Tag(ctx context.Context, text string) ([]entities.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []entities.Entity{}, nil
	}

	req := tagRequest{
		Inputs:     util.TruncateRunes(text, llm.MaxInputChars),
		Parameters: tagParameters{AggregationStrategy: aggregationSimple},
	}

	var spans []taggedSpan
	if err := t.client.PostJSON(ctx, tagOperation, t.url, req, entitiesSchema, &spans); err != nil {
		logFailure(ctx, tagOperation, err)
		return nil, err
	}

	out := make([]entities.Entity, 0, len(spans))
	for _, span := range spans {
		label := span.EntityGroup
		if label == "" {
			label = span.Entity
		}
		score, err := entities.NormalizeScore(span.Score)
		if err != nil {
			err = fmt.Errorf("%s: %w: %v", tagOperation, inference.ErrMalformedResponse, err)
			logFailure(ctx, tagOperation, err)
			return nil, err
		}
		out = append(out, entities.Entity{
			Entity: label,
			Word:   span.Word,
			Score:  score,
		})
	}

	telemetry.Debug("huggingface.entities_tagged", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"count":      len(out),
	})
	return out, nil
}
