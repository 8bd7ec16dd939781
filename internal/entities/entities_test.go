package entities

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name string
		in   json.Number
		want float64
	}{
		{name: "rounds up", in: "0.98765", want: 0.99},
		{name: "rounds down", in: "0.8712", want: 0.87},
		{name: "exponent", in: "9.5e-01", want: 0.95},
		{name: "one", in: "1", want: 1},
		{name: "clamps high", in: "1.2", want: 1},
		{name: "clamps low", in: "-0.3", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeScore(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeScore(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeScoreRejectsGarbage(t *testing.T) {
	for _, in := range []json.Number{"", "abc", "NaN", "Inf"} {
		if _, err := NormalizeScore(in); !errors.Is(err, ErrInvalidScore) {
			t.Fatalf("NormalizeScore(%q): expected ErrInvalidScore, got %v", in, err)
		}
	}
}

func TestEntityJSONShape(t *testing.T) {
	raw, err := json.Marshal(Entity{Entity: "ORG", Word: "Acme Corp", Score: 0.99})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"entity":"ORG","word":"Acme Corp","score":0.99}` {
		t.Fatalf("unexpected json: %s", raw)
	}
}
