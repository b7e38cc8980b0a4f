package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quietgrove/dossier/pkg/ontology"
	"github.com/quietgrove/dossier/pkg/oracle"
)

// Extractor asks the classification oracle for observations about a text
// fragment, constrained by the ontology registry's instruction set.
type Extractor struct {
	call   oracle.CallFunc
	logger *slog.Logger
}

// NewExtractor creates an Extractor backed by the given oracle caller.
func NewExtractor(call oracle.CallFunc, logger *slog.Logger) *Extractor {
	return &Extractor{
		call:   call,
		logger: logger,
	}
}

// Extract runs one oracle call for text and parses the result into raw
// observations. A malformed oracle response yields an empty slice and no
// error; connection-level failures are returned so the dispatcher can apply
// its retry policy.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Observation, error) {
	response, err := e.call(ctx, []oracle.Message{
		{Role: "system", Content: ontology.Instructions()},
		{Role: "user", Content: fmt.Sprintf("Analyze this candidate response:\n\n%q", text)},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle call: %w", err)
	}

	observations, err := parseObservations(response)
	if err != nil {
		e.logger.Warn("discarding malformed oracle response", "error", err)
		return nil, nil
	}

	return observations, nil
}

// parseObservations decodes the oracle's JSON output. Accepted shapes, in
// order: an object with an "observations" array, a bare array, a single
// observation object. Markdown fencing around the JSON is tolerated.
func parseObservations(response string) ([]Observation, error) {
	jsonStr := extractJSON(response)

	var envelope struct {
		Observations []Observation `json:"observations"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &envelope); err == nil && envelope.Observations != nil {
		return envelope.Observations, nil
	}

	var list []Observation
	if err := json.Unmarshal([]byte(jsonStr), &list); err == nil {
		return list, nil
	}

	var single Observation
	if err := json.Unmarshal([]byte(jsonStr), &single); err != nil {
		return nil, fmt.Errorf("unmarshal observations: %w", err)
	}
	if single == (Observation{}) {
		return nil, nil
	}

	return []Observation{single}, nil
}

// extractJSON trims anything around the outermost JSON value, which models
// sometimes wrap in markdown code fences.
func extractJSON(response string) string {
	start := strings.IndexAny(response, "{[")
	if start < 0 {
		return response
	}

	var end int
	if response[start] == '{' {
		end = strings.LastIndex(response, "}")
	} else {
		end = strings.LastIndex(response, "]")
	}
	if end <= start {
		return response
	}

	return response[start : end+1]
}
