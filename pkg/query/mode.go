package query

import (
	"strings"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

// EvaluationMode selects where a provider evaluates filters.
type EvaluationMode string

const (
	// ModePushdown translates what it can into the provider's native query
	// and evaluates the rest in memory.
	ModePushdown EvaluationMode = "pushdown"
	// ModeClient loads the base source and evaluates every stage in memory.
	ModeClient EvaluationMode = "client"
)

// ParseEvaluationMode parses s. The empty string selects ModePushdown.
func ParseEvaluationMode(s string) (EvaluationMode, error) {
	switch mode := EvaluationMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ModePushdown, nil
	case ModePushdown, ModeClient:
		return mode, nil
	default:
		return "", errors.UnsupportedMode("evaluation mode", s)
	}
}
