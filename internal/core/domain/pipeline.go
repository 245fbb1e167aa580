package domain

import (
	"fmt"
	"strings"
)

type Variant string

const (
	VariantSimple    Variant = "simple"
	VariantReranker  Variant = "reranker"
	VariantRationale Variant = "rationale"
)

// ParseVariant accepts the CLI names, including "rd_rag" for the rationale variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return VariantSimple, nil
	case "reranker":
		return VariantReranker, nil
	case "", "rd_rag", "rd-rag", "rationale":
		return VariantRationale, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse pipeline variant", fmt.Errorf("unknown pipeline %q", name))
	}
}

type PipelineState string

const (
	StateIdle         PipelineState = "idle"
	StateDecomposed   PipelineState = "decomposed"
	StateRetrieved    PipelineState = "retrieved"
	StateReranked     PipelineState = "reranked"
	StateContextBuilt PipelineState = "context_built"
	StateAnswered     PipelineState = "answered"
)

// QueryResult is everything one pipeline run produced.
type QueryResult struct {
	RunID   string           `json:"run_id"`
	Variant Variant          `json:"variant"`
	Query   string           `json:"query"`
	Answer  string           `json:"answer"`
	Plan    *QueryPlan       `json:"plan,omitempty"`
	Context AssembledContext `json:"context"`
	Trace   []PipelineState  `json:"trace"`
}
