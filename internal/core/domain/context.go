package domain

type ContextStyle string

const (
	// ContextStyleChunks labels every block as "[Chunk N]:".
	ContextStyleChunks ContextStyle = "chunks"
	// ContextStyleSources prefixes every block with its source path.
	ContextStyleSources ContextStyle = "sources"
)

// AssembledContext is the grounding text handed to the answer step.
// Citations maps chunk labels (starting at 1) to the fragment they name.
type AssembledContext struct {
	Text      string           `json:"text"`
	Citations map[int]Fragment `json:"citations,omitempty"`
	Style     ContextStyle     `json:"style"`
	Blocks    int              `json:"blocks"`
	Truncated bool             `json:"truncated"`
}

func (c AssembledContext) Empty() bool {
	return c.Blocks == 0
}

// QueryPlan is the decomposition of one user query.
type QueryPlan struct {
	OriginalQuery string   `json:"original_query"`
	Rationale     string   `json:"rationale"`
	Subqueries    []string `json:"subqueries"`
}
