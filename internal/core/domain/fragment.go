package domain

// Fragment is a bounded span of source text, the atomic retrieval unit.
// Sequence is the chunk position inside its source document, -1 when unknown.
type Fragment struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Sequence int    `json:"sequence"`
}

// RankedFragment is a fragment scored against one query.
// Rank is 0-based and follows descending Score.
type RankedFragment struct {
	Fragment      Fragment `json:"fragment"`
	Score         float64  `json:"relevance_score"`
	Rank          int      `json:"rank"`
	OriginalIndex int      `json:"original_index"`
}

// RerankHit is one entry of a cross-encoder response.
type RerankHit struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SourceDocument is a flattened context record for the simple and reranker variants.
type SourceDocument struct {
	Document string `json:"document"`
	Source   string `json:"source"`
}

func Texts(fragments []Fragment) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.Text
	}
	return out
}
