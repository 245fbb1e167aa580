package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/rationale-rag/internal/core/domain"
	"github.com/kirillkom/rationale-rag/internal/core/ports"
)

const (
	chunkSeparator  = "\n\n---\n\n"
	sourceSeparator = "\n\n"
)

// ContextAssembler merges ranked results into the labeled context handed to the
// answer step. maxTokens <= 0 or a nil counter disables the budget.
type ContextAssembler struct {
	tokens    ports.TokenCounter
	maxTokens int
}

func NewContextAssembler(tokens ports.TokenCounter, maxTokens int) *ContextAssembler {
	return &ContextAssembler{tokens: tokens, maxTokens: maxTokens}
}

// PrepareContext takes the first topKPerQuery fragments of every query in
// order, keeps the first occurrence of each text and labels them [Chunk N].
// A non-positive topKPerQuery yields an empty context.
func (a *ContextAssembler) PrepareContext(results *domain.SubqueryResults, topKPerQuery int) domain.AssembledContext {
	seen := make(map[string]struct{})
	fragments := make([]domain.Fragment, 0, results.Len()*max(topKPerQuery, 0))
	results.Each(func(_ string, ranked []domain.RankedFragment) {
		for i, item := range ranked {
			if i >= topKPerQuery {
				break
			}
			if _, ok := seen[item.Fragment.Text]; ok {
				continue
			}
			seen[item.Fragment.Text] = struct{}{}
			fragments = append(fragments, item.Fragment)
		}
	})

	return a.assemble(domain.ContextStyleChunks, fragments, chunkSeparator, func(label int, f domain.Fragment) string {
		return fmt.Sprintf("[Chunk %d]:\n%s", label, f.Text)
	})
}

// SourcesFromRanked flattens ranked results into deduplicated source records.
func (a *ContextAssembler) SourcesFromRanked(results *domain.SubqueryResults, topKPerQuery int) []domain.SourceDocument {
	seen := make(map[string]struct{})
	out := make([]domain.SourceDocument, 0, 8)
	results.Each(func(_ string, ranked []domain.RankedFragment) {
		for i, item := range ranked {
			if i >= topKPerQuery {
				break
			}
			if _, ok := seen[item.Fragment.Text]; ok {
				continue
			}
			seen[item.Fragment.Text] = struct{}{}
			out = append(out, domain.SourceDocument{Document: item.Fragment.Text, Source: item.Fragment.Source})
		}
	})
	return out
}

// FlattenSources renders source records as "Source:/Content:" blocks under the same budget.
func (a *ContextAssembler) FlattenSources(docs []domain.SourceDocument) domain.AssembledContext {
	fragments := make([]domain.Fragment, len(docs))
	for i, doc := range docs {
		fragments[i] = domain.Fragment{Text: doc.Document, Source: doc.Source, Sequence: -1}
	}
	return a.assemble(domain.ContextStyleSources, fragments, sourceSeparator, func(_ int, f domain.Fragment) string {
		return fmt.Sprintf("Source: %s\nContent: %s", f.Source, f.Text)
	})
}

func (a *ContextAssembler) assemble(
	style domain.ContextStyle,
	fragments []domain.Fragment,
	separator string,
	render func(label int, f domain.Fragment) string,
) domain.AssembledContext {
	out := domain.AssembledContext{
		Style:     style,
		Citations: make(map[int]domain.Fragment, len(fragments)),
	}
	budgeted := a.tokens != nil && a.maxTokens > 0

	var b strings.Builder
	used := 0
	for _, fragment := range fragments {
		label := out.Blocks + 1
		block := render(label, fragment)
		last := false
		if budgeted {
			cost := a.tokens.Count(block)
			if out.Blocks > 0 {
				cost += a.tokens.Count(separator)
			}
			if used+cost > a.maxTokens {
				out.Truncated = true
				if out.Blocks > 0 {
					break
				}
				// A lone oversized first block keeps its header and loses text.
				block = a.truncateBlock(label, fragment, render)
				last = true
			}
			used += cost
		}
		if out.Blocks > 0 {
			b.WriteString(separator)
		}
		b.WriteString(block)
		out.Citations[label] = fragment
		out.Blocks++
		if last {
			break
		}
	}
	out.Text = b.String()
	return out
}

func (a *ContextAssembler) truncateBlock(label int, fragment domain.Fragment, render func(int, domain.Fragment) string) string {
	header := render(label, domain.Fragment{Source: fragment.Source, Sequence: fragment.Sequence})
	fragment.Text = a.tokens.Truncate(fragment.Text, a.maxTokens-a.tokens.Count(header))
	return render(label, fragment)
}
