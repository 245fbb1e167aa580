package usecase

import "fmt"

const (
	rationaleSystemPrompt = "Extract the key rationales or search intents from the given query. Identify the core information needs."

	// InsufficientContextAnswer is the sentence the model must use when the context cannot answer.
	InsufficientContextAnswer = "The provided documents do not contain sufficient information to answer this question."

	// UnconfiguredAnswer is returned instead of an answer when no generation service is configured.
	UnconfiguredAnswer = "Error: generation service credential is not set. Configure a generation provider to generate responses."
)

const strictRules = `You are a highly precise assistant that only answers based on the provided context.

STRICT RULES:
1. ONLY use information directly stated in the context. Do not introduce external information even if you believe it's factual.
2. If the context doesn't contain enough information to fully answer the question, state clearly: "` + InsufficientContextAnswer + `"
3. NEVER invent details, tools, methods, names, dates, or statistics that aren't explicitly mentioned in the context.`

const chunkCitationRules = `
4. For each piece of information in your answer, identify in your thinking which part of the context it came from.
5. Cite information using [Chunk X] notation where X corresponds to the chunk where information appears.
6. If information appears in multiple chunks, include all relevant chunk citations.

Format your response as follows:
[Internal thinking: Analyze what information is available in the context and which parts directly address the question. Include chunk references for each fact.]

[Final answer: Write your final answer using ONLY information from the context, with appropriate citations to chunks.]`

func rationaleUserPrompt(query string) string {
	return "Query: " + query
}

func subquerySystemPrompt(n int) string {
	return fmt.Sprintf("Based on these rationales, generate %d different search queries that would help retrieve relevant information.", n)
}

func subqueryRetrySystemPrompt(n int) string {
	return fmt.Sprintf("Generate %d search queries based on these rationales. Format each query on a new line starting with 'Query: '", n)
}

func subqueryUserPrompt(rationale string) string {
	return "Rationales: " + rationale
}

func chunksAnswerSystemPrompt() string {
	return strictRules + chunkCitationRules
}

func sourcesAnswerSystemPrompt() string {
	return strictRules
}

func chunksAnswerUserPrompt(query, context string) string {
	return fmt.Sprintf(
		"Context (divided into chunks):\n%s\n\nQuestion: %s\n\nRemember, only use information explicitly stated in the context. If the answer isn't in the context, say so clearly.",
		context, query,
	)
}

func sourcesAnswerUserPrompt(query, context string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuery: %s", context, query)
}
