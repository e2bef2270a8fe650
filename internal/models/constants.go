package models

const (
	// SystemPrompt frames the generative backend as a policy analyst and
	// pins the response to document content and JSON output.
	SystemPrompt = `You are an expert insurance policy analyst. You specialize in analyzing insurance policy documents and providing detailed, accurate answers about policy terms, conditions, coverage, waiting periods and benefits. Always base your answers on the supplied document content and return valid JSON only.`

	// DecisionPromptTemplate takes the question followed by the assembled
	// context blocks.
	DecisionPromptTemplate = `Analyze the policy document context below and answer the question.

QUESTION: %s

POLICY DOCUMENT CONTEXT:
%s

INSTRUCTIONS:
1. Answer based solely on the document content above
2. Include specific policy terms, conditions and clauses
3. Mention exact time periods, amounts and percentages when available
4. Be precise and factual - do not speculate beyond the document content
5. If information is not in the document, state that clearly

OUTPUT FORMAT (JSON):
{
    "decision": "Approved or Rejected",
    "amount": "Amount in Indian Rupees or Not specified",
    "justification": "Complete explanation with specific policy details, time periods, conditions and requirements",
    "source_clause": "Direct quote from the relevant policy section"
}

Return valid JSON only.`

	// NoContextPlaceholder stands in for the context blocks when retrieval
	// produced nothing, so the generator never sees an empty prompt.
	NoContextPlaceholder = "No relevant context found in the document."
)

// Keyword lists used to normalize free-text decisions. Approved keywords are
// checked first; anything matching neither list defaults to Rejected.
var (
	ApprovedKeywords = []string{"approved", "accept", "eligible", "covered", "valid", "allowed"}
	RejectedKeywords = []string{"rejected", "deny", "ineligible", "not covered", "invalid", "not allowed"}
)

// AmountUnspecifiedSynonyms are amount inputs normalized to AmountNotSpecified.
var AmountUnspecifiedSynonyms = []string{"not specified", "not mentioned", "n/a", "na"}
