package decision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"document-reasoner/internal/models"
)

const (
	minJustificationLength = 50
	minSourceClauseLength  = 10
	maxJustificationLength = 500
	maxSourceClauseLength  = 200
)

var (
	digitRun       = regexp.MustCompile(`\d+`)
	currencyAmount = regexp.MustCompile(`₹[\d,]+`)
)

// parseResponse turns the raw generator output into a validated Decision.
// Malformed output is never an error: it is repaired via fallbackParse so a
// question that got any backend response at all still gets an answer.
func parseResponse(raw string, chunks []models.RetrievedChunk) models.Decision {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Warn().Err(err).Msg("response is not valid JSON, using fallback parsing")
		return fallbackParse(raw, chunks)
	}

	fields := make(map[string]string, 4)
	for _, key := range []string{"decision", "amount", "justification", "source_clause"} {
		value, ok := payload[key]
		if !ok {
			log.Warn().Str("field", key).Msg("response missing required field, using fallback parsing")
			return fallbackParse(raw, chunks)
		}
		fields[key] = toString(value)
	}

	return models.Decision{
		Decision:      normalizeDecision(fields["decision"]),
		Amount:        formatAmount(fields["amount"]),
		Justification: enrichJustification(fields["justification"], len(chunks)),
		SourceClause:  validateSourceClause(fields["source_clause"], chunks),
	}
}

// fallbackParse recovers a Decision from unstructured text: keyword-scanned
// decision (fail-closed to Rejected), regex-extracted amount, the truncated
// text as justification and the top chunk's leading slice as citation.
func fallbackParse(raw string, chunks []models.RetrievedChunk) models.Decision {
	decision := models.DecisionRejected
	lower := strings.ToLower(raw)
	for _, keyword := range models.ApprovedKeywords {
		if strings.Contains(lower, keyword) {
			decision = models.DecisionApproved
			break
		}
	}

	amount := models.AmountNotSpecified
	if match := currencyAmount.FindString(raw); match != "" {
		amount = formatAmount(match)
	}

	sourceClause := "Document analysis based on provided context"
	if len(chunks) > 0 && chunks[0].Content != "" {
		sourceClause = truncate(chunks[0].Content, maxSourceClauseLength)
	}

	return models.Decision{
		Decision:      decision,
		Amount:        amount,
		Justification: truncate(raw, maxJustificationLength),
		SourceClause:  sourceClause,
	}
}

// normalizeDecision maps any input to exactly Approved or Rejected. Unclear
// input defaults to Rejected.
func normalizeDecision(decision string) string {
	d := strings.ToLower(strings.TrimSpace(decision))
	for _, keyword := range models.ApprovedKeywords {
		if strings.Contains(d, keyword) {
			return models.DecisionApproved
		}
	}
	for _, keyword := range models.RejectedKeywords {
		if strings.Contains(d, keyword) {
			return models.DecisionRejected
		}
	}
	log.Warn().Str("decision", prefix(decision, 100)).Msg("unclear decision, defaulting to Rejected")
	return models.DecisionRejected
}

// formatAmount normalizes an amount to "₹<digits>" or "Not specified".
// Input with no digit run at all passes through unchanged.
func formatAmount(amount string) string {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return models.AmountNotSpecified
	}
	lower := strings.ToLower(trimmed)
	for _, synonym := range models.AmountUnspecifiedSynonyms {
		if lower == synonym {
			return models.AmountNotSpecified
		}
	}

	stripped := strings.ReplaceAll(trimmed, "₹", "")
	stripped = strings.ReplaceAll(stripped, ",", "")
	if digits := digitRun.FindString(stripped); digits != "" {
		return "₹" + digits
	}
	return amount
}

// enrichJustification prepends a grounding sentence to very terse
// justifications so the answer always reads as context-backed.
func enrichJustification(justification string, sections int) string {
	if len(justification) < minJustificationLength {
		return fmt.Sprintf("Based on analysis of %d relevant document sections, %s", sections, justification)
	}
	return justification
}

// validateSourceClause substitutes the first sentence of the top-ranked
// chunk when the provided clause is missing or too short to cite.
func validateSourceClause(clause string, chunks []models.RetrievedChunk) string {
	if len(strings.TrimSpace(clause)) >= minSourceClauseLength {
		return clause
	}
	if len(chunks) > 0 {
		content := chunks[0].Content
		if idx := strings.Index(content, "."); idx > 0 {
			return strings.TrimSpace(content[:idx]) + "."
		}
		if strings.TrimSpace(content) != "" {
			return content
		}
	}
	return clause
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

// truncate shortens s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
