package rag

import (
	"fmt"
	"sort"
	"strings"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	domquery "github.com/kailas-cloud/ragcore/internal/domain/query"
)

// Context assembly limits, in runes.
const (
	passageLimit = 500
	snippetLimit = 200
	quoteLimit   = 300
)

// buildContext renders retrieved passages and graph facts for the generator.
func buildContext(qc *domquery.Context) string {
	var b strings.Builder
	if len(qc.Results) > 0 {
		b.WriteString("Relevant documents:\n")
		for i := range qc.Results {
			doc := qc.Results[i].Document()
			fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, title(&doc), truncate(doc.Content(), passageLimit))
		}
	}
	if len(qc.Facts) > 0 {
		b.WriteString("Knowledge graph:\n")
		for _, f := range qc.Facts {
			fmt.Fprintf(&b, "- %s (%s)", f.Entity, f.Type)
			if props := formatProperties(f.Properties); props != "" {
				b.WriteString(": ")
				b.WriteString(props)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func buildPrompt(query, contextText string) string {
	if contextText == "" {
		contextText = "No relevant context was found."
	}
	return "Context:\n" + contextText + "\n\nQuestion: " + query + "\n\nAnswer:"
}

// fallbackAnswer produces a deterministic per-category answer quoting the
// leading passage.
func fallbackAnswer(qc *domquery.Context) string {
	if len(qc.Results) == 0 {
		return "I could not find information about this in the indexed documents. " +
			"Please rephrase the question or browse the MOSDAC portal directly."
	}

	doc := qc.Results[0].Document()
	quote := truncate(doc.Content(), quoteLimit)

	var lead string
	switch qc.Type {
	case domquery.Weather:
		lead = "Based on the available meteorological information"
	case domquery.Satellite:
		lead = "According to the satellite mission documentation"
	case domquery.Ocean:
		lead = "From the oceanographic data sources"
	case domquery.DataAccess:
		lead = "Regarding data access"
	default:
		lead = "Here is the most relevant information I found"
	}

	answer := fmt.Sprintf("%s (%s): %s", lead, title(&doc), quote)
	if n := len(qc.Results) - 1; n > 0 {
		answer += fmt.Sprintf(" %d more related document(s) are listed in the sources.", n)
	}
	return answer
}

func title(doc *domdoc.Document) string {
	if t, ok := doc.Metadata().Title(); ok && t != "" {
		return t
	}
	return doc.ID()
}

func formatProperties(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
