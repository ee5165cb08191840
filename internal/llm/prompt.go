package llm

import (
	"encoding/json"
	"strings"

	"github.com/csheth/dailyfeed/internal/feed"
)

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func buildEnhancePrompt(title, abstract, language string) string {
	if title == "" {
		title = "the paper"
	}
	if strings.TrimSpace(language) == "" {
		language = "English"
	}
	var b strings.Builder
	b.WriteString("You are a professional paper analyst. Read the abstract and reply with a single JSON object ")
	b.WriteString(`with the string fields "tldr", "motivation", "method", "result" and "conclusion". `)
	b.WriteString("Keep tldr to one sentence. Write every field in " + language + ".\n\n")
	b.WriteString("Paper title: " + title + "\n\n")
	b.WriteString("Abstract:\n" + abstract)
	return b.String()
}

// parseAIFields accepts a bare object, an object wrapped in prose or code
// fences, or plain text. Plain text becomes the tldr.
func parseAIFields(raw string) feed.AIFields {
	raw = strings.TrimSpace(raw)
	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	for _, candidate := range candidates {
		var out struct {
			TLDR       string `json:"tldr"`
			Motivation string `json:"motivation"`
			Method     string `json:"method"`
			Result     string `json:"result"`
			Conclusion string `json:"conclusion"`
		}
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			continue
		}
		fields := feed.AIFields{
			TLDR:       strings.TrimSpace(out.TLDR),
			Motivation: strings.TrimSpace(out.Motivation),
			Method:     strings.TrimSpace(out.Method),
			Result:     strings.TrimSpace(out.Result),
			Conclusion: strings.TrimSpace(out.Conclusion),
		}
		if !fields.Empty() {
			return fields
		}
	}
	return feed.AIFields{TLDR: raw}
}
