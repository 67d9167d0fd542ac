package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	nameSystemPrompt = "You are a marketing expert that generates concise, creative campaign names."

	adCopySystemPrompt = "You are a marketing expert that creates compelling ad copy. " +
		"Respond only with the requested JSON format."
)

func namePrompt(productType, audience string) string {
	return fmt.Sprintf(`Generate a creative and professional campaign name for:
- Product/Service: %s
- Target Audience: %s

Provide only the campaign name as a short, catchy phrase (max 5 words).`, productType, audience)
}

func adCopyPrompt(product, audience string, features []string, tone string) string {
	return fmt.Sprintf(`Generate compelling ad copy for:
- Product: %s
- Target Audience: %s
- Key Features: %s
- Tone: %s

Return the response as a JSON object with these fields:
- headline: A catchy headline (max 50 chars)
- description: Compelling description (max 200 chars)
- call_to_action: Clear CTA (max 15 chars)`, product, audience, strings.Join(features, ", "), tone)
}

type adCopyOutput struct {
	Headline     string `json:"headline"`
	Description  string `json:"description"`
	CallToAction string `json:"call_to_action"`
}

// parseAdCopy extracts the JSON object from a model reply, tolerating
// surrounding prose or markdown fences.
func parseAdCopy(text string) (adCopyOutput, error) {
	var out adCopyOutput

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return out, errors.Errorf("no json object in response: %q", truncate(text, 80))
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, errors.Wrap(err, "decode ad copy")
	}
	return out, nil
}

// cleanName strips whitespace and wrapping quotes from a generated name.
func cleanName(text string) string {
	return strings.Trim(strings.TrimSpace(text), `"'`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
