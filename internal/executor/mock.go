// Package executor produces deterministic stand-in outputs for agents that
// have no real endpoint, so the invocation pipeline can run and be tested
// without a model backend.
package executor

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Mock generates a fixed-shape synthetic payload per skill. Generate is a pure
// function of (skill, input): no randomness in content, ever. Downstream
// clients are typed against these shapes.
type Mock struct {
	codecOnce sync.Once
	codec     tokenizer.Codec
}

// NewMock creates a mock executor.
func NewMock() *Mock {
	return &Mock{}
}

// generator produces the output shape for one skill.
type generator func(m *Mock, input map[string]any) map[string]any

var generators = map[string]generator{
	"text-generation":  (*Mock).textGeneration,
	"code-generation":  (*Mock).codeGeneration,
	"image-generation": (*Mock).imageGeneration,
	"translation":      (*Mock).translation,
	"web-search":       (*Mock).webSearch,
	"research":         (*Mock).webSearch,
	"analysis":         (*Mock).analysis,
	"fact-checking":    (*Mock).analysis,
}

// Generate returns the synthetic output for a skill. Unrecognized skills fall
// through to a generic echo shape. It never fails.
func (m *Mock) Generate(skill string, input map[string]any) map[string]any {
	if gen, ok := generators[skill]; ok {
		return gen(m, input)
	}
	return map[string]any{
		"result": fmt.Sprintf("Output for skill: %s", skill),
		"input":  input,
	}
}

// prompt extracts the best-effort textual prompt from an input object.
func prompt(input map[string]any) string {
	for _, key := range []string{"prompt", "message", "text", "query"} {
		if v, ok := input[key].(string); ok && v != "" {
			return v
		}
	}
	return "your request"
}

func (m *Mock) textGeneration(input map[string]any) map[string]any {
	text := fmt.Sprintf("Here is a generated response to: %s", prompt(input))
	return map[string]any{
		"text":       text,
		"model":      "clawdnet-mock-1",
		"tokensUsed": m.countTokens(text),
	}
}

func (m *Mock) codeGeneration(input map[string]any) map[string]any {
	code := fmt.Sprintf("// Generated for: %s\nfunc solve() error {\n\treturn nil\n}\n", prompt(input))
	return map[string]any{
		"code":        code,
		"language":    "go",
		"explanation": "Mock implementation satisfying the requested behavior.",
		"tokensUsed":  m.countTokens(code),
	}
}

func (m *Mock) imageGeneration(input map[string]any) map[string]any {
	return map[string]any{
		"imageUrl": "https://cdn.clawd.net/mock/generated.png",
		"width":    1024,
		"height":   1024,
		"format":   "png",
	}
}

func (m *Mock) translation(input map[string]any) map[string]any {
	source := "auto"
	if v, ok := input["from"].(string); ok && v != "" {
		source = v
	}
	target := "en"
	if v, ok := input["to"].(string); ok && v != "" {
		target = v
	}
	text, _ := input["text"].(string)
	return map[string]any{
		"translatedText": fmt.Sprintf("[%s] %s", target, text),
		"sourceLanguage": source,
		"targetLanguage": target,
	}
}

func (m *Mock) webSearch(input map[string]any) map[string]any {
	q := prompt(input)
	return map[string]any{
		"query": q,
		"results": []map[string]any{
			{
				"title":   fmt.Sprintf("Result 1 for %s", q),
				"url":     "https://example.com/result-1",
				"snippet": fmt.Sprintf("A relevant excerpt about %s.", q),
			},
			{
				"title":   fmt.Sprintf("Result 2 for %s", q),
				"url":     "https://example.com/result-2",
				"snippet": fmt.Sprintf("Further reading on %s.", q),
			},
		},
	}
}

func (m *Mock) analysis(input map[string]any) map[string]any {
	return map[string]any{
		"verdict":    "plausible",
		"confidence": 0.82,
		"reasoning":  fmt.Sprintf("Assessment of: %s", prompt(input)),
	}
}

// countTokens counts cl100k tokens in the generated text. Deterministic for a
// given string, so it preserves Generate's purity.
func (m *Mock) countTokens(text string) int {
	m.codecOnce.Do(func() {
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			m.codec = codec
		}
	})
	if m.codec == nil {
		// Rough fallback: four characters per token.
		return len(text) / 4
	}
	ids, _, err := m.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
