package backend

import "encoding/json"

// chunk is the subset of an OpenAI-compatible streaming chunk this
// adapter cares about, covering both /v1/completions and
// /v1/chat/completions shapes (spec §6).
type chunk struct {
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage"`
}

type choice struct {
	Text  string `json:"text"`
	Delta *delta `json:"delta"`
}

type delta struct {
	Content string `json:"content"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// tokenText extracts the streamed delta text for the request's endpoint
// kind: choices[0].delta.content for chat, choices[0].text for text.
func (c chunk) tokenText(chat bool) (string, bool) {
	if len(c.Choices) == 0 {
		return "", false
	}
	if chat {
		if c.Choices[0].Delta == nil {
			return "", false
		}
		return c.Choices[0].Delta.Content, true
	}
	return c.Choices[0].Text, true
}

func parseChunk(data string) (chunk, error) {
	var c chunk
	err := json.Unmarshal([]byte(data), &c)
	return c, err
}
