package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSSEDataExtractsPayload(t *testing.T) {
	data, ok := parseSSEData("data: {\"choices\":[]}")
	require.True(t, ok)
	require.Equal(t, `{"choices":[]}`, data)
}

func TestParseSSEDataIgnoresNonDataLines(t *testing.T) {
	_, ok := parseSSEData("")
	require.False(t, ok)

	_, ok = parseSSEData("event: ping")
	require.False(t, ok)
}

func TestParseSSEDataRecognizesDoneSentinel(t *testing.T) {
	data, ok := parseSSEData("data: [DONE]")
	require.True(t, ok)
	require.Equal(t, "[DONE]", data)
}

func TestScanSSELinesYieldsEachLine(t *testing.T) {
	r := strings.NewReader("data: one\n\ndata: two\n\ndata: [DONE]\n")
	done := make(chan struct{})
	defer close(done)

	ch := scanSSELines(done, r)

	var lines []string
	for res := range ch {
		require.NoError(t, res.err)
		lines = append(lines, res.line)
	}
	require.Equal(t, []string{"data: one", "", "data: two", "", "data: [DONE]"}, lines)
}

func TestChunkTokenTextChat(t *testing.T) {
	c, err := parseChunk(`{"choices":[{"delta":{"content":"hello"}}]}`)
	require.NoError(t, err)
	text, ok := c.tokenText(true)
	require.True(t, ok)
	require.Equal(t, "hello", text)
}

func TestChunkTokenTextCompletion(t *testing.T) {
	c, err := parseChunk(`{"choices":[{"text":"hello"}]}`)
	require.NoError(t, err)
	text, ok := c.tokenText(false)
	require.True(t, ok)
	require.Equal(t, "hello", text)
}

func TestChunkUsageParsed(t *testing.T) {
	c, err := parseChunk(`{"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":34}}`)
	require.NoError(t, err)
	require.NotNil(t, c.Usage)
	require.Equal(t, 12, c.Usage.PromptTokens)
	require.Equal(t, 34, c.Usage.CompletionTokens)
}

func TestChunkTokenTextNoChoicesIsNotOk(t *testing.T) {
	c, err := parseChunk(`{"choices":[]}`)
	require.NoError(t, err)
	_, ok := c.tokenText(true)
	require.False(t, ok)
}
