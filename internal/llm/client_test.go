package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnalysis = `{
  "score": 72,
  "difficulty": "Intermediate",
  "useCase": "Poetry",
  "detailedAnalysis": "Short and vague.",
  "metrics": {"clarity": 70, "specificity": 40, "context": 30, "goalOrientation": 60, "structure": 50, "constraints": 20},
  "strengths": ["concise"],
  "improvements": ["add a theme"],
  "improvedPrompt": "Write a 12-line poem about autumn rain."
}`

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{LLMAPIURL: srv.URL, LLMAPIKey: "k", LLMModel: "gemini-2.5-flash"})
}

func TestForge_Success(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(chatBody(validAnalysis)))
	})

	a, err := c.Forge(context.Background(), "write a poem", ModeCreative)
	require.NoError(t, err)

	assert.Equal(t, 72.0, a.Score)
	assert.Equal(t, 40.0, a.Metrics.Specificity)
	assert.Equal(t, []string{"concise"}, a.Strengths)
	assert.Equal(t, "Write a 12-line poem about autumn rain.", a.ImprovedPrompt)

	assert.Equal(t, "gemini-2.5-flash", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "[Mode: Creative Writing]")
	assert.Contains(t, got.Messages[1].Content, "write a poem")
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
}

func TestForge_StripsCodeFence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatBody("```json\n" + validAnalysis + "\n```")))
	})

	a, err := c.Forge(context.Background(), "x", ModeGeneral)
	require.NoError(t, err)
	assert.Equal(t, "Intermediate", a.Difficulty)
}

func TestForge_MalformedOutput(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "sorry, I cannot help",
		"missing field":  `{"score": 1}`,
		"missing metric": `{"score":1,"difficulty":"","useCase":"","detailedAnalysis":"","metrics":{"clarity":1},"strengths":[],"improvements":[],"improvedPrompt":""}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(chatBody(content)))
			})
			_, err := c.Forge(context.Background(), "x", ModeGeneral)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestForge_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Forge(context.Background(), "x", ModeGeneral)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestForge_UpstreamError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Forge(context.Background(), "x", ModeGeneral)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestForge_NotConfigured(t *testing.T) {
	c := NewClient(&config.Config{})
	_, err := c.Forge(context.Background(), "x", ModeGeneral)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeGeneral, ParseMode(""))
	assert.Equal(t, ModeGeneral, ParseMode("Interpretive Dance"))
	assert.Equal(t, ModeCode, ParseMode("Code Generation"))
}
