package annotate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResponseTextPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "direct text field",
			body: `{"text":"direct"}`,
			want: "direct",
		},
		{
			name: "nested response text",
			body: `{"response":{"text":"nested"}}`,
			want: "nested",
		},
		{
			name: "candidate parts",
			body: `{"candidates":[{"content":{"parts":[{"text":"candidate"}]}}]}`,
			want: "candidate",
		},
		{
			name: "direct text wins over candidates",
			body: `{"text":"direct","candidates":[{"content":{"parts":[{"text":"candidate"}]}}]}`,
			want: "direct",
		},
		{
			name: "response text wins over candidates",
			body: `{"response":{"text":"nested"},"candidates":[{"content":{"parts":[{"text":"candidate"}]}}]}`,
			want: "nested",
		},
		{
			name: "skips empty parts",
			body: `{"candidates":[{"content":{"parts":[{"text":""},{"text":"second"}]}}]}`,
			want: "second",
		},
		{
			name: "no known shape",
			body: `{"unexpected":"shape"}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp generateResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))
			assert.Equal(t, tt.want, resp.text())
		})
	}
}

func TestGeminiClientGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"a note"}]}}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", "gemini-1.5-flash")
	client.SetBaseURL(srv.URL)

	text, err := client.Generate(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "a note", text)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "the prompt", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key invalid"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("bad-key", "gemini-1.5-flash")
	client.SetBaseURL(srv.URL)

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key invalid")
}

func TestGeminiClientEmptyBodyYieldsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("k", "m")
	client.SetBaseURL(srv.URL)

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Empty(t, text)
}
