package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOllamaClient(&config.Config{
		OllamaURL:     server.URL,
		OllamaModel:   "test-model",
		OllamaTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestOllamaExtract(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "Data Engineer")

		json.NewEncoder(w).Encode(generateResponse{
			Response: `{"seniority":"senior","role_family":"data_engineering","skills":["Python","dbt"]}`,
		})
	})

	e, err := client.Extract(context.Background(), "Data Engineer", "description")
	require.NoError(t, err)
	assert.Equal(t, SenioritySenior, e.Seniority)
	assert.Equal(t, RoleFamilyDataEngineering, e.RoleFamily)
	assert.Equal(t, []string{"dbt", "python"}, e.Skills)
}

func TestOllamaExtractTruncatesDescription(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Less(t, len(req.Prompt), maxDescriptionChars+len(promptTemplate)+100)

		json.NewEncoder(w).Encode(generateResponse{
			Response: `{"seniority":"unknown","role_family":"unknown","skills":[]}`,
		})
	})

	long := strings.Repeat("x", 3*maxDescriptionChars)
	_, err := client.Extract(context.Background(), "Title", long)
	require.NoError(t, err)
}

func TestOllamaExtractServerError(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := client.Extract(context.Background(), "Title", "desc")
	assert.Error(t, err)
}

func TestOllamaExtractUnreachable(t *testing.T) {
	client := NewOllamaClient(&config.Config{
		OllamaURL:     "http://127.0.0.1:1/api/generate",
		OllamaModel:   "test-model",
		OllamaTimeout: time.Second,
	}, zap.NewNop())

	_, err := client.Extract(context.Background(), "Title", "desc")
	assert.Error(t, err)
}

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bare json", `{"seniority":"mid","role_family":"analytics","skills":["sql"]}`},
		{"fenced", "```json\n{\"seniority\":\"mid\",\"role_family\":\"analytics\",\"skills\":[\"sql\"]}\n```"},
		{"fenced no language", "```\n{\"seniority\":\"mid\",\"role_family\":\"analytics\",\"skills\":[\"sql\"]}\n```"},
		{"surrounding whitespace", "\n  {\"seniority\":\"mid\",\"role_family\":\"analytics\",\"skills\":[\"sql\"]}  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := parseModelOutput(tt.text)
			require.NoError(t, err)
			assert.Equal(t, SeniorityMid, e.Seniority)
			assert.Equal(t, RoleFamilyAnalytics, e.RoleFamily)
			assert.Equal(t, []string{"sql"}, e.Skills)
		})
	}
}

func TestParseModelOutputCoercesUnknownValues(t *testing.T) {
	e, err := parseModelOutput(`{"seniority":"ninja","role_family":"devops","skills":["go"]}`)
	require.NoError(t, err)
	assert.Equal(t, SeniorityUnknown, e.Seniority)
	assert.Equal(t, RoleFamilyUnknown, e.RoleFamily)
}

func TestParseModelOutputNotJSON(t *testing.T) {
	_, err := parseModelOutput("I could not classify this posting, sorry!")
	assert.Error(t, err)
}
