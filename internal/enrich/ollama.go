package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/errors"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/zap"
)

// maxDescriptionChars bounds the prompt so oversized postings don't blow
// past the model's context window.
const maxDescriptionChars = 4000

const promptTemplate = `You are a data extraction assistant. Read the job posting below and return ONLY a JSON object — no extra text, no markdown, no explanation.

The JSON must have exactly these keys:
- "seniority": one of ["intern", "junior", "mid", "senior", "staff", "lead", "principal", "unknown"]
- "role_family": one of ["data_engineering", "data_science", "analytics", "ml_engineering", "software", "unknown"]
- "skills": array of lowercase skill names like ["python", "sql", "airflow", "dbt", "spark", "aws"]

Job Title: %s
Job Description (first 4000 chars):
%s

Respond with ONLY the JSON object:`

var codeFencePattern = regexp.MustCompile("```(?:json)?")

// LLMClient is the primary extractor: an opaque text-completion service
// that is expected, not guaranteed, to return extraction JSON.
type LLMClient interface {
	Extract(ctx context.Context, title, description string) (Extraction, error)
}

type OllamaClient struct {
	httpClient *http.Client
	url        string
	model      string
	logger     *zap.Logger
}

func NewOllamaClient(cfg *config.Config, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: cfg.OllamaTimeout},
		url:        cfg.OllamaURL,
		model:      cfg.OllamaModel,
		logger:     logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Extract sends one posting to the model and parses its answer into a
// validated Extraction. Every failure mode — transport, status, JSON —
// comes back as an error the enricher downgrades to the keyword fallback.
func (o *OllamaClient) Extract(ctx context.Context, title, description string) (Extraction, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Extract")
	defer span.End()
	span.SetAttributes(telemetry.String("llm.model", o.model))

	if len(description) > maxDescriptionChars {
		description = description[:maxDescriptionChars]
	}
	prompt := fmt.Sprintf(promptTemplate, title, description)

	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		span.RecordError(err)
		return Extraction{}, errors.Internal("marshaling generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return Extraction{}, errors.Internal("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return Extraction{}, errors.Unavailable("calling model", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			o.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Extraction{}, errors.Unavailable(
			fmt.Sprintf("model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), nil)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		span.RecordError(err)
		return Extraction{}, errors.Internal("decoding generate response", err)
	}

	return parseModelOutput(gen.Response)
}

// parseModelOutput turns the model's free text into an Extraction. Models
// regularly wrap the JSON in markdown fences despite being told not to;
// those are stripped before parsing.
func parseModelOutput(text string) (Extraction, error) {
	text = codeFencePattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "`"))

	var raw struct {
		Seniority  string   `json:"seniority"`
		RoleFamily string   `json:"role_family"`
		Skills     []string `json:"skills"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Extraction{}, errors.InvalidInput("model output is not extraction JSON", err)
	}

	return NewExtraction(raw.Seniority, raw.RoleFamily, raw.Skills), nil
}
