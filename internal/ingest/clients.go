package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/errors"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("job-ai-warehouse/ingest")

// Record is one opaque posting as fetched from a source API, paired with
// the source-native identifier it will be keyed on.
type Record struct {
	SourceJobID string
	Payload     json.RawMessage
}

// Client fetches postings from one external source. Implementations are a
// closed set; adding a source means adding a client and registering it.
type Client interface {
	Name() string
	Fetch(ctx context.Context) ([]Record, error)
}

type remotiveClient struct {
	client *http.Client
	logger *zap.Logger
	url    string
}

type remoteOKClient struct {
	client *http.Client
	logger *zap.Logger
	url    string
}

// NewClients returns the source clients in ingestion order.
func NewClients(logger *zap.Logger, cfg *config.Config) []Client {
	httpClient := &http.Client{Timeout: cfg.SourceTimeout}
	return []Client{
		&remotiveClient{client: httpClient, logger: logger, url: cfg.RemotiveURL},
		&remoteOKClient{client: httpClient, logger: logger, url: cfg.RemoteOKURL},
	}
}

func (c *remotiveClient) Name() string { return "remotive" }

func (c *remotiveClient) Fetch(ctx context.Context) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "remotive.Fetch")
	defer span.End()
	span.SetAttributes(telemetry.String("http.url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Unavailable("executing request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	var body struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.RecordError(err)
		return nil, errors.Internal("decoding response", err)
	}

	records := make([]Record, 0, len(body.Jobs))
	for _, payload := range body.Jobs {
		id := sourceJobID(payload)
		if id == "" {
			continue
		}
		records = append(records, Record{SourceJobID: id, Payload: payload})
	}

	span.SetAttributes(telemetry.Int("records.count", len(records)))
	c.logger.Info("fetched postings", zap.String("source", c.Name()), zap.Int("count", len(records)))
	return records, nil
}

func (c *remoteOKClient) Name() string { return "remoteok" }

func (c *remoteOKClient) Fetch(ctx context.Context) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "remoteok.Fetch")
	defer span.End()
	span.SetAttributes(telemetry.String("http.url", c.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("creating request", err)
	}
	// RemoteOK blocks requests without a User-Agent.
	req.Header.Set("User-Agent", "job-ai-warehouse/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Unavailable("executing request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		span.RecordError(err)
		return nil, errors.Internal("decoding response", err)
	}

	// The first element is API metadata, not a posting; real postings
	// carry both an id and a position.
	records := make([]Record, 0, len(items))
	for _, payload := range items {
		var probe struct {
			ID       json.RawMessage `json:"id"`
			Position json.RawMessage `json:"position"`
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			continue
		}
		if len(probe.ID) == 0 || len(probe.Position) == 0 {
			continue
		}
		id := sourceJobID(payload)
		if id == "" {
			continue
		}
		records = append(records, Record{SourceJobID: id, Payload: payload})
	}

	span.SetAttributes(telemetry.Int("records.count", len(records)))
	c.logger.Info("fetched postings", zap.String("source", c.Name()), zap.Int("count", len(records)))
	return records, nil
}

// sourceJobID pulls the source-native id out of a payload. Sources are
// inconsistent about the type: Remotive uses numbers, RemoteOK mixes
// numbers and strings.
func sourceJobID(payload json.RawMessage) string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil || len(probe.ID) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(probe.ID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(probe.ID, &n); err == nil {
		return n.String()
	}
	return ""
}
