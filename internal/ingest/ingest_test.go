package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nguyenstefan-png/job-ai-warehouse/internal/config"
	"github.com/nguyenstefan-png/job-ai-warehouse/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const remotiveBody = `{"jobs":[
	{"id": 1, "title": "Data Engineer", "company_name": "Acme"},
	{"id": 2, "title": "Analyst", "company_name": "Globex"}
]}`

const remoteOKBody = `[
	{"legal": "API terms of service"},
	{"id": "10", "position": "Backend Engineer", "company": "Initech"},
	{"id": 11, "position": "Data Scientist", "company": "Hooli"}
]`

func newTestClients(t *testing.T, remotiveHandler, remoteOKHandler http.HandlerFunc) []Client {
	t.Helper()
	remotiveServer := httptest.NewServer(remotiveHandler)
	remoteOKServer := httptest.NewServer(remoteOKHandler)
	t.Cleanup(remotiveServer.Close)
	t.Cleanup(remoteOKServer.Close)

	return NewClients(zap.NewNop(), &config.Config{
		RemotiveURL:   remotiveServer.URL,
		RemoteOKURL:   remoteOKServer.URL,
		SourceTimeout: 5 * time.Second,
	})
}

func serveString(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func TestRemotiveFetch(t *testing.T) {
	clients := newTestClients(t, serveString(remotiveBody), serveString(`[]`))

	records, err := clients[0].Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].SourceJobID)
	assert.Equal(t, "2", records[1].SourceJobID)
}

func TestRemoteOKFetchSkipsMetadata(t *testing.T) {
	clients := newTestClients(t, serveString(`{"jobs":[]}`), serveString(remoteOKBody))

	records, err := clients[1].Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "10", records[0].SourceJobID)
	assert.Equal(t, "11", records[1].SourceJobID)
}

func TestRemoteOKFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	clients := newTestClients(t, serveString(`{"jobs":[]}`), func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`[]`))
	})

	_, err := clients[1].Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-ai-warehouse/1.0", gotUA)
}

func TestFetchNonOKStatus(t *testing.T) {
	clients := newTestClients(t,
		func(w http.ResponseWriter, r *http.Request) { http.Error(w, "rate limited", http.StatusTooManyRequests) },
		func(w http.ResponseWriter, r *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) },
	)

	_, err := clients[0].Fetch(context.Background())
	assert.Error(t, err)
	_, err = clients[1].Fetch(context.Background())
	assert.Error(t, err)
}

func TestSourceJobID(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"numeric id", `{"id": 123}`, "123"},
		{"string id", `{"id": "abc-1"}`, "abc-1"},
		{"missing id", `{"title": "x"}`, ""},
		{"null id", `{"id": null}`, ""},
		{"invalid payload", `not json`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceJobID(json.RawMessage(tt.payload)))
		})
	}
}

func TestIngestAll(t *testing.T) {
	db := dbtest.New(t)
	clients := newTestClients(t, serveString(remotiveBody), serveString(remoteOKBody))

	ingestor := NewIngestor(db, clients, zap.NewNop())
	stats, err := ingestor.IngestAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceCounts{New: 2}, stats["remotive"])
	assert.Equal(t, SourceCounts{New: 2}, stats["remoteok"])
	assert.Equal(t, 4, stats.TotalNew())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM raw_job_postings").Scan(&count))
	assert.Equal(t, 4, count)
}

func TestIngestAllIdempotent(t *testing.T) {
	db := dbtest.New(t)
	clients := newTestClients(t, serveString(remotiveBody), serveString(remoteOKBody))

	ingestor := NewIngestor(db, clients, zap.NewNop())

	_, err := ingestor.IngestAll(context.Background())
	require.NoError(t, err)

	stats, err := ingestor.IngestAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalNew())
	assert.Equal(t, SourceCounts{New: 0, Skipped: 2}, stats["remotive"])

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM raw_job_postings").Scan(&count))
	assert.Equal(t, 4, count)
}

func TestIngestAllContinuesPastFailedSource(t *testing.T) {
	db := dbtest.New(t)
	clients := newTestClients(t,
		func(w http.ResponseWriter, r *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) },
		serveString(remoteOKBody),
	)

	ingestor := NewIngestor(db, clients, zap.NewNop())
	stats, err := ingestor.IngestAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceCounts{}, stats["remotive"])
	assert.Equal(t, SourceCounts{New: 2}, stats["remoteok"])
}
