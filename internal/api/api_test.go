package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cantonwatch/internal/metrics"
	"cantonwatch/internal/storage"
)

type staticFetcher struct{ body string }

func (s staticFetcher) FetchPage(ctx context.Context) (string, error) {
	return s.body, nil
}

type fakeSnapshotStore struct {
	records []storage.SnapshotRecord
}

func (f *fakeSnapshotStore) AppendSnapshot(ctx context.Context, ts time.Time, snap metrics.Snapshot) error {
	return nil
}

func (f *fakeSnapshotStore) ListRecentSnapshots(ctx context.Context, limit int) ([]storage.SnapshotRecord, error) {
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeSnapshotStore) ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]storage.SnapshotRecord, error) {
	return f.records, nil
}

type fakeKeyStore struct {
	keys map[string]bool
}

func (f *fakeKeyStore) HasAPIKey(ctx context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func (f *fakeKeyStore) InsertAPIKey(ctx context.Context, key, label string) error {
	f.keys[key] = true
	return nil
}

func (f *fakeKeyStore) ListAPIKeys(ctx context.Context) ([]storage.APIKeyRecord, error) {
	return nil, nil
}

const page = "Latest Round\nGross\n12.53 CC\nEst. Traffic\n10.00 CC\n"

func testHandler() *Handler {
	g := decimal.NewFromInt(10)
	tr := decimal.NewFromInt(12)
	store := &fakeSnapshotStore{records: []storage.SnapshotRecord{
		{Ts: time.Now().UTC(), LatestGross: &g, LatestTraffic: &tr},
	}}
	keys := &fakeKeyStore{keys: map[string]bool{"valid-key": true}}
	return New(staticFetcher{body: page}, store, keys, zerolog.Nop())
}

func TestHealthIsUnauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLiveMetricsRequiresKey(t *testing.T) {
	h := testHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/live", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/live", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid key: status = %d, want 401", rec.Code)
	}
}

func TestLiveMetricsReturnsParsedSnapshot(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/live", nil)
	req.Header.Set("X-API-Key", "valid-key")
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]struct {
		Gross   *string `json:"gross"`
		Traffic *string `json:"traffic"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	latest, ok := body[string(metrics.PeriodLatestRound)]
	if !ok {
		t.Fatalf("latest round missing: %v", body)
	}
	if latest.Gross == nil || *latest.Gross != "12.53" {
		t.Fatalf("gross = %v, want 12.53", latest.Gross)
	}
}

func TestListSnapshots(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=1", nil)
	req.Header.Set("X-API-Key", "valid-key")
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body []snapshotRecordResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("records = %d, want 1", len(body))
	}
}

func TestListSnapshotsRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots?limit=zero", nil)
	req.Header.Set("X-API-Key", "valid-key")
	rec := httptest.NewRecorder()
	testHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGuardedEndpointsWithoutKeyStore(t *testing.T) {
	h := New(staticFetcher{body: page}, nil, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when the key store is unconfigured", rec.Code)
	}
}
