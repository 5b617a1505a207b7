package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/publicscanner/scanner-be/internal/api/domain"
	"github.com/publicscanner/scanner-be/internal/api/dto"
	"github.com/publicscanner/scanner-be/internal/api/model"
	"github.com/publicscanner/scanner-be/internal/api/storage"
	"github.com/publicscanner/scanner-be/internal/checks"
)

type fakeStore struct {
	scans   map[string]*model.Scan
	results map[string][]model.ScanResult
	targets map[string]*model.Target

	createScanErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scans:   make(map[string]*model.Scan),
		results: make(map[string][]model.ScanResult),
		targets: make(map[string]*model.Target),
	}
}

func (f *fakeStore) CreateScan(_ context.Context, scan *model.Scan) error {
	if f.createScanErr != nil {
		return f.createScanErr
	}
	cp := *scan
	f.scans[scan.ID] = &cp
	return nil
}

func (f *fakeStore) GetScanByID(_ context.Context, scanID string) (*model.Scan, error) {
	scan, ok := f.scans[scanID]
	if !ok {
		return nil, domain.ErrScanNotFound
	}
	return scan, nil
}

func (f *fakeStore) ListScans(_ context.Context, filter storage.ScanFilter) ([]model.Scan, error) {
	var out []model.Scan
	for _, scan := range f.scans {
		if filter.Status != "" && scan.Status != filter.Status {
			continue
		}
		if filter.TargetID != "" && (scan.TargetID == nil || *scan.TargetID != filter.TargetID) {
			continue
		}
		if filter.Cursor != nil {
			if !scan.CreatedAt.Before(filter.Cursor.CreatedAt) {
				continue
			}
		}
		out = append(out, *scan)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > filter.PageSize+1 {
		out = out[:filter.PageSize+1]
	}
	return out, nil
}

func (f *fakeStore) ListResultsByScanID(_ context.Context, scanID string) ([]model.ScanResult, error) {
	return f.results[scanID], nil
}

func (f *fakeStore) CreateTarget(_ context.Context, target *model.Target) error {
	cp := *target
	f.targets[target.ID] = &cp
	return nil
}

func (f *fakeStore) GetTargetByID(_ context.Context, targetID string) (*model.Target, error) {
	target, ok := f.targets[targetID]
	if !ok {
		return nil, domain.ErrTargetNotFound
	}
	return target, nil
}

func (f *fakeStore) ListTargets(_ context.Context) ([]model.Target, error) {
	var out []model.Target
	for _, target := range f.targets {
		out = append(out, *target)
	}
	return out, nil
}

type fakeNotifier struct {
	published [][]byte
	err       error
}

func (f *fakeNotifier) Publish(_ context.Context, body []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

func newTestRouter(store *fakeStore, notifier Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps := &Dependencies{
		Logger:   logger,
		Storage:  store,
		Notifier: notifier,
		Checks:   checks.Default(logger),
	}

	r := gin.New()
	scanHandler := NewScanHandler(deps)
	targetHandler := NewTargetHandler(deps)
	r.POST("/api/v1/scans", scanHandler.CreateScan)
	r.GET("/api/v1/scans", scanHandler.ListScans)
	r.GET("/api/v1/scans/:scan_id", scanHandler.GetScan)
	r.GET("/api/v1/scans/:scan_id/results", scanHandler.ListScanResults)
	r.POST("/api/v1/targets", targetHandler.CreateTarget)
	r.GET("/api/v1/targets", targetHandler.ListTargets)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateScan(t *testing.T) {
	t.Run("queues scan with url", func(t *testing.T) {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		r := newTestRouter(store, notifier)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"url":    "https://example.com",
			"checks": []string{"ping", "headers"},
			"config": gin.H{"timeout": 5},
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.ScanDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.ScanStatusQueued, resp.Status)
		assert.Equal(t, 0, resp.Progress)
		assert.Equal(t, []string{"ping", "headers"}, resp.Checks)
		assert.Equal(t, "https://example.com", resp.URL)

		stored, ok := store.scans[resp.ID]
		require.True(t, ok, "scan persisted")
		assert.Equal(t, domain.ScanStatusQueued, stored.Status)

		require.Len(t, notifier.published, 1)
		assert.Contains(t, string(notifier.published[0]), resp.ID)
	})

	t.Run("queues scan against registered target", func(t *testing.T) {
		store := newFakeStore()
		targetID := uuid.New().String()
		store.targets[targetID] = &model.Target{
			ID:       targetID,
			Name:     "staging",
			Hostname: "staging.example.com",
		}
		r := newTestRouter(store, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"target_id": targetID,
			"checks":    []string{"portscan"},
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.ScanDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, targetID, resp.TargetID)
	})

	t.Run("rejects both target_id and url", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"target_id": uuid.New().String(),
			"url":       "https://example.com",
			"checks":    []string{"ping"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects neither target_id nor url", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"checks": []string{"ping"},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown check name", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"url":    "https://example.com",
			"checks": []string{"ping", "xss"},
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown check: xss")
	})

	t.Run("rejects unknown target_id", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"target_id": uuid.New().String(),
			"checks":    []string{"ping"},
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown target_id")
	})

	t.Run("notification failure does not fail the request", func(t *testing.T) {
		store := newFakeStore()
		r := newTestRouter(store, &fakeNotifier{err: fmt.Errorf("broker down")})

		w := doJSON(t, r, http.MethodPost, "/api/v1/scans", gin.H{
			"url":    "https://example.com",
			"checks": []string{"ping"},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, store.scans, 1)
	})
}

func TestGetScan(t *testing.T) {
	store := newFakeStore()
	scanID := uuid.New().String()
	started := time.Now().Add(-time.Minute)
	store.scans[scanID] = &model.Scan{
		ID:        scanID,
		Checks:    []string{"ping"},
		Status:    domain.ScanStatusRunning,
		Progress:  50,
		StartedAt: &started,
		CreatedAt: time.Now().Add(-2 * time.Minute),
		UpdatedAt: time.Now(),
	}
	r := newTestRouter(store, nil)

	t.Run("returns status and progress", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans/"+scanID, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ScanDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.ScanStatusRunning, resp.Status)
		assert.Equal(t, 50, resp.Progress)
		assert.NotEmpty(t, resp.StartedAt)
	})

	t.Run("unknown scan returns 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed scan id returns 400", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListScans(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		status := domain.ScanStatusQueued
		if i%2 == 0 {
			status = domain.ScanStatusCompleted
		}
		store.scans[id] = &model.Scan{
			ID:        id,
			Checks:    []string{"ping"},
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	r := newTestRouter(store, nil)

	t.Run("lists all scans", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListScansResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Scans, 5)
		assert.Empty(t, resp.NextCursor)
	})

	t.Run("filters by status", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans?status=completed", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListScansResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Scans, 3)
		for _, scan := range resp.Scans {
			assert.Equal(t, domain.ScanStatusCompleted, scan.Status)
		}
	})

	t.Run("paginates with cursor", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans?page_size=2", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var first dto.ListScansResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
		require.Len(t, first.Scans, 2)
		require.NotEmpty(t, first.NextCursor)

		w = doJSON(t, r, http.MethodGet, "/api/v1/scans?page_size=10&cursor="+first.NextCursor, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var second dto.ListScansResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
		assert.Len(t, second.Scans, 3)

		seen := map[string]bool{}
		for _, scan := range append(first.Scans, second.Scans...) {
			assert.False(t, seen[scan.ID], "scan %s appeared twice", scan.ID)
			seen[scan.ID] = true
		}
	})

	t.Run("rejects garbage cursor", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans?cursor=%21%21%21", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListScanResults(t *testing.T) {
	store := newFakeStore()
	scanID := uuid.New().String()
	store.scans[scanID] = &model.Scan{
		ID:        scanID,
		Checks:    []string{"ping", "headers"},
		Status:    domain.ScanStatusCompleted,
		Progress:  100,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.results[scanID] = []model.ScanResult{
		{
			ID:        uuid.New().String(),
			ScanID:    scanID,
			CheckType: "ping",
			Status:    "success",
			Data:      []byte(`{"reachable":true,"avg_rtt_ms":1.2}`),
			Findings:  0,
			Severity:  "info",
			CreatedAt: time.Now(),
		},
		{
			ID:        uuid.New().String(),
			ScanID:    scanID,
			CheckType: "headers",
			Status:    "success",
			Data:      []byte(`{"missing_headers":["Content-Security-Policy"]}`),
			Findings:  1,
			Severity:  "low",
			CreatedAt: time.Now(),
		},
	}
	r := newTestRouter(store, nil)

	t.Run("returns per-check results", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans/"+scanID+"/results", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ListScanResultsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, scanID, resp.ScanID)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "ping", resp.Results[0].CheckType)
		assert.Equal(t, true, resp.Results[0].Data["reachable"])
		assert.Equal(t, "low", resp.Results[1].Severity)
	})

	t.Run("unknown scan returns 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/scans/"+uuid.New().String()+"/results", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTargets(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		store := newFakeStore()
		r := newTestRouter(store, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/targets", gin.H{
			"name":     "prod",
			"hostname": "example.com",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var created dto.TargetDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "example.com", created.Hostname)

		w = doJSON(t, r, http.MethodGet, "/api/v1/targets", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var listed dto.ListTargetsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
		require.Len(t, listed.Targets, 1)
		assert.Equal(t, created.ID, listed.Targets[0].ID)
	})

	t.Run("rejects missing hostname", func(t *testing.T) {
		r := newTestRouter(newFakeStore(), nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/targets", gin.H{
			"name": "prod",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
