package api

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srql-engine/internal/auth"
	"srql-engine/internal/common"
	"srql-engine/internal/config"
	"srql-engine/internal/edge"
	"srql-engine/internal/metrics"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/engine"
	"srql-engine/internal/srql/translate"
	"srql-engine/internal/storage/artifact"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExecutor struct {
	rows    []map[string]interface{}
	err     error
	queries int
}

func (f *fakeExecutor) Query(_ context.Context, _ string, _ []interface{}) ([]map[string]interface{}, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type memStore struct {
	packages map[uuid.UUID]*edge.Package
	events   []*edge.Event
}

func newMemStore() *memStore {
	return &memStore{packages: make(map[uuid.UUID]*edge.Package)}
}

func (s *memStore) Upsert(_ context.Context, pkg *edge.Package) error {
	stored := *pkg
	s.packages[pkg.ID] = &stored
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*edge.Package, error) {
	pkg, ok := s.packages[id]
	if !ok {
		return nil, common.NewError(common.ErrPackageNotFound, "package not found: "+id.String())
	}
	found := *pkg
	return &found, nil
}

func (s *memStore) List(_ context.Context, filter edge.ListFilter) ([]*edge.Package, error) {
	allowed := make(map[edge.PackageStatus]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		allowed[status] = true
	}

	var result []*edge.Package
	for _, pkg := range s.packages {
		if len(allowed) > 0 && !allowed[pkg.Status] {
			continue
		}
		if len(filter.Types) > 0 {
			match := false
			for _, componentType := range filter.Types {
				if pkg.ComponentType == componentType {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.PollerID != "" && pkg.PollerID != filter.PollerID {
			continue
		}
		found := *pkg
		result = append(result, &found)
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *memStore) InsertEvent(_ context.Context, event *edge.Event) error {
	stored := *event
	s.events = append(s.events, &stored)
	return nil
}

func (s *memStore) ListEvents(_ context.Context, packageID uuid.UUID, limit int) ([]*edge.Event, error) {
	var result []*edge.Event
	for _, event := range s.events {
		if event.PackageID == packageID {
			found := *event
			result = append(result, &found)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

type testServer struct {
	router *gin.Engine
	exec   *fakeExecutor
	store  *memStore
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()

	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"uid": "d1", "is_available": true},
		{"uid": "d2", "is_available": false},
	}}

	m := metrics.New(prometheus.NewRegistry())
	eng := engine.New(catalog.Default(), exec, translate.Options{
		DefaultLimit: 100,
		MaxLimit:     500,
		GraphName:    "topology",
	}, zerolog.Nop())

	artifacts, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := newMemStore()
	service := edge.NewService(store, artifacts, config.OnboardingConfig{
		Enabled:            true,
		JoinTokenTTL:       "24h",
		DownloadTokenTTL:   "1h",
		DefaultSelectors:   "env:edge",
		APIBaseURL:         "http://console.local:8090",
		DownloadTokenBytes: 32,
	}, zerolog.Nop())

	queryHandler := NewQueryHandler(eng, m, zerolog.Nop(), 5*time.Second)
	edgeHandler := NewEdgeHandler(service, m, zerolog.Nop())

	return &testServer{
		router: NewRouter(queryHandler, edgeHandler, m, zerolog.Nop(), opts),
		exec:   exec,
		store:  store,
	}
}

func defaultOptions() RouterOptions {
	return RouterOptions{OnboardingEnabled: true}
}

func (ts *testServer) do(method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, "/api/query", gin.H{"query": "in:devices is_available:true"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "devices", body["entity"])
	assert.Len(t, body["results"], 2)
	assert.Contains(t, body, "pagination")
	assert.Contains(t, body, "viz")
	assert.Equal(t, 1, ts.exec.queries)
}

func TestQueryEndpointRejectsUnknownEntity(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, "/api/query", gin.H{"query": "in:nonsense"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ts.exec.queries)

	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "nonsense")
	assert.Equal(t, fmt.Sprintf("code %d", common.ErrQueryEntityUnknown), body["details"])
}

func TestQueryEndpointRequiresQuery(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, "/api/query", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpointExecutionFailure(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	ts.exec.err = errors.New("connection refused")

	rec := ts.do(http.MethodPost, "/api/query", gin.H{"query": "in:devices"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.NotContains(t, body["error"], "connection refused")
}

func TestTranslateEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, "/api/query/translate", gin.H{"query": "in:devices is_available:true"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["sql"], `SELECT`)
	assert.Contains(t, body["sql"], `"ocsf_devices"`)
	assert.Zero(t, ts.exec.queries, "translate must not execute")
}

func TestExportEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/api/query/export?q=in:devices&limit=10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apache.arrow.stream", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestExportEndpointRequiresQuery(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/api/query/export", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntitiesEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/api/query/entities", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["entities"], "devices")
}

func createPackage(t *testing.T, ts *testServer) (uuid.UUID, string) {
	t.Helper()
	rec := ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"name": "edge-east"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		Package struct {
			ID string `json:"id"`
		} `json:"package"`
		DownloadToken string `json:"download_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.DownloadToken)

	id, err := uuid.Parse(result.Package.ID)
	require.NoError(t, err)
	return id, result.DownloadToken
}

func downloadPath(id uuid.UUID) string {
	return "/api/admin/edge-packages/" + id.String() + "/download"
}

func TestEdgePackageLifecycle(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	rec := ts.do(http.MethodGet, "/api/admin/edge-packages/"+id.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "issued", decodeBody(t, rec)["status"])

	rec = ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": token}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	gz, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	var names []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	assert.Contains(t, names, "manifest.json")
	assert.Contains(t, names, "onboarding.token")

	// token is one-shot
	rec = ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": token}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/edge-packages/"+id.String()+"/activate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "activated", decodeBody(t, rec)["status"])

	rec = ts.do(http.MethodDelete, "/api/admin/edge-packages/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "activated packages must be revoked first")

	rec = ts.do(http.MethodPost, "/api/admin/edge-packages/"+id.String()+"/revoke", gin.H{"reason": "host retired"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/admin/edge-packages/"+id.String(), gin.H{"reason": "cleanup"}, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadJSONFormat(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	rec := ts.do(http.MethodPost, downloadPath(id)+"?format=json", gin.H{"download_token": token}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, id.String(), body["package_id"])
	assert.Equal(t, "edge-east", body["name"])
}

func TestDownloadWithHeaderToken(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	rec := ts.do(http.MethodPost, downloadPath(id), nil,
		map[string]string{"X-Download-Token": token})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadWrongToken(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, _ := createPackage(t, ts)

	rec := ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages/"+id.String(), nil, nil)
	assert.Equal(t, "issued", decodeBody(t, rec)["status"])
}

func TestDownloadRevokedPackage(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	rec := ts.do(http.MethodPost, "/api/admin/edge-packages/"+id.String()+"/revoke", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": token}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDownloadExpiredReturnsGone(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	pkg, err := ts.store.Get(context.Background(), id)
	require.NoError(t, err)
	pkg.DownloadTokenExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, ts.store.Upsert(context.Background(), pkg))

	rec := ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": token}, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestDownloadUnknownPackage(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, downloadPath(uuid.New()), gin.H{"download_token": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRequiresName(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"notes": "no name"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidPackageID(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/api/admin/edge-packages/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPackagesWithFilter(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	createPackage(t, ts)

	rec := ts.do(http.MethodGet, "/api/admin/edge-packages?status=issued", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["packages"], 1)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages?status=activated", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["packages"])

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages?type=poller", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["packages"], 1)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages?status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages?limit=zero", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPackageEvents(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	id, token := createPackage(t, ts)

	rec := ts.do(http.MethodPost, downloadPath(id), gin.H{"download_token": token}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages/"+id.String()+"/events", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["events"], 2)

	rec = ts.do(http.MethodGet, "/api/admin/edge-packages/"+id.String()+"/events?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["events"], 1)
}

func TestDefaultsEndpoint(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodGet, "/api/admin/edge-packages/defaults", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["selectors"], "env:edge")
	assert.Contains(t, body["statuses"], "issued")
	assert.Contains(t, body["component_types"], "poller")
}

func TestOnboardingDisabled(t *testing.T) {
	ts := newTestServer(t, RouterOptions{OnboardingEnabled: false})
	rec := ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"name": "edge-east"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEnforcement(t *testing.T) {
	secret := []byte("test-secret")
	authenticator := auth.NewJWTAuthenticator(secret, "console")
	ts := newTestServer(t, RouterOptions{
		AuthEnabled:       true,
		Authenticator:     authenticator,
		OnboardingEnabled: true,
	})

	rec := ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"name": "edge-east"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"name": "edge-east"},
		map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	manager := auth.NewTokenManager(secret, "console", time.Hour)
	token, err := manager.Generate("ops@example.com", []string{"admin"})
	require.NoError(t, err)

	rec = ts.do(http.MethodPost, "/api/admin/edge-packages", gin.H{"name": "edge-east"},
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		Package struct {
			ID        string `json:"id"`
			CreatedBy string `json:"created_by"`
		} `json:"package"`
		DownloadToken string `json:"download_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ops@example.com", result.Package.CreatedBy)

	// downloads authenticate with the download token, not the JWT
	rec = ts.do(http.MethodPost, "/api/admin/edge-packages/"+result.Package.ID+"/download",
		gin.H{"download_token": result.DownloadToken}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, defaultOptions())
	rec := ts.do(http.MethodOptions, "/api/query", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
