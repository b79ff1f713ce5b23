package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/service"
	"github.com/alexanderramin/waypoint/internal/testutil"
)

type testAPI struct {
	engine *gin.Engine
	gen    *testutil.FakeGenerator
	auth   *TokenAuth
}

func newTestAPI(t *testing.T, secret string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	cache := repository.NewSQLitePlanCache(database, uow)
	gen := &testutil.FakeGenerator{}

	roadmap := service.NewRoadmapService(cache, gen, service.RoadmapOptions{GenerationTimeout: 2 * time.Second})
	progress := service.NewProgressService(cache,
		repository.NewSQLiteProgressRepo(database),
		repository.NewSQLiteReflectionRepo(database),
		uow)

	auth := NewTokenAuth(secret)
	engine := NewRouter(RouterConfig{
		PlanHandler:       NewPlanHandler(roadmap, progress),
		GenerationHandler: NewGenerationHandler(gen, 2*time.Second, nil),
		Auth:              auth,
		DefaultOwner:      "local",
		AllowedOrigins:    []string{"http://localhost:5173"},
	})
	return &testAPI{engine: engine, gen: gen, auth: auth}
}

// do sends a JSON request as owner (via header, or token when auth is set)
// and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		if a.auth != nil {
			token, err := a.auth.IssueToken(owner, time.Hour)
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Set(OwnerHeader, owner)
		}
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorEnvelope {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	env := decode[ErrorEnvelope](t, rec)
	require.Equal(t, code, env.Error.Code)
	return env
}

var guitarBody = map[string]any{"goal": "Learn guitar", "timeCommitment": "5 hrs/week", "weekCount": 4}

func (a *testAPI) createPlan(t *testing.T, path, owner string) planResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, path, owner, guitarBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[planResponse](t, rec)
}
