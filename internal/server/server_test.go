package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/live"
	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/payments"
	"github.com/skeebs10/settlr/internal/service"
	"github.com/skeebs10/settlr/internal/settlement"
	"github.com/skeebs10/settlr/internal/storage/sqlite"
)

type testEnv struct {
	server   *httptest.Server
	tabs     *service.TabService
	provider *payments.FakeProvider
	demoTab  *models.Tab
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hub := live.NewHub(slog.Default())
	tabs := service.NewTabService(store, hub, "https://settlr.test", settlement.DefaultGraceWindow, 50*time.Millisecond)
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	hash, err := auth.HashPassword("servers-only")
	require.NoError(t, err)
	staff := auth.NewStaffAuthenticator(map[string]string{"sam": hash})
	sessions := service.NewSessionService(store, tabs, jwt, staff, "https://settlr.test")

	provider := payments.NewFakeProvider()
	pay := service.NewPaymentService(tabs, provider)

	srv := New(tabs, sessions, pay, jwt, hub)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	demoTab, err := service.SeedDemoTab(context.Background(), tabs)
	require.NoError(t, err)

	return &testEnv{server: ts, tabs: tabs, provider: provider, demoTab: demoTab}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) join(t *testing.T, name string) joinResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/session/join", "",
		gin.H{"qr_token": e.demoTab.QRToken, "name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[joinResponse](t, resp)
}

func (e *testEnv) staffToken(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/staff/login", "",
		gin.H{"name": "sam", "password": "servers-only"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[joinResponse](t, resp).Token
}

func TestJoinAndClaimOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	session := env.join(t, "Jordan")
	assert.Equal(t, "guest", session.Role)
	assert.Equal(t, env.demoTab.ID, session.CheckID)
	assert.NotEmpty(t, session.Token)
	assert.Contains(t, session.ShareLink, env.demoTab.QRToken)

	checkPath := "/api/checks/" + session.CheckID

	resp := env.do(t, http.MethodGet, checkPath, session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tab := decode[models.Tab](t, resp)
	require.Len(t, tab.Items, 3)

	resp = env.do(t, http.MethodPost, checkPath+"/claims", session.Token,
		gin.H{"item_id": tab.Items[0].ID, "type": "FULL"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tab = decode[models.Tab](t, resp)
	assert.Equal(t, models.ItemFullyClaimed, tab.Items[0].Status)
	assert.EqualValues(t, 1500, tab.Totals.ClaimedSubtotal)

	resp = env.do(t, http.MethodPut, checkPath+"/tip", session.Token, gin.H{"tip_cents": 500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tab = decode[models.Tab](t, resp)
	assert.EqualValues(t, 500, tab.Totals.Tip)

	claimID := tab.Items[0].Claims[0].ID
	resp = env.do(t, http.MethodDelete, checkPath+"/claims/"+claimID, session.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tab = decode[models.Tab](t, resp)
	assert.Equal(t, models.ItemUnclaimed, tab.Items[0].Status)
}

func TestAuthBoundaries(t *testing.T) {
	env := newTestEnv(t)
	session := env.join(t, "Jordan")

	// No token.
	resp := env.do(t, http.MethodGet, "/api/checks/"+session.CheckID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Garbage token.
	resp = env.do(t, http.MethodGet, "/api/checks/"+session.CheckID, "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Guest bound to their own check.
	resp = env.do(t, http.MethodGet, "/api/checks/some-other-check", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Guests cannot reach staff routes.
	resp = env.do(t, http.MethodGet, "/api/staff/checks", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Bad login.
	resp = env.do(t, http.MethodPost, "/api/staff/login", "", gin.H{"name": "sam", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Unknown QR token.
	resp = env.do(t, http.MethodPost, "/api/session/join", "", gin.H{"qr_token": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestStaffDashboardAndNudge(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "Jordan")
	token := env.staffToken(t)

	resp := env.do(t, http.MethodGet, "/api/staff/checks", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Checks []models.TabSummary `json:"checks"`
	}](t, resp)
	require.Len(t, list.Checks, 1)
	assert.EqualValues(t, 2800, list.Checks[0].ItemsSubtotal)

	nudgePath := fmt.Sprintf("/api/staff/checks/%s/nudge", env.demoTab.ID)
	resp = env.do(t, http.MethodPost, nudgePath, token, gin.H{"reason": "UNCLAIMED"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Second nudge inside the cooldown.
	resp = env.do(t, http.MethodPost, nudgePath, token, gin.H{"reason": "UNCLAIMED"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, nudgePath, token, gin.H{"reason": "LOUDER"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCloseConflictOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.join(t, "Jordan")
	token := env.staffToken(t)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/staff/checks/%s/close", env.demoTab.ID), token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/staff/checks/%s/reopen", env.demoTab.ID), token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestPaymentFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	session := env.join(t, "Jordan")

	resp := env.do(t, http.MethodPost, "/api/checks/"+session.CheckID+"/claims", session.Token,
		gin.H{"item_id": env.demoTab.Items[0].ID, "type": "FULL"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// A guest cannot open an intent on someone else's check.
	resp = env.do(t, http.MethodPost, "/api/payments/intent", session.Token,
		gin.H{"check_id": "some-other-check", "amount_cents": 1650})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/payments/intent", session.Token,
		gin.H{"check_id": session.CheckID, "amount_cents": 1650, "tip_cents": 200})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	intent := decode[payments.Intent](t, resp)
	assert.EqualValues(t, 1850, intent.Amount)
	assert.NotEmpty(t, intent.ClientSecret)

	env.provider.FailNext = true
	resp = env.do(t, http.MethodPost, "/api/payments/confirm", session.Token,
		gin.H{"payment_intent_id": intent.ID})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/payments/confirm", session.Token,
		gin.H{"payment_intent_id": intent.ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tab := decode[models.Tab](t, resp)
	assert.EqualValues(t, 1850, tab.ParticipantByID(session.ParticipantID).PaidTotal)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
