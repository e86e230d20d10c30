package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
	"github.com/astratum/treasury/internal/treasury"
)

const (
	usdAddr   = "0x00000000000000000000000000000000000000a1"
	payeeAddr = "0x00000000000000000000000000000000000000b1"
)

func newTestServer(t *testing.T) (*httptest.Server, *treasury.Engine) {
	t.Helper()

	engine, err := treasury.New(treasury.DefaultLimits(), zap.NewNop())
	require.NoError(t, err)

	srv := NewServer("", engine, nil, zap.NewNop())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, engine
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, actor, roles string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(headerActor, actor)
	}
	if roles != "" {
		req.Header.Set(headerRoles, roles)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func addUSD(t *testing.T, ts *httptest.Server) {
	t.Helper()

	resp := doJSON(t, ts, http.MethodPost, "/assets", "ops", "admin", map[string]any{
		"address":               usdAddr,
		"symbol":                "USD",
		"target_allocation_bps": 4000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAddAssetAndList(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodGet, "/assets", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var assets []domain.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&assets))
	require.Len(t, assets, 1)
	require.Equal(t, "USD", assets[0].Symbol)
}

func TestAddAsset_MissingRole(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/assets", "intruder", "", map[string]any{
		"address":               usdAddr,
		"symbol":                "USD",
		"target_allocation_bps": 4000,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAddAsset_BadAddress(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/assets", "ops", "admin", map[string]any{
		"address": "not-an-address",
		"symbol":  "USD",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDepositAndGetAsset(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/assets/"+usdAddr+"/deposit", "", "", map[string]any{
		"amount": "10000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/assets/"+usdAddr, "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var asset domain.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&asset))
	require.Equal(t, "10000", asset.Balance.String())
}

func TestGetAsset_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/assets/"+payeeAddr, "", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProposalLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/assets/"+usdAddr+"/deposit", "", "", map[string]any{"amount": "50000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/proposals", "alice", "", map[string]any{
		"amount":    "5000",
		"recipient": payeeAddr,
		"asset":     usdAddr,
		"purpose":   "audit retainer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p domain.TreasuryProposal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.Equal(t, "alice", p.Proposer)

	resp = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/proposals/%d/approve", p.ID), "gov", "governance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// timelock still running
	resp = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/proposals/%d/execute", p.ID), "", "", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProposal_InsufficientBalance(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/proposals", "alice", "", map[string]any{
		"amount":    "5000",
		"recipient": payeeAddr,
		"asset":     usdAddr,
		"purpose":   "audit retainer",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPauseGatesRequests(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/pause", "root", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/assets/"+usdAddr+"/deposit", "", "", map[string]any{"amount": "100"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/unpause", "root", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEmergencyWithdrawOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/assets/"+usdAddr+"/deposit", "", "", map[string]any{"amount": "10000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPost, "/emergency-withdraw", "guardian", "emergency", map[string]any{
		"asset":     usdAddr,
		"amount":    "4000",
		"recipient": payeeAddr,
		"reason":    "key rotation incident",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/assets/"+usdAddr, "", "", nil)
	var asset domain.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&asset))
	require.Equal(t, "6000", asset.Balance.String())
}

func TestMetricsRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	addUSD(t, ts)

	resp := doJSON(t, ts, http.MethodPost, "/metrics/update", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m domain.TreasuryMetrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	require.False(t, m.ComputedAt.IsZero())
}

func TestEventsRoute_NoJournal(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/events", "", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRolesHeaderParsing(t *testing.T) {
	ts, _ := newTestServer(t)

	// unknown role names are ignored, known ones still apply
	resp := doJSON(t, ts, http.MethodPost, "/assets", "ops", "auditor, admin", map[string]any{
		"address":               usdAddr,
		"symbol":                "USD",
		"target_allocation_bps": 4000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
