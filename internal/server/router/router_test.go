package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/recordstore/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t     *testing.T
	srv   *httptest.Server
	store *inmemory.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := inmemory.NewStorage("test")

	table, err := store.Worksheet(context.Background(), recordstore.UsersSheet)
	require.NoError(t, err)

	users := table.(*inmemory.Sheet)
	users.AppendRaw("mgr1", "pw1", "manager", "ST1")
	users.AppendRaw("mgr2", "pw2", "manager", "ST2")
	users.AppendRaw("boss", "secret", "owner", "")
	users.AppendRaw("aud", "pw", "auditor", "")

	srv := httptest.NewServer(NewRouter(store, WithSecret([]byte("test-secret"))))
	t.Cleanup(srv.Close)

	return &testServer{t: t, srv: srv, store: store}
}

func (s *testServer) do(method, path, token string, body any) (*http.Response, map[string]any) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)

		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { resp.Body.Close() })

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	}

	return resp, out
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()

	resp, body := s.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, body)

	return body["token"].(string)
}

func TestRouter_Ping(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["message"])
}

func TestRouter_Login(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodPost, "/api/login", "", map[string]string{"username": " MGR1", "password": "pw1 "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "manager", body["view"])
	assert.Equal(t, "ST1", body["station_id"])
	assert.NotEmpty(t, resp.Header.Get("Authorization"))

	resp, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "mgr1", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "aud", "password": "pw"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Me(t *testing.T) {
	s := newTestServer(t)
	token := s.login("boss", "secret")

	resp, body := s.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "boss", body["username"])
	assert.Equal(t, "owner", body["view"])

	resp, _ = s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_Logout(t *testing.T) {
	s := newTestServer(t)
	token := s.login("mgr1", "pw1")

	resp, _ := s.do(http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_SubmitDailyReport(t *testing.T) {
	s := newTestServer(t)
	token := s.login("mgr1", "pw1")

	resp, body := s.do(http.MethodPost, "/api/manager/daily-reports", token, map[string]any{
		"date":            "2024-01-15",
		"tank_id":         "tank 1",
		"opening":         1000,
		"received":        "500",
		"sales":           300,
		"closing":         1200,
		"price_per_liter": 600,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "ST1", body["station_id"])
	assert.Equal(t, "Tank 1", body["tank_id"])
	assert.EqualValues(t, 1200, body["balance"])
	assert.Equal(t, "180000.00", body["revenue"])

	table, err := s.store.Worksheet(context.Background(), recordstore.DailyReportsSheet)
	require.NoError(t, err)

	recs, err := table.GetAllRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRouter_SubmitDailyReport_Invalid(t *testing.T) {
	s := newTestServer(t)
	token := s.login("mgr1", "pw1")

	resp, body := s.do(http.MethodPost, "/api/manager/daily-reports", token, map[string]any{
		"date":            "2024-01-15",
		"tank_id":         "Tank 1",
		"opening":         "abc",
		"received":        500,
		"sales":           -3,
		"closing":         1200,
		"price_per_liter": 600,
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "opening", fields[0].(map[string]any)["field"])
	assert.Equal(t, "sales", fields[1].(map[string]any)["field"])

	table, err := s.store.Worksheet(context.Background(), recordstore.DailyReportsSheet)
	require.NoError(t, err)

	recs, err := table.GetAllRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRouter_PumpFlow(t *testing.T) {
	s := newTestServer(t)
	mgr := s.login("mgr1", "pw1")

	resp, body := s.do(http.MethodPost, "/api/manager/pump-reports/preview", mgr, map[string]any{
		"price_per_liter": 650,
		"open_meter":      "100.0",
		"close_meter":     "250.5",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "150.5", body["expected_liters"])
	assert.Equal(t, "97825.00", body["expected_cash"])

	resp, body = s.do(http.MethodPost, "/api/manager/pump-reports", mgr, map[string]any{
		"date":            "2024-01-15",
		"tank_id":         "Tank 1",
		"pump_id":         "Pump A",
		"price_per_liter": 650,
		"open_meter":      100,
		"close_meter":     250.5,
		"expected_cash":   "97000",
		"expenses":        5000,
		"cash_at_hand":    92000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "97000.00", body["expected_cash"])

	resp, _ = s.do(http.MethodGet, "/api/owner/pump-reports", mgr, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	owner := s.login("boss", "secret")

	resp, _ = s.do(http.MethodPost, "/api/manager/pump-reports", owner, map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/owner/pump-reports?from=2024-01-01&order=asc", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 1, body["count"])

	total := body["total"].(map[string]any)
	assert.Equal(t, "97000.00", total["total_expected_cash"])
	assert.Equal(t, "0.00", total["net"])

	resp, _ = s.do(http.MethodGet, "/api/owner/pump-reports?from=01-01-2024", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/owner/pump-reports/export?format=xlsx&from=2024-01-01", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pump-reports-2024-01-01.xlsx")

	resp, _ = s.do(http.MethodGet, "/api/owner/pump-reports/export?format=pdf&from=2024-01-01", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp, _ = s.do(http.MethodGet, "/api/owner/pump-reports/export?format=csv", owner, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_DailyReports(t *testing.T) {
	s := newTestServer(t)

	for _, m := range []struct{ user, pw string }{{"mgr1", "pw1"}, {"mgr2", "pw2"}} {
		token := s.login(m.user, m.pw)

		resp, _ := s.do(http.MethodPost, "/api/manager/daily-reports", token, map[string]any{
			"date": "2024-01-20", "tank_id": "Tank 2", "opening": 1000, "received": 0,
			"sales": 100, "closing": 900, "price_per_liter": 600,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	owner := s.login("boss", "secret")

	resp, body := s.do(http.MethodGet, "/api/owner/daily-reports?from=2024-01-15&station=ST2&tank=tank%202", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "Tank 2", body["tank_id"])

	stations := body["stations"].([]any)
	require.Len(t, stations, 1)
	assert.Equal(t, "ST2", stations[0].(map[string]any)["station_id"])
}
