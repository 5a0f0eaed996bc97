package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/api"
	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
	"github.com/tribe/loyalty-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *loyalty.Service) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := loyalty.NewService(store)
	handler := api.NewHandler(svc, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	srv := httptest.NewServer(api.NewRouter(handler, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv, svc
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func createActivity(t *testing.T, svc *loyalty.Service, reward int64) string {
	t.Helper()
	a, err := svc.CreateActivity(context.Background(), loyalty.ActivityInput{
		Title:        "Morning Yoga",
		PointsReward: reward,
	})
	require.NoError(t, err)
	return string(a.ID)
}

// =============================================================================
// ENROLLMENT
// =============================================================================

func TestEnrollEndpoint_NewMember(t *testing.T) {
	srv, svc := newTestServer(t)
	actID := createActivity(t, svc, 10)

	resp := postJSON(t, srv.URL+"/api/enroll", map[string]any{
		"activity_id": actID,
		"first_name":  "Maria",
		"last_name":   "Lopez",
		"phone":       "555-2000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Member struct {
			PIN     string `json:"pin"`
			Balance int64  `json:"balance"`
		} `json:"member"`
		NewMember    bool  `json:"new_member"`
		PointsEarned int64 `json:"points_earned"`
	}
	decode(t, resp, &body)

	assert.True(t, body.NewMember)
	assert.Len(t, body.Member.PIN, 6)
	assert.EqualValues(t, 510, body.Member.Balance)
	assert.EqualValues(t, 510, body.PointsEarned)
}

func TestEnrollEndpoint_MissingActivityID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/enroll", map[string]any{"pin": "123456"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnrollEndpoint_DuplicateActiveSeat_Unprocessable(t *testing.T) {
	srv, svc := newTestServer(t)
	actID := createActivity(t, svc, 10)

	res, err := svc.Enroll(context.Background(), ledger.ActivityID(actID), loyalty.EnrollmentInput{
		Registration: &loyalty.RegistrationInput{FirstName: "A", LastName: "B", Phone: "555-2001"},
	})
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/api/enroll", map[string]any{
		"activity_id": actID,
		"pin":         res.Member.PIN,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	decode(t, resp, &body)
	assert.NotEmpty(t, body.Details)
}

// =============================================================================
// LOOKUPS AND ERROR MAPPING
// =============================================================================

func TestLookupMember_ByPIN(t *testing.T) {
	srv, svc := newTestServer(t)
	m, err := svc.RegisterMember(context.Background(), loyalty.RegistrationInput{
		FirstName: "Maria", LastName: "Lopez", Phone: "555-2002",
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/members/pin/" + m.PIN)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto struct {
		FullName string `json:"full_name"`
		Level    string `json:"level"`
	}
	decode(t, resp, &dto)
	assert.Equal(t, "Maria Lopez", dto.FullName)
	assert.Equal(t, "Bronze", dto.Level)
}

func TestLookupMember_UnknownPIN_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/members/pin/000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterEndpoint_DuplicatePhone_Conflict(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := map[string]any{"first_name": "A", "last_name": "B", "phone": "555-2003"}
	resp := postJSON(t, srv.URL+"/api/admin/members", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/admin/members", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// POINT OPERATIONS
// =============================================================================

func TestTransferEndpoint_Insufficient_Unprocessable(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	sender, err := svc.RegisterMember(ctx, loyalty.RegistrationInput{FirstName: "A", LastName: "B", Phone: "555-2004"})
	require.NoError(t, err)
	recipient, err := svc.RegisterMember(ctx, loyalty.RegistrationInput{FirstName: "C", LastName: "D", Phone: "555-2005"})
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/api/transfer", map[string]any{
		"sender_pin":    sender.PIN,
		"recipient_pin": recipient.PIN,
		"amount":        9999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAdjustEndpoint_ClampedDebit(t *testing.T) {
	srv, svc := newTestServer(t)
	m, err := svc.RegisterMember(context.Background(), loyalty.RegistrationInput{
		FirstName: "A", LastName: "B", Phone: "555-2006",
	})
	require.NoError(t, err)

	resp := postJSON(t, fmt.Sprintf("%s/api/admin/members/%s/adjust", srv.URL, m.ID), map[string]any{
		"amount": -800,
		"reason": "cleanup",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto struct {
		Amount int64 `json:"amount"`
	}
	decode(t, resp, &dto)
	assert.EqualValues(t, -500, dto.Amount, "clamped to the welcome bonus balance")
}

func TestReconcileEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)
	m, err := svc.RegisterMember(context.Background(), loyalty.RegistrationInput{
		FirstName: "A", LastName: "B", Phone: "555-2007",
	})
	require.NoError(t, err)

	resp := postJSON(t, fmt.Sprintf("%s/api/admin/members/%s/reconcile", srv.URL, m.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto struct {
		Corrected bool  `json:"corrected"`
		TrueSum   int64 `json:"true_sum"`
	}
	decode(t, resp, &dto)
	assert.False(t, dto.Corrected)
	assert.EqualValues(t, 500, dto.TrueSum)
}

func TestStatsEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)
	actID := createActivity(t, svc, 10)

	resp := postJSON(t, srv.URL+"/api/enroll", map[string]any{
		"activity_id": actID,
		"first_name":  "Maria",
		"last_name":   "Lopez",
		"phone":       "555-2008",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	statsResp, err := http.Get(srv.URL + "/api/admin/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var dto struct {
		Members           int   `json:"members"`
		PointsOutstanding int64 `json:"points_outstanding"`
		Activities        int   `json:"activities"`
		ActiveBookings    int   `json:"active_bookings"`
	}
	decode(t, statsResp, &dto)
	assert.Equal(t, 1, dto.Members)
	assert.EqualValues(t, 510, dto.PointsOutstanding)
	assert.Equal(t, 1, dto.Activities)
	assert.Equal(t, 1, dto.ActiveBookings)
}

// =============================================================================
// PROBES
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
