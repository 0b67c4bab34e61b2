package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"smilecare-sync/internal/cache"
	"smilecare-sync/internal/domain"
	"smilecare-sync/internal/store"
	enginesync "smilecare-sync/internal/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func setupTestRouter(t *testing.T) (*Router, string) {
	t.Helper()
	logger := zap.NewNop()
	snaps := cache.NewSnapshotStore(newFakeKV(), logger)
	engine := enginesync.New(snaps, nil, nil, logger)
	t.Cleanup(engine.Close)

	sessions := NewSessionStore("admin", "smilecare2024")
	token, ok := sessions.Login("admin", "smilecare2024")
	require.True(t, ok)

	router := NewRouter(logger)
	router.RegisterRoutes(engine, sessions)
	return router, token
}

func doJSON(t *testing.T, router *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder, out any) Result[json.RawMessage] {
	t.Helper()
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	if out != nil && len(res.Result) > 0 {
		require.NoError(t, json.Unmarshal(res.Result, out))
	}
	return res
}

func TestLoginIssuesToken(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/api/v1/login", "", map[string]string{
		"account": "admin", "password": "smilecare2024",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	res := decodeResult(t, w, &payload)
	assert.Equal(t, ResultSuccess, res.Code)
	assert.NotEmpty(t, payload["token"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/auth/api/v1/login", "", map[string]string{
		"account": "admin", "password": "wrong",
	})
	res := decodeResult(t, w, nil)
	assert.Equal(t, ResultError, res.Code)
}

func TestSessionGateRejectsMissingToken(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	res := decodeResult(t, w, nil)
	assert.Equal(t, ResultTokenExpired, res.Code)
}

func TestBookingsAddListDelete(t *testing.T) {
	router, token := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "service": "Teeth Cleaning", "date": "2025-03-14", "time": "10:00 AM",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var added domain.Booking
	res := decodeResult(t, w, &added)
	require.Equal(t, ResultSuccess, res.Code)
	assert.Contains(t, added.ID, "BK-")
	assert.Equal(t, domain.StatusConfirmed, added.Status)

	var list []domain.Booking
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", token, nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Jane Doe", list[0].PatientName)

	doJSON(t, router, http.MethodDelete, "/booking/api/v1/bookings/"+added.ID, token, nil)
	list = nil
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", token, nil), &list)
	assert.Empty(t, list)
}

func TestBookingsRequireNameAndDate(t *testing.T) {
	router, token := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"service": "Whitening",
	})
	res := decodeResult(t, w, nil)
	assert.Equal(t, ResultError, res.Code)
}

func TestBookingsCalendarDayQuery(t *testing.T) {
	router, token := setupTestRouter(t)

	for _, b := range []map[string]string{
		{"name": "ISO", "date": "2025-03-14"},
		{"name": "Verbose", "date": "March 14, 2025"},
		{"name": "Other", "date": "2025-03-15"},
	} {
		doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, b)
	}

	var list []domain.Booking
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings?date=2025-03-14", token, nil), &list)
	assert.Len(t, list, 2)

	// unparsable date matches nothing
	list = nil
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings?date=whenever", token, nil), &list)
	assert.Empty(t, list)
}

func TestBookingStatusPatch(t *testing.T) {
	router, token := setupTestRouter(t)

	var added domain.Booking
	decodeResult(t, doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "date": "2025-03-14",
	}), &added)

	doJSON(t, router, http.MethodPatch, "/booking/api/v1/bookings/"+added.ID, token, map[string]string{
		"status": "Cancelled",
	})

	var list []domain.Booking
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", token, nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusCancelled, list[0].Status)
}

func TestServicesRenameOverHTTP(t *testing.T) {
	router, token := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "date": "2025-03-14", "service": "Whitening",
	})

	w := doJSON(t, router, http.MethodPut, "/booking/api/v1/services/Whitening", token, map[string]string{
		"newName": "Advanced Whitening",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var services []domain.Service
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/services", token, nil), &services)
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Advanced Whitening")
	assert.NotContains(t, names, "Whitening")

	// the booking keeps the historical service name
	var list []domain.Booking
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", token, nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Whitening", list[0].Service)
}

func TestBookingExportXLSX(t *testing.T) {
	router, token := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "date": "2025-03-14",
	})

	w := doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	// xlsx is a zip container
	require.GreaterOrEqual(t, w.Body.Len(), 4)
	assert.Equal(t, []byte{'P', 'K'}, w.Body.Bytes()[:2])
}

func TestMessagesOverHTTP(t *testing.T) {
	router, token := setupTestRouter(t)

	var added domain.Message
	decodeResult(t, doJSON(t, router, http.MethodPost, "/booking/api/v1/messages", token, map[string]string{
		"type": "inquiry", "text": "is Saturday open?",
	}), &added)
	assert.Contains(t, added.ID, "MSG-")

	var list []domain.Message
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/messages", token, nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "is Saturday open?", list[0].Text)
}

func TestPatientSummariesOverHTTP(t *testing.T) {
	router, token := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "date": "2025-01-10", "service": "Checkup",
	})
	doJSON(t, router, http.MethodPost, "/booking/api/v1/bookings", token, map[string]string{
		"name": "Jane Doe", "date": "2025-03-14", "service": "Whitening",
	})

	var summaries []domain.PatientSummary
	decodeResult(t, doJSON(t, router, http.MethodGet, "/booking/api/v1/patients/summaries", token, nil), &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Jane Doe", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].TotalVisits)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	router, token := setupTestRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/api/v1/logout", token, nil)

	w := doJSON(t, router, http.MethodGet, "/booking/api/v1/bookings", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router, token := setupTestRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/booking/api/v1/bookings", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
