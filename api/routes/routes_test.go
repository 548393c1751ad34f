package routes

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/app"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/clock"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/config"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/dedup"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/locker"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/notifier"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/prize"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories/memory"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

const testSecret = "routes-secret"

var start = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type env struct {
	t      *testing.T
	router *gin.Engine
	clock  *clock.Fake
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.AllowedHosts = []string{"localhost"}
	cfg.JWT.Secret = testSecret
	cfg.Reservation.TTL = 15 * time.Minute
	cfg.Reaper.BatchSize = 50
	cfg.Reaper.WarningCheckpointsMinutes = []int{5}
	cfg.Announcement.BatchSize = 50
	cfg.Announcement.NotifyConcurrency = 2

	dd, err := dedup.NewLRU(128)
	require.NoError(t, err)
	clk := clock.NewFake(start)
	svc := app.NewServices(cfg, app.Deps{
		Store:    memory.NewStore(),
		Clock:    clk,
		Locker:   locker.NewLocal(),
		Dedup:    dd,
		Notifier: notifier.Log{},
		Matcher:  prize.NewMatcher(prize.CountDuplicates),
	})
	return &env{t: t, router: SetupRouter(cfg, svc), clock: clk}
}

func (e *env) token(subject, role string) string {
	tok, err := jwt.Issue([]byte(testSecret), subject, role, time.Hour, time.Now())
	require.NoError(e.t, err)
	return tok
}

func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPurchaseFlow(t *testing.T) {
	e := newEnv(t)
	admin := e.token("admin-1", jwt.RoleAdmin)
	alice := e.token("0801", jwt.RoleBuyer)
	bob := e.token("0802", jwt.RoleBuyer)
	gateway := e.token("gw", jwt.RoleGateway)

	// Round and inventory
	w := e.do(http.MethodPost, "/api/v1/admin/rounds", admin, map[string]interface{}{
		"name":           "May 1",
		"openSellingAt":  start.Add(-time.Hour),
		"closeSellingAt": start.Add(24 * time.Hour),
		"drawDate":       start.Add(48 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var round struct{ ID int64 }
	decode(t, w, &round)

	w = e.do(http.MethodPost, "/api/v1/admin/rounds/1/tickets", admin, []map[string]interface{}{
		{"number": "123456", "price": "80"},
		{"number": "000456", "price": "80"},
		{"number": "999999", "price": "80"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("buyer cannot reach admin routes", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/admin/reaper/run", alice, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	// Alice reserves two tickets
	w = e.do(http.MethodPost, "/api/v1/checkout", alice, map[string]interface{}{"ticketIds": []int64{2, 1}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var detail struct {
		Order struct {
			ID          string
			Status      string
			TotalAmount string
		}
		Items []struct{ TicketID int64 }
	}
	decode(t, w, &detail)
	assert.Equal(t, "PENDING", detail.Order.Status)
	assert.Equal(t, "160", detail.Order.TotalAmount)
	require.Len(t, detail.Items, 2)

	t.Run("losing checkout reports the taken ids", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/checkout", bob, map[string]interface{}{"ticketIds": []int64{1, 3}})
		require.Equal(t, http.StatusConflict, w.Code)
		var body struct {
			Code      string
			TicketIDs []int64
		}
		decode(t, w, &body)
		assert.Equal(t, "TICKET_UNAVAILABLE", body.Code)
		assert.Equal(t, []int64{1}, body.TicketIDs)
	})

	t.Run("empty checkout is a bad request", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/checkout", bob, map[string]interface{}{"ticketIds": []int64{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("other buyers cannot see the order", func(t *testing.T) {
		w := e.do(http.MethodGet, "/api/v1/orders/"+detail.Order.ID, bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("only the gateway confirms payments", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/payments/confirm", alice, map[string]interface{}{"orderId": detail.Order.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	// Payment
	w = e.do(http.MethodPost, "/api/v1/payments/confirm", gateway, map[string]interface{}{
		"orderId": detail.Order.ID, "amount": "160", "reference": "TX-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/v1/orders/"+detail.Order.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var paid struct {
		Order   struct{ Status string }
		Payment struct{ Reference string }
	}
	decode(t, w, &paid)
	assert.Equal(t, "PAID", paid.Order.Status)
	assert.Equal(t, "TX-1", paid.Payment.Reference)

	t.Run("check before draw is a state error", func(t *testing.T) {
		w := e.do(http.MethodGet, "/api/v1/rounds/1/check/123456", "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	// Announcement
	e.clock.Advance(48 * time.Hour)
	w = e.do(http.MethodPost, "/api/v1/admin/rounds/1/announce", admin, map[string]interface{}{
		"firstPrize": "123456",
		"nearby":     []string{},
		"threeFront": []string{},
		"threeBack":  []string{"456"},
		"twoDigit":   []string{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Processed  int
		Winners    int
		TotalPrize string
	}
	decode(t, w, &report)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Winners)
	assert.Equal(t, "6008000", report.TotalPrize)

	w = e.do(http.MethodGet, "/api/v1/rounds/1/check/000456", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		IsWinner    bool
		TotalAmount string
	}
	decode(t, w, &res)
	assert.True(t, res.IsWinner)
	assert.Equal(t, "4000", res.TotalAmount)

	w = e.do(http.MethodGet, "/api/v1/rounds/1/tickets?status=SOLD", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sold []struct{ ID int64 }
	decode(t, w, &sold)
	assert.Len(t, sold, 2)
}

func TestUploadTicketFile(t *testing.T) {
	e := newEnv(t)
	admin := e.token("admin-1", jwt.RoleAdmin)
	w := e.do(http.MethodPost, "/api/v1/admin/rounds", admin, map[string]interface{}{
		"name":           "File round",
		"openSellingAt":  start,
		"closeSellingAt": start.Add(time.Hour),
		"drawDate":       start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "tickets.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("number,price,set_size\n111111,80,1\n222222,80,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/rounds/1/tickets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct{ Count int }
	decode(t, rec, &out)
	assert.Equal(t, 2, out.Count)

	t.Run("delete available ticket", func(t *testing.T) {
		w := e.do(http.MethodDelete, "/api/v1/admin/tickets/1", admin, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = e.do(http.MethodDelete, "/api/v1/admin/tickets/1", admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRunReaper(t *testing.T) {
	e := newEnv(t)
	admin := e.token("admin-1", jwt.RoleAdmin)
	w := e.do(http.MethodPost, "/api/v1/admin/reaper/run", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"expired":0,"ticketsReleased":0,"failed":0,"warned":0}`, w.Body.String())
}
