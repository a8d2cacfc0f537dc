package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"lottery_system/internal/api"
	"lottery_system/internal/db"
	"lottery_system/internal/db/dbtest"
	"lottery_system/internal/engine"
	"lottery_system/internal/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type server struct {
	http.Handler
	db *gorm.DB
}

func newServer(t *testing.T) server {
	t.Helper()
	conn := dbtest.Open(t)
	eng := engine.New(conn, engine.WithNotifier(&notify.Recorder{}))
	_, err := eng.Bootstrap(context.Background(), decimal.NewFromInt(10000))
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := api.NewRouter(api.Deps{
		DB:            conn,
		Engine:        eng,
		Redis:         rdb,
		JWTSecret:     secret,
		PaymentAmount: decimal.NewFromInt(10000),
	})
	return server{Handler: r, db: conn}
}

// adminToken registers username, promotes it the way cmd/migrate does and logs in again
func (s server) adminToken(t *testing.T, username string) string {
	t.Helper()
	signup(t, s, username)
	_, err := db.SeedAdmin(context.Background(), s.db, username, "")
	require.NoError(t, err)
	return login(t, s, username)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	out := map[string]any{}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr.Code, out
}

func signup(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "password123"}
	code, _ := do(t, r, http.MethodPost, "/user", "", creds)
	require.Equal(t, http.StatusCreated, code)
	return login(t, r, username)
}

func login(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "password123"}
	code, body := do(t, r, http.MethodGet, "/user", "", creds)
	require.Equal(t, http.StatusOK, code)
	return body["token"].(string)
}

func TestLotteryFlowOverHTTP(t *testing.T) {
	r := newServer(t)
	admin := r.adminToken(t, "boss")
	alice := signup(t, r, "alice")

	code, body := do(t, r, http.MethodGet, "/wallet", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", body["wallet"].(map[string]any)["balance"])
	code, body = do(t, r, http.MethodGet, "/wallet", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["cached"])

	code, body = do(t, r, http.MethodPost, "/lottery/tickets", alice, nil)
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "insufficient_funds", body["code"])

	code, body = do(t, r, http.MethodPost, "/wallet/payments", alice, map[string]any{"image_ref": "photo-1"})
	require.Equal(t, http.StatusCreated, code)
	payment := body["payment"].(map[string]any)
	assert.Equal(t, "pending", payment["status"])
	id := strconv.Itoa(int(payment["id"].(float64)))

	code, _ = do(t, r, http.MethodPost, "/admin/payments/"+id+"/approve", alice, nil)
	assert.Equal(t, http.StatusForbidden, code, "only admins decide payments")

	code, body = do(t, r, http.MethodGet, "/admin/payments", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["payments"], 1)

	code, body = do(t, r, http.MethodPost, "/admin/payments/"+id+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "10000", body["balance"])

	code, body = do(t, r, http.MethodGet, "/wallet", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "10000", body["wallet"].(map[string]any)["balance"], "approval retires the cached balance")

	code, body = do(t, r, http.MethodPost, "/admin/payments/"+id+"/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_decided", body["code"])

	code, body = do(t, r, http.MethodGet, "/lottery/round", alice, nil)
	require.Equal(t, http.StatusOK, code)
	firstRound := body["round"].(map[string]any)["id"]

	code, body = do(t, r, http.MethodPost, "/lottery/tickets", alice, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "0", body["balance"])

	code, body = do(t, r, http.MethodGet, "/wallet", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", body["wallet"].(map[string]any)["balance"])

	code, body = do(t, r, http.MethodGet, "/lottery/tickets", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["tickets"], 1)

	code, body = do(t, r, http.MethodPost, "/admin/draw", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["cleared"])
	winner := body["winner"].(map[string]any)
	assert.NotEmpty(t, winner["ticket_number"])

	code, body = do(t, r, http.MethodPost, "/admin/draw", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "no_participants", body["code"])

	code, body = do(t, r, http.MethodGet, "/admin/rounds/history?limit=5", admin, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["rounds"], 1)
	assert.Equal(t, "alice", body["rounds"].([]any)[0].(map[string]any)["winner_username"])

	code, body = do(t, r, http.MethodGet, "/lottery/round", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", body["round"].(map[string]any)["status"])
	assert.NotEqual(t, firstRound, body["round"].(map[string]any)["id"], "draw retires the cached active round")
}

func TestRegisteringAdminUsernameGrantsNothing(t *testing.T) {
	r := newServer(t)
	boss := signup(t, r, "boss")
	for _, path := range []string{"/admin/payments", "/admin/rounds/history"} {
		code, _ := do(t, r, http.MethodGet, path, boss, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
	}
	code, _ := do(t, r, http.MethodPost, "/admin/draw", boss, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var role string
	require.NoError(t, r.db.Table("users").Select("role").Where("username = ?", "boss").Scan(&role).Error)
	assert.Equal(t, "user", role)
}

func TestRejectOverHTTP(t *testing.T) {
	r := newServer(t)
	admin := r.adminToken(t, "boss")
	bob := signup(t, r, "bob")

	code, body := do(t, r, http.MethodPost, "/wallet/payments", bob, map[string]any{"image_ref": "photo-2", "amount": "5000"})
	require.Equal(t, http.StatusCreated, code)
	id := strconv.Itoa(int(body["payment"].(map[string]any)["id"].(float64)))

	code, body = do(t, r, http.MethodPost, "/admin/payments/"+id+"/reject", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "rejected", body["payment"].(map[string]any)["status"])

	code, _ = do(t, r, http.MethodPost, "/admin/payments/999/reject", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodPost, "/admin/payments/abc/reject", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, r, http.MethodGet, "/wallet", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", body["wallet"].(map[string]any)["balance"])
}

func TestSubmitPaymentValidation(t *testing.T) {
	r := newServer(t)
	carol := signup(t, r, "carol")

	code, _ := do(t, r, http.MethodPost, "/wallet/payments", carol, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := do(t, r, http.MethodPost, "/wallet/payments", carol, map[string]any{"image_ref": "x", "amount": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", body["code"])
}

func TestAuthRequired(t *testing.T) {
	r := newServer(t)
	for _, path := range []string{"/wallet", "/lottery/round", "/admin/payments"} {
		code, _ := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
	code, _ := do(t, r, http.MethodGet, "/wallet", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	r := newServer(t)
	code, _ := do(t, r, http.MethodPost, "/user", "", map[string]string{"username": "x", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, r, http.MethodPost, "/user", "", map[string]string{"username": "dave", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, code)

	signup(t, r, "dave")
	code, _ = do(t, r, http.MethodPost, "/user", "", map[string]string{"username": "Dave", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, code, "usernames are case-insensitive")
}
