package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"availability-service/internal/scheduler"
	"availability-service/internal/services"
	"availability-service/internal/social"
	"availability-service/internal/store"
)

// The fixed clock sits well before every plan the tests create.
var handlerTestNow = time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

// testEnv wires real services over the in-memory store, the same way
// main wires them over Mongo.
type testEnv struct {
	store *store.MemoryStore
	users *services.UserService
	plans *scheduler.PlanScheduler
	coord *social.SocialCoordinator
}

func newTestEnv() *testEnv {
	st := store.NewMemoryStore()
	users := services.NewUserService(st)
	return &testEnv{
		store: st,
		users: users,
		plans: scheduler.NewPlanScheduler(st, nil,
			scheduler.WithNow(func() time.Time { return handlerTestNow })),
		coord: social.NewSocialCoordinator(st, users, nil,
			social.WithNow(func() time.Time { return handlerTestNow })),
	}
}

// authAs mimics the JWT middleware by injecting a resolved identity.
func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

func init() {
	gin.SetMode(gin.TestMode)
}
