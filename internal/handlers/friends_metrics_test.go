package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"availability-service/internal/metrics"
)

func setupMetricsRouter(env *testEnv, userID string) *gin.Engine {
	friends := NewFriendHandler(env.coord, env.users, nil)
	plans := NewPlanHandler(env.plans, nil)
	r := gin.New()
	r.Use(authAs(userID))
	r.POST("/friends/request", friends.SendRequest)
	r.POST("/friends/requests/:id/accept", friends.AcceptRequest)
	r.POST("/friends/requests/:id/decline", friends.DeclineRequest)
	r.POST("/plans", plans.CreatePlan)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func fetchMetrics(t *testing.T, router *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

// metricValue scans the exposition text for one labelled sample.
func metricValue(metricsBody, name, labels string) (float64, bool) {
	target := name
	if labels != "" {
		target += "{" + labels + "}"
	}
	for _, line := range strings.Split(metricsBody, "\n") {
		if strings.HasPrefix(line, target+" ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, false
			}
			value, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

func assertMetricIncrement(t *testing.T, router *gin.Engine, name, labels string, call func()) {
	t.Helper()
	before, _ := metricValue(fetchMetrics(t, router), name, labels)
	call()
	after, found := metricValue(fetchMetrics(t, router), name, labels)
	require.True(t, found, "metric %s{%s} not exposed", name, labels)
	require.Greater(t, after, before)
}

func TestFriendRequestMetricsFailed(t *testing.T) {
	metrics.RegisterDomainMetrics()
	router := setupMetricsRouter(newTestEnv(), "alice")

	assertMetricIncrement(t, router, "friend_requests_total", `status="failed"`, func() {
		w := doJSON(t, router, http.MethodPost, "/friends/request", gin.H{"email": "bad"})
		requireStatus(t, w, http.StatusBadRequest)
	})
}

func TestFriendDecisionMetricsFailed(t *testing.T) {
	metrics.RegisterDomainMetrics()
	router := setupMetricsRouter(newTestEnv(), "bob")

	assertMetricIncrement(t, router, "friend_decisions_total", `decision="ACCEPTED",status="failed"`, func() {
		w := doJSON(t, router, http.MethodPost, "/friends/requests/missing/accept", nil)
		requireStatus(t, w, http.StatusNotFound)
	})
}

func TestPlanMetricsConflict(t *testing.T) {
	metrics.RegisterDomainMetrics()
	router := setupMetricsRouter(newTestEnv(), "u1")

	w := doJSON(t, router, http.MethodPost, "/plans", validPlanBody())
	requireStatus(t, w, http.StatusCreated)

	assertMetricIncrement(t, router, "plan_conflicts_total", "", func() {
		w := doJSON(t, router, http.MethodPost, "/plans", validPlanBody())
		requireStatus(t, w, http.StatusConflict)
	})
}
