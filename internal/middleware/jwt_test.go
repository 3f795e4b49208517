package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func get(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthValidToken(t *testing.T) {
	router := setupAuthRouter()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id":  "u1",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	w := get(router, "/whoami", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"u1"`)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	router := setupAuthRouter()

	w := get(router, "/whoami", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(router, "/whoami", "Token abc")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	router := setupAuthRouter()

	token := signToken(t, "other-secret", jwt.MapClaims{"user_id": "u1"})
	w := get(router, "/whoami", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	router := setupAuthRouter()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	w := get(router, "/whoami", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMissingUserID(t *testing.T) {
	router := setupAuthRouter()

	token := signToken(t, testSecret, jwt.MapClaims{"username": "alice"})
	w := get(router, "/whoami", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMetricsBypass(t *testing.T) {
	router := setupAuthRouter()

	w := get(router, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
}
