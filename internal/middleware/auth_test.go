package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func authEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetUsername(c))
	})
	r.GET("/admin", RequireAuth(testSecret), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuthNoToken(t *testing.T) {
	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthCookie(t *testing.T) {
	token, err := GenerateToken("alice", "alice@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestRequireAuthBearerHeader(t *testing.T) {
	token, err := GenerateToken("alice", "", "user", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	token, err := GenerateToken("alice", "", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWrongSecret(t *testing.T) {
	token, err := GenerateToken("alice", "", "user", "other-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	userToken, err := GenerateToken("alice", "", "user", testSecret, time.Hour)
	require.NoError(t, err)
	adminToken, err := GenerateToken("root", "", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: userToken})
	w := httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: adminToken})
	w = httptest.NewRecorder()
	authEngine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShouldRefresh(t *testing.T) {
	fresh := &Claims{}
	fresh.IssuedAt = jwt.NewNumericDate(time.Now())
	fresh.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	assert.False(t, shouldRefresh(fresh))

	// 有效期已消耗过半
	stale := &Claims{}
	stale.IssuedAt = jwt.NewNumericDate(time.Now().Add(-40 * time.Minute))
	stale.ExpiresAt = jwt.NewNumericDate(time.Now().Add(20 * time.Minute))
	assert.True(t, shouldRefresh(stale))

	assert.False(t, shouldRefresh(&Claims{}))
}
