package handler_test

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/netflux/internal/config"
	"github.com/user/netflux/internal/handler"
	"github.com/user/netflux/internal/middleware"
	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/repository"
	"github.com/user/netflux/internal/router"
	"github.com/user/netflux/internal/utils"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	gob.Register(model.SessionUser{})
	utils.InitCache()
	os.Exit(m.Run())
}

// apiResponse 统一响应结构的测试侧镜像
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type testServer struct {
	engine *gin.Engine
	users  *repository.UserStoreRepository
}

func newTestServer(t *testing.T, catalogLines ...string) *testServer {
	t.Helper()

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalogue.csv")
	require.NoError(t, os.WriteFile(catalogPath, []byte(strings.Join(catalogLines, "\n")+"\n"), 0o644))

	catalog := repository.NewCatalog(catalogPath)
	require.NoError(t, catalog.Load())

	users := repository.NewUserStoreRepository(filepath.Join(dir, "users.json"))
	require.NoError(t, users.Load())

	cfg := &config.Config{
		Env:       "test",
		AppSecret: testSecret,
		JWTExpiry: time.Hour,
		SiteName:  "Netflux",
	}

	engine := gin.New()
	store := cookie.NewStore([]byte(cfg.AppSecret))
	engine.Use(sessions.Sessions("mysession", store))

	h := handler.NewHandler(catalog, users, cfg)
	router.RegisterRoutes(engine, h)

	return &testServer{engine: engine, users: users}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// tokenCookie 从响应中取出登录 Token
func tokenCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.Value != "" {
			return c
		}
	}
	t.Fatal("响应中没有 token Cookie")
	return nil
}

func (s *testServer) register(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return tokenCookie(t, w)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")

	w := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"movies":1`)
}

func TestListMovies(t *testing.T) {
	srv := newTestServer(t,
		"Inception:148:Action,Sci-Fi:inception",
		"Up:96:Animation:up",
		"Mad Max:120:Action:madmax",
	)

	var movies []model.Movie

	// 全量
	resp := parseResponse(t, srv.do(t, http.MethodGet, "/api/movies", nil))
	require.NoError(t, json.Unmarshal(resp.Data, &movies))
	assert.Len(t, movies, 3)

	// 关键词
	resp = parseResponse(t, srv.do(t, http.MethodGet, "/api/movies?q=inception", nil))
	require.NoError(t, json.Unmarshal(resp.Data, &movies))
	require.Len(t, movies, 1)
	assert.Equal(t, "inception", movies[0].SystemID)

	// 单类型
	resp = parseResponse(t, srv.do(t, http.MethodGet, "/api/movies?genre=Action", nil))
	require.NoError(t, json.Unmarshal(resp.Data, &movies))
	assert.Len(t, movies, 2)

	// 多类型并集
	resp = parseResponse(t, srv.do(t, http.MethodGet, "/api/movies?genres=Action,Animation", nil))
	require.NoError(t, json.Unmarshal(resp.Data, &movies))
	assert.Len(t, movies, 3)

	// 无命中时 data 是 [] 而不是 null
	w := srv.do(t, http.MethodGet, "/api/movies?genre=Horror", nil)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestGetMovie(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")

	w := srv.do(t, http.MethodGet, "/api/movies/inception", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Inception"`)

	w = srv.do(t, http.MethodGet, "/api/movies/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListGenres(t *testing.T) {
	srv := newTestServer(t,
		"Inception:148:Sci-Fi,Action:inception",
		"Up:96:Animation:up",
	)

	resp := parseResponse(t, srv.do(t, http.MethodGet, "/api/genres", nil))
	var genres []string
	require.NoError(t, json.Unmarshal(resp.Data, &genres))
	assert.Equal(t, []string{"Action", "Animation", "Sci-Fi"}, genres)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")

	// 用户名太短
	w := srv.do(t, http.MethodPost, "/api/auth/register", gin.H{"username": "ab", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 密码太短
	w = srv.do(t, http.MethodPost, "/api/auth/register", gin.H{"username": "alice", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 重复注册
	srv.register(t, "alice", "secret123")
	w = srv.do(t, http.MethodPost, "/api/auth/register", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "用户名已存在")
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")
	srv.register(t, "alice", "secret123")

	w := srv.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	tokenCookie(t, w)

	w = srv.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "ghost", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")

	w := srv.do(t, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionFallbackWithoutToken(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")

	w := srv.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "mysession" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "注册响应中没有 Session Cookie")

	// 只带 Session Cookie、不带 JWT 也能通过登录校验
	w = srv.do(t, http.MethodGet, "/api/me", nil, sessionCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"alice"`)
}

func TestFavoriteFlow(t *testing.T) {
	srv := newTestServer(t,
		"Inception:148:Action,Sci-Fi:inception",
		"Up:96:Animation:up",
	)
	token := srv.register(t, "alice", "secret123")

	// 收藏
	w := srv.do(t, http.MethodPost, "/api/me/favorites/inception", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"favorite":true`)

	// 资料中能解析出收藏的电影
	resp := parseResponse(t, srv.do(t, http.MethodGet, "/api/me", nil, token))
	assert.Contains(t, string(resp.Data), `"Inception"`)

	// 再点一次取消收藏
	w = srv.do(t, http.MethodPost, "/api/me/favorites/inception", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"favorite":false`)
}

func TestWatchedRemovesFromWatchlist(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")
	token := srv.register(t, "alice", "secret123")

	w := srv.do(t, http.MethodPost, "/api/me/watchlist/inception", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"in_watchlist":true`)

	w = srv.do(t, http.MethodPost, "/api/me/watched/inception", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	user := srv.users.Get("alice")
	require.NotNil(t, user)
	assert.True(t, user.HasWatched("inception"))
	assert.False(t, user.InWatchlist("inception"))
}

func TestToggleLikedGenreValidation(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")
	token := srv.register(t, "alice", "secret123")

	w := srv.do(t, http.MethodPost, "/api/me/genres", gin.H{"genre": "Action"}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"liked":true`)

	// 含分隔符的类型被校验规则拒绝
	w = srv.do(t, http.MethodPost, "/api/me/genres", gin.H{"genre": "Sci:Fi"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/me/genres", gin.H{"genre": "  "}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendations(t *testing.T) {
	srv := newTestServer(t,
		"Inception:148:Action,Sci-Fi:inception",
		"Mad Max:120:Action:madmax",
		"Up:96:Animation:up",
	)
	token := srv.register(t, "alice", "secret123")

	// 还没选喜欢的类型，推荐为空
	resp := parseResponse(t, srv.do(t, http.MethodGet, "/api/me/recommendations", nil, token))
	assert.Equal(t, "[]", string(resp.Data))

	w := srv.do(t, http.MethodPost, "/api/me/genres", gin.H{"genre": "Action"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp = parseResponse(t, srv.do(t, http.MethodGet, "/api/me/recommendations", nil, token))
	var movies []model.Movie
	require.NoError(t, json.Unmarshal(resp.Data, &movies))
	require.Len(t, movies, 2)
	assert.Equal(t, "inception", movies[0].SystemID)
	assert.Equal(t, "madmax", movies[1].SystemID)
}

func TestAdminRequiresRole(t *testing.T) {
	srv := newTestServer(t, "Inception:148:Action:inception")
	token := srv.register(t, "alice", "secret123")

	// 普通用户禁止访问
	w := srv.do(t, http.MethodGet, "/admin/users", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 未登录直接 401
	w = srv.do(t, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	adminToken, err := middleware.GenerateToken("root", "", "admin", testSecret, time.Hour)
	require.NoError(t, err)
	adminCookie := &http.Cookie{Name: "token", Value: adminToken}

	w = srv.do(t, http.MethodGet, "/admin/users", nil, adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice"`)

	w = srv.do(t, http.MethodPost, "/admin/catalog/reload", nil, adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "片库已重载")
}
