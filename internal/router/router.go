package router

import (
	"github.com/gin-gonic/gin"
	"github.com/user/netflux/internal/handler"
	"github.com/user/netflux/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	// ==================== 公开 API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.GET("/movies", h.ListMovies)
		api.GET("/movies/suggest", h.MovieSuggest)
		api.GET("/movies/:id", h.GetMovie)
		api.GET("/genres", h.ListGenres)
		api.GET("/home", h.Home)
	}

	// ==================== 认证 ====================
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 用户中心（需要登录）====================
	me := r.Group("/api/me")
	me.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		me.GET("", h.Me)
		me.POST("/favorites/:id", h.ToggleFavorite)
		me.POST("/watchlist/:id", h.ToggleWatchlist)
		me.POST("/watched/:id", h.MarkWatched)
		me.POST("/genres", h.ToggleLikedGenre)
		me.GET("/recommendations", h.Recommendations)
		me.GET("/recommendations/directors", h.DirectorRecommendations)
	}

	// ==================== 管理后台 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/users", h.AdminUsers)
		admin.POST("/catalog/reload", h.AdminCatalogReload)
		admin.POST("/cache/clean", h.AdminCacheClean)
	}
}
