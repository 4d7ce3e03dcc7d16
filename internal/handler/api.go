package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/netflux/internal/middleware"
	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/utils"
)

// ==================== 片库 ====================

// ListMovies 电影列表
// 支持 q（标题关键词）、genre（单类型）、genres（逗号分隔多类型并集）过滤，
// 不带参数返回全部电影
func (h *Handler) ListMovies(c *gin.Context) {
	if q := c.Query("q"); q != "" {
		utils.Success(c, h.Browse.Search(q))
		return
	}
	if genre := c.Query("genre"); genre != "" {
		utils.Success(c, orEmpty(h.Catalog.ByGenre(genre)))
		return
	}
	if genres := c.Query("genres"); genres != "" {
		utils.Success(c, orEmpty(h.Catalog.ByGenres(utils.ParseGenreList(genres))))
		return
	}
	utils.Success(c, h.Catalog.AllMovies())
}

// GetMovie 电影详情
func (h *Handler) GetMovie(c *gin.Context) {
	movie := h.Catalog.ByID(c.Param("id"))
	if movie == nil {
		utils.NotFound(c, "电影不存在")
		return
	}
	utils.Success(c, movie)
}

// MovieSuggest 搜索联想，最多返回 10 条
func (h *Handler) MovieSuggest(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		utils.Success(c, []model.Movie{})
		return
	}

	results := h.Browse.Search(q)
	if len(results) > 10 {
		results = results[:10]
	}
	utils.Success(c, results)
}

// ListGenres 类型列表
func (h *Handler) ListGenres(c *gin.Context) {
	utils.Success(c, h.Catalog.AllGenres())
}

// Home 首页类型专栏
func (h *Handler) Home(c *gin.Context) {
	utils.Success(c, h.Browse.HomeRows())
}

// ==================== 用户中心 ====================

// Me 当前用户资料
func (h *Handler) Me(c *gin.Context) {
	username := middleware.GetUsername(c)
	profile, err := h.Users.Profile(username)
	if err != nil {
		utils.NotFound(c, "用户不存在")
		return
	}
	utils.Success(c, profile)
}

// ToggleFavorite 收藏/取消收藏
func (h *Handler) ToggleFavorite(c *gin.Context) {
	username := middleware.GetUsername(c)
	movieID := c.Param("id")

	favorite, err := h.Users.ToggleFavorite(username, movieID)
	if err != nil {
		utils.InternalServerError(c, "操作失败")
		return
	}
	utils.Success(c, gin.H{"system_id": movieID, "favorite": favorite})
}

// ToggleWatchlist 加入/移出待看列表
func (h *Handler) ToggleWatchlist(c *gin.Context) {
	username := middleware.GetUsername(c)
	movieID := c.Param("id")

	inWatchlist, err := h.Users.ToggleWatchlist(username, movieID)
	if err != nil {
		utils.InternalServerError(c, "操作失败")
		return
	}
	utils.Success(c, gin.H{"system_id": movieID, "in_watchlist": inWatchlist})
}

// MarkWatched 标记已看
func (h *Handler) MarkWatched(c *gin.Context) {
	username := middleware.GetUsername(c)
	movieID := c.Param("id")

	added, err := h.Users.MarkWatched(username, movieID)
	if err != nil {
		utils.InternalServerError(c, "操作失败")
		return
	}
	utils.Success(c, gin.H{"system_id": movieID, "watched": true, "added": added})
}

// LikedGenreReq 喜欢类型请求
type LikedGenreReq struct {
	Genre string `json:"genre" binding:"required,genre"`
}

// ToggleLikedGenre 添加/移除喜欢的类型
func (h *Handler) ToggleLikedGenre(c *gin.Context) {
	var req LikedGenreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "类型不合法")
		return
	}

	username := middleware.GetUsername(c)
	liked, err := h.Users.ToggleLikedGenre(username, req.Genre)
	if err != nil {
		utils.InternalServerError(c, "操作失败")
		return
	}
	utils.Success(c, gin.H{"genre": req.Genre, "liked": liked})
}

// ==================== 推荐 ====================

// Recommendations 按喜欢的类型推荐
func (h *Handler) Recommendations(c *gin.Context) {
	user := h.Users.Get(middleware.GetUsername(c))
	if user == nil {
		utils.Unauthorized(c, "")
		return
	}
	utils.Success(c, h.Recommend.Recommend(user))
}

// DirectorRecommendations 按收藏的同导演作品推荐
func (h *Handler) DirectorRecommendations(c *gin.Context) {
	user := h.Users.Get(middleware.GetUsername(c))
	if user == nil {
		utils.Unauthorized(c, "")
		return
	}
	utils.Success(c, h.Recommend.ByFavoriteDirectors(user))
}

// orEmpty 把 nil 切片转成空切片，保证 JSON 输出 [] 而不是 null
func orEmpty(movies []model.Movie) []model.Movie {
	if movies == nil {
		return []model.Movie{}
	}
	return movies
}
