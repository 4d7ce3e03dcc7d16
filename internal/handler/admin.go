package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/netflux/internal/utils"
)

// AdminUsers 用户列表（不含密码哈希）
func (h *Handler) AdminUsers(c *gin.Context) {
	users := h.Users.All()
	result := make([]gin.H, 0, len(users))
	for _, u := range users {
		result = append(result, gin.H{
			"username":     u.Username,
			"email":        u.Email,
			"role":         u.Role,
			"favorites":    len(u.Favorites),
			"watchlist":    len(u.Watchlist),
			"watched":      len(u.Watched),
			"liked_genres": u.LikedGenres,
		})
	}
	utils.Success(c, result)
}

// AdminCatalogReload 重新加载片库文件
func (h *Handler) AdminCatalogReload(c *gin.Context) {
	if err := h.Catalog.Reload(); err != nil {
		utils.InternalServerError(c, "片库重载失败: "+err.Error())
		return
	}

	// 片库变了，旧的搜索和推荐结果全部作废
	h.Browse.ClearCache()
	utils.CacheClear()

	utils.SuccessWithMessage(c, "片库已重载", gin.H{"movies": h.Catalog.Count()})
}

// AdminCacheClean 清空所有缓存
func (h *Handler) AdminCacheClean(c *gin.Context) {
	h.Browse.ClearCache()
	utils.CacheClear()
	utils.Success(c, nil)
}
