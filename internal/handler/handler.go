package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/netflux/internal/config"
	"github.com/user/netflux/internal/middleware"
	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/repository"
	"github.com/user/netflux/internal/service"
	"github.com/user/netflux/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Catalog   *repository.Catalog
	Users     *service.UserService
	Browse    *service.BrowseService
	Recommend *service.RecommendationService
	Config    *config.Config
}

// NewHandler 创建处理器
func NewHandler(catalog *repository.Catalog, users *repository.UserStoreRepository, cfg *config.Config) *Handler {
	// 注册自定义校验规则
	registerValidators()

	return &Handler{
		Catalog:   catalog,
		Users:     service.NewUserService(users, catalog),
		Browse:    service.NewBrowseService(catalog),
		Recommend: service.NewRecommendationService(catalog),
		Config:    cfg,
	}
}

// registerValidators 注册自定义的请求校验规则
// genre: 类型标签不能为空，也不能包含片库行的分隔符
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
			genre := fl.Field().String()
			if strings.TrimSpace(genre) == "" {
				return false
			}
			return !strings.ContainsAny(genre, ":,")
		})
	}
}

// ==================== 认证 ====================

// RegisterReq 注册请求
type RegisterReq struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "注册信息不合法")
		return
	}

	user, err := h.Users.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			utils.BadRequest(c, "用户名已存在")
			return
		}
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}

	// 生成 JWT 并登录
	token, err := h.generateToken(user)
	if err != nil {
		utils.InternalServerError(c, "注册失败，请重试")
		return
	}
	h.setLoginState(c, user, token)

	utils.Success(c, gin.H{"username": user.Username})
}

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请填写用户名和密码")
		return
	}

	user, err := h.Users.Authenticate(req.Username, req.Password)
	if err != nil {
		utils.Unauthorized(c, "用户名或密码错误")
		return
	}

	// 登录即选中为当前会话用户
	if _, err := h.Users.Select(user.Username); err != nil {
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		utils.InternalServerError(c, "登录失败，请重试")
		return
	}
	h.setLoginState(c, user, token)

	utils.Success(c, gin.H{"username": user.Username})
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	if err := h.Users.Logout(); err != nil {
		utils.InternalServerError(c, "登出时保存用户数据失败")
		return
	}

	utils.Success(c, nil)
}

// generateToken 生成 JWT
func (h *Handler) generateToken(user *model.User) (string, error) {
	claims := &middleware.Claims{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.Config.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Config.AppSecret))
}

// setLoginState 设置登录 Cookie 和 Session
func (h *Handler) setLoginState(c *gin.Context, user *model.User, token string) {
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	_ = session.Save()
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"movies": h.Catalog.Count(),
	})
}
