package service

import (
	"errors"
	"strings"

	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/repository"
	"github.com/user/netflux/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// UserService 用户服务，负责账号和收藏/待看/已看/喜欢类型的维护
type UserService struct {
	users   *repository.UserStoreRepository
	catalog *repository.Catalog
}

// NewUserService 创建用户服务
func NewUserService(users *repository.UserStoreRepository, catalog *repository.Catalog) *UserService {
	return &UserService{users: users, catalog: catalog}
}

// Register 创建用户并设为当前用户
func (s *UserService) Register(username, email, password string) (*model.User, error) {
	// 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Favorites:    []string{},
		Watchlist:    []string{},
		Watched:      []string{},
		LikedGenres:  []string{},
		Role:         "user",
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	// 创建即选中，保持和桌面端"注册后直接进入"一致的行为
	_ = s.users.SetCurrentUser(user.Username)

	if err := s.users.Save(); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验用户名和密码
func (s *UserService) Authenticate(username, password string) (*model.User, error) {
	user := s.users.Get(username)
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Select 设置当前会话用户
func (s *UserService) Select(username string) (*model.User, error) {
	user := s.users.Get(username)
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	if err := s.users.SetCurrentUser(username); err != nil {
		return nil, err
	}
	if err := s.users.Save(); err != nil {
		return nil, err
	}
	return user, nil
}

// Current 获取当前会话用户，未选择返回 nil
func (s *UserService) Current() *model.User {
	return s.users.CurrentUser()
}

// Get 根据用户名查找用户，未找到返回 nil
func (s *UserService) Get(username string) *model.User {
	return s.users.Get(username)
}

// All 获取所有用户
func (s *UserService) All() []*model.User {
	return s.users.All()
}

// Logout 清除当前会话用户并落盘
func (s *UserService) Logout() error {
	s.users.ClearCurrentUser()
	return s.users.Save()
}

// Save 把用户存储落盘
func (s *UserService) Save() error {
	return s.users.Save()
}

// ToggleFavorite 收藏/取消收藏，返回操作后是否处于收藏状态
// 重复添加和删除不存在的记录都是无操作，不报错
func (s *UserService) ToggleFavorite(username, movieID string) (bool, error) {
	var added bool
	err := s.users.Mutate(username, func(u *model.User) {
		if u.HasFavorite(movieID) {
			u.Favorites = removeString(u.Favorites, movieID)
			added = false
		} else {
			u.Favorites = append(u.Favorites, movieID)
			added = true
		}
	})
	if err != nil {
		return false, err
	}
	s.invalidateRecommendations(username)
	return added, s.users.Save()
}

// ToggleWatchlist 加入/移出待看列表，返回操作后是否在待看列表中
func (s *UserService) ToggleWatchlist(username, movieID string) (bool, error) {
	var added bool
	err := s.users.Mutate(username, func(u *model.User) {
		if u.InWatchlist(movieID) {
			u.Watchlist = removeString(u.Watchlist, movieID)
			added = false
		} else {
			u.Watchlist = append(u.Watchlist, movieID)
			added = true
		}
	})
	if err != nil {
		return false, err
	}
	s.invalidateRecommendations(username)
	return added, s.users.Save()
}

// MarkWatched 标记已看，已经标记过则为无操作
// 标记的同时把电影从待看列表移除
func (s *UserService) MarkWatched(username, movieID string) (bool, error) {
	var added bool
	err := s.users.Mutate(username, func(u *model.User) {
		if u.HasWatched(movieID) {
			added = false
			return
		}
		u.Watched = append(u.Watched, movieID)
		u.Watchlist = removeString(u.Watchlist, movieID)
		added = true
	})
	if err != nil {
		return false, err
	}
	s.invalidateRecommendations(username)
	return added, s.users.Save()
}

// ToggleLikedGenre 添加/移除喜欢的类型，返回操作后是否在列表中
func (s *UserService) ToggleLikedGenre(username, genre string) (bool, error) {
	var added bool
	err := s.users.Mutate(username, func(u *model.User) {
		if u.LikesGenre(genre) {
			u.LikedGenres = removeString(u.LikedGenres, genre)
			added = false
		} else {
			u.LikedGenres = append(u.LikedGenres, genre)
			added = true
		}
	})
	if err != nil {
		return false, err
	}
	s.invalidateRecommendations(username)
	return added, s.users.Save()
}

// Profile 获取用户资料，收藏/待看/已看解析为电影记录
// 片库中不存在的标识（悬空引用）直接丢弃
func (s *UserService) Profile(username string) (*model.Profile, error) {
	user := s.users.Get(username)
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	return &model.Profile{
		Username:    user.Username,
		Email:       user.Email,
		Favorites:   s.resolveMovies(user.Favorites),
		Watchlist:   s.resolveMovies(user.Watchlist),
		Watched:     s.resolveMovies(user.Watched),
		LikedGenres: append([]string{}, user.LikedGenres...),
	}, nil
}

// resolveMovies 把标识列表解析为电影记录，跳过无法解析的标识
func (s *UserService) resolveMovies(ids []string) []model.Movie {
	result := make([]model.Movie, 0, len(ids))
	for _, id := range ids {
		if movie := s.catalog.ByID(id); movie != nil {
			result = append(result, *movie)
		}
	}
	return result
}

// invalidateRecommendations 用户偏好变化后清除推荐缓存
func (s *UserService) invalidateRecommendations(username string) {
	if utils.Cache == nil {
		return
	}
	utils.CacheDelete(recommendCacheKey(username))
	utils.CacheDelete(directorCacheKey(username))
}

func removeString(slice []string, item string) []string {
	result := slice[:0]
	for _, s := range slice {
		if s != item {
			result = append(result, s)
		}
	}
	return result
}
