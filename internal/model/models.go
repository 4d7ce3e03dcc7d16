package model

import (
	"strings"
)

// User 用户模型
// 收藏/待看/已看列表中保存的是电影的系统标识
type User struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"password_hash"`
	Favorites    []string `json:"favorites"`
	Watchlist    []string `json:"watchlist"`
	Watched      []string `json:"watched"`
	LikedGenres  []string `json:"liked_genres"`
	Role         string   `json:"role"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	Username string
	Email    string
	Role     string
}

// Profile 用户资料（对外返回，不含密码哈希）
type Profile struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Favorites   []Movie  `json:"favorites"`
	Watchlist   []Movie  `json:"watchlist"`
	Watched     []Movie  `json:"watched"`
	LikedGenres []string `json:"liked_genres"`
}

// UserStore 用户存储文档（对应 users.json 的顶层结构）
type UserStore struct {
	Users         []*User `json:"users"`
	CurrentUserID string  `json:"current_user_id,omitempty"`
}

// Movie 电影模型
// 由片库文件加载后不再修改，相等性以 SystemID 为准
type Movie struct {
	Title     string   `json:"title"`
	Minutes   int      `json:"minutes"`
	Genres    []string `json:"genres"`
	SystemID  string   `json:"system_id"`
	Year      string   `json:"year,omitempty"`
	Director  string   `json:"director,omitempty"`
	Cast      string   `json:"cast,omitempty"`
	Synopsis  string   `json:"synopsis,omitempty"`
	TilePath  string   `json:"tile_path,omitempty"`
	VideoPath string   `json:"video_path,omitempty"`
}

// HasGenre 检查电影是否属于给定类型（区分大小写的精确匹配）
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// MatchesKeywords 检查标题是否命中关键词（空格分词，任意一个词命中即可）
func (m *Movie) MatchesKeywords(keywords string) bool {
	words := strings.Fields(strings.ToLower(keywords))
	if len(words) == 0 {
		return false
	}
	title := strings.ToLower(m.Title)
	for _, w := range words {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

// Directors 拆分导演字段（逗号分隔，可能为空）
func (m *Movie) Directors() []string {
	if m.Director == "" {
		return nil
	}
	parts := strings.Split(m.Director, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// HasFavorite 检查电影是否在收藏列表中
func (u *User) HasFavorite(systemID string) bool {
	return containsString(u.Favorites, systemID)
}

// InWatchlist 检查电影是否在待看列表中
func (u *User) InWatchlist(systemID string) bool {
	return containsString(u.Watchlist, systemID)
}

// HasWatched 检查电影是否已看过
func (u *User) HasWatched(systemID string) bool {
	return containsString(u.Watched, systemID)
}

// LikesGenre 检查类型是否在喜欢的类型列表中
func (u *User) LikesGenre(genre string) bool {
	return containsString(u.LikedGenres, genre)
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
