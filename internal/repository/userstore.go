package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/user/netflux/internal/model"
)

var (
	// ErrUserExists 用户名已被占用
	ErrUserExists = errors.New("用户名已存在")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("用户不存在")
)

// UserStoreRepository 用户存储，负责 users.json 的读写
type UserStoreRepository struct {
	path  string
	mu    sync.RWMutex
	store *model.UserStore
	index map[string]*model.User
}

// NewUserStoreRepository 创建用户存储
func NewUserStoreRepository(path string) *UserStoreRepository {
	return &UserStoreRepository{
		path:  path,
		store: &model.UserStore{},
		index: make(map[string]*model.User),
	}
}

// Load 从 JSON 文件加载用户
// 文件不存在视为首次运行，得到一个空的有效存储而不是错误
func (r *UserStoreRepository) Load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[UserStore] 文件 %s 不存在，使用空的用户存储", r.path)
			r.mu.Lock()
			r.store = &model.UserStore{}
			r.index = make(map[string]*model.User)
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("无法读取用户文件 %s: %w", r.path, err)
	}

	var store model.UserStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("用户文件 %s 解析失败: %w", r.path, err)
	}

	index := make(map[string]*model.User, len(store.Users))
	for _, u := range store.Users {
		index[u.Username] = u
	}

	// 当前用户指向不存在的用户名时直接丢弃
	if store.CurrentUserID != "" {
		if _, ok := index[store.CurrentUserID]; !ok {
			store.CurrentUserID = ""
		}
	}

	r.mu.Lock()
	r.store = &store
	r.index = index
	r.mu.Unlock()

	log.Printf("[UserStore] 已从 %s 加载 %d 个用户", r.path, len(store.Users))
	return nil
}

// Save 把用户存储写回 JSON 文件
func (r *UserStoreRepository) Save() error {
	r.mu.RLock()
	data, err := json.MarshalIndent(r.store, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("用户数据序列化失败: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("无法创建用户数据目录 %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("无法写入用户文件 %s: %w", r.path, err)
	}
	return nil
}

// Get 根据用户名查找用户，未找到返回 nil
// 返回的是快照副本，读取方不持有存储内部状态，修改只能通过 Mutate
func (r *UserStoreRepository) Get(username string) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneUser(r.index[username])
}

// Create 创建用户，用户名重复返回 ErrUserExists
func (r *UserStoreRepository) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[user.Username]; ok {
		return ErrUserExists
	}
	r.store.Users = append(r.store.Users, user)
	r.index[user.Username] = user
	return nil
}

// Delete 删除用户
func (r *UserStoreRepository) Delete(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[username]; !ok {
		return ErrUserNotFound
	}
	delete(r.index, username)
	for i, u := range r.store.Users {
		if u.Username == username {
			r.store.Users = append(r.store.Users[:i], r.store.Users[i+1:]...)
			break
		}
	}
	if r.store.CurrentUserID == username {
		r.store.CurrentUserID = ""
	}
	return nil
}

// All 获取所有用户的快照列表
func (r *UserStoreRepository) All() []*model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*model.User, len(r.store.Users))
	for i, u := range r.store.Users {
		result[i] = cloneUser(u)
	}
	return result
}

// Count 用户总数
func (r *UserStoreRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.Users)
}

// CurrentUser 获取当前会话用户的快照，未选择返回 nil
func (r *UserStoreRepository) CurrentUser() *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.store.CurrentUserID == "" {
		return nil
	}
	return cloneUser(r.index[r.store.CurrentUserID])
}

// SetCurrentUser 设置当前会话用户
func (r *UserStoreRepository) SetCurrentUser(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[username]; !ok {
		return ErrUserNotFound
	}
	r.store.CurrentUserID = username
	return nil
}

// ClearCurrentUser 清除当前会话用户
func (r *UserStoreRepository) ClearCurrentUser() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.CurrentUserID = ""
}

// cloneUser 深拷贝用户，切片字段和存储内部状态脱钩
func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Favorites = slices.Clone(u.Favorites)
	clone.Watchlist = slices.Clone(u.Watchlist)
	clone.Watched = slices.Clone(u.Watched)
	clone.LikedGenres = slices.Clone(u.LikedGenres)
	return &clone
}

// Mutate 在锁内对指定用户执行修改
func (r *UserStoreRepository) Mutate(username string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.index[username]
	if !ok {
		return ErrUserNotFound
	}
	fn(user)
	return nil
}
