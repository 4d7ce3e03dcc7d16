package service

import (
	"log"
	"time"

	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/repository"
	"github.com/user/netflux/internal/utils"
	"golang.org/x/sync/singleflight"
)

// GenreRow 首页的一行类型专栏
type GenreRow struct {
	Genre  string        `json:"genre"`
	Movies []model.Movie `json:"movies"`
}

// BrowseService 浏览服务，负责搜索和首页类型专栏
type BrowseService struct {
	catalog *repository.Catalog
	cache   *utils.SearchCache[[]model.Movie]
	sf      singleflight.Group
}

// NewBrowseService 创建浏览服务
func NewBrowseService(catalog *repository.Catalog) *BrowseService {
	return &BrowseService{
		catalog: catalog,
		cache:   utils.NewSearchCache[[]model.Movie](1000, 10*time.Minute),
		sf:      singleflight.Group{},
	}
}

// Search 按标题关键词搜索
// 1. 规范化关键词作为缓存键，空查询直接返回空结果
// 2. 缓存命中直接返回
// 3. 使用 singleflight 避免并发重复扫描同一个词
func (s *BrowseService) Search(keywords string) []model.Movie {
	key := utils.NormalizeKeywords(keywords)
	if key == "" {
		return []model.Movie{}
	}

	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	val, _, _ := s.sf.Do(key, func() (interface{}, error) {
		result := s.catalog.ByTitleKeywords(key)
		if result == nil {
			result = []model.Movie{}
		}
		s.cache.Set(key, result)
		return result, nil
	})

	return val.([]model.Movie)
}

// HomeRows 生成首页的类型专栏，每个类型一行，行内保持片库顺序
// 类型按字母序排列，和侧边栏的类型列表保持一致
func (s *BrowseService) HomeRows() []GenreRow {
	rows := make([]GenreRow, 0)
	for _, genre := range s.catalog.AllGenres() {
		movies := s.catalog.ByGenre(genre)
		if len(movies) == 0 {
			continue
		}
		rows = append(rows, GenreRow{Genre: genre, Movies: movies})
	}
	return rows
}

// ClearCache 清空搜索缓存（片库重载后调用）
func (s *BrowseService) ClearCache() {
	s.cache.Clear()
	log.Println("[BrowseService] 搜索缓存已清空")
}
