package service

import (
	"sort"
	"time"

	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/repository"
	"github.com/user/netflux/internal/utils"
)

// RecommendationService 推荐服务
type RecommendationService struct {
	catalog *repository.Catalog
}

// NewRecommendationService 创建推荐服务
func NewRecommendationService(catalog *repository.Catalog) *RecommendationService {
	return &RecommendationService{catalog: catalog}
}

// scoredMovie 带得分的电影，得分是与喜欢类型的重合数
type scoredMovie struct {
	movie model.Movie
	score int
}

// Recommend 根据用户喜欢的类型生成推荐列表
// 得分 = 电影类型与喜欢类型的重合数（去重计数），得分为 0 的电影被过滤，
// 结果按得分降序排列，同分保持片库顺序。已看过的电影不再推荐。
// 没有选择任何喜欢的类型时返回空列表，推荐必须由用户显式开启
func (s *RecommendationService) Recommend(user *model.User) []model.Movie {
	if user == nil || len(user.LikedGenres) == 0 {
		return []model.Movie{}
	}

	if cached, ok := cacheGet(recommendCacheKey(user.Username)); ok {
		return cached
	}

	liked := make(map[string]bool, len(user.LikedGenres))
	for _, g := range user.LikedGenres {
		liked[g] = true
	}

	var scored []scoredMovie
	for _, movie := range s.catalog.AllMovies() {
		if user.HasWatched(movie.SystemID) {
			continue
		}
		score := genreOverlap(movie.Genres, liked)
		if score == 0 {
			continue
		}
		scored = append(scored, scoredMovie{movie: movie, score: score})
	}

	// 稳定排序保证同分电影维持片库顺序，结果可复现
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	result := make([]model.Movie, 0, len(scored))
	for _, sm := range scored {
		result = append(result, sm.movie)
	}

	cacheSet(recommendCacheKey(user.Username), result)
	return result
}

// ByFavoriteDirectors 推荐与收藏电影同导演的作品
// 排除已看过的电影和收藏本身，保持片库顺序
func (s *RecommendationService) ByFavoriteDirectors(user *model.User) []model.Movie {
	if user == nil || len(user.Favorites) == 0 {
		return []model.Movie{}
	}

	if cached, ok := cacheGet(directorCacheKey(user.Username)); ok {
		return cached
	}

	directors := make(map[string]bool)
	for _, id := range user.Favorites {
		movie := s.catalog.ByID(id)
		if movie == nil {
			continue
		}
		for _, d := range movie.Directors() {
			directors[d] = true
		}
	}

	result := []model.Movie{}
	if len(directors) > 0 {
		for _, movie := range s.catalog.AllMovies() {
			if user.HasWatched(movie.SystemID) || user.HasFavorite(movie.SystemID) {
				continue
			}
			for _, d := range movie.Directors() {
				if directors[d] {
					result = append(result, movie)
					break
				}
			}
		}
	}

	cacheSet(directorCacheKey(user.Username), result)
	return result
}

// genreOverlap 计算电影类型与喜欢类型的重合数
// 电影类型允许重复标签，按集合语义去重计数
func genreOverlap(genres []string, liked map[string]bool) int {
	counted := make(map[string]bool, len(genres))
	score := 0
	for _, g := range genres {
		if liked[g] && !counted[g] {
			counted[g] = true
			score++
		}
	}
	return score
}

func recommendCacheKey(username string) string {
	return "rec:" + username
}

func directorCacheKey(username string) string {
	return "recdir:" + username
}

func cacheGet(key string) ([]model.Movie, bool) {
	if utils.Cache == nil {
		return nil, false
	}
	if v, ok := utils.CacheGet(key); ok {
		if movies, ok := v.([]model.Movie); ok {
			return movies, true
		}
	}
	return nil, false
}

func cacheSet(key string, movies []model.Movie) {
	if utils.Cache == nil {
		return
	}
	utils.CacheSet(key, movies, 10*time.Minute)
}
