package repository

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/user/netflux/internal/model"
	"github.com/user/netflux/internal/utils"
)

// Catalog 片库，持有从片库文件加载的全部电影
// 加载完成后只读，除非显式调用 Reload
type Catalog struct {
	path   string
	mu     sync.RWMutex
	movies []model.Movie
	genres []string
}

// NewCatalog 创建片库，path 是片库文件路径
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Load 从片库文件加载电影
// 行格式: title:minutes:genres:system_id[:year:director:cast:synopsis:tile:video]
// genres 字段内部以逗号分隔。格式错误的行和重复的系统标识跳过并告警，
// 文件本身无法打开则直接返回错误
func (r *Catalog) Load() error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("无法打开片库文件 %s: %w", r.path, err)
	}
	defer f.Close()

	var movies []model.Movie
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// 纯按冒号切分，格式本身没有引号和转义的概念
		record := strings.Split(line, ":")
		if len(record) < 4 {
			log.Printf("[Catalog] 行格式无效（字段不足），已跳过: %s", line)
			continue
		}

		minutes, err := utils.ParseMinutes(record[1])
		if err != nil {
			log.Printf("[Catalog] 行格式无效（%v），已跳过: %s", err, line)
			continue
		}

		systemID := strings.TrimSpace(record[3])
		if systemID == "" {
			log.Printf("[Catalog] 行格式无效（系统标识为空），已跳过: %s", line)
			continue
		}
		if seen[systemID] {
			// 保留首次出现的记录，保证片库内标识唯一
			log.Printf("[Catalog] 系统标识重复，已跳过: %s", systemID)
			continue
		}
		seen[systemID] = true

		movie := model.Movie{
			Title:    strings.TrimSpace(record[0]),
			Minutes:  minutes,
			Genres:   utils.ParseGenreList(record[2]),
			SystemID: systemID,
		}

		// 兼容带扩展字段的长行
		optional := []*string{&movie.Year, &movie.Director, &movie.Cast, &movie.Synopsis, &movie.TilePath, &movie.VideoPath}
		for i, field := range optional {
			if len(record) > 4+i {
				*field = strings.TrimSpace(record[4+i])
			}
		}
		if movie.TilePath == "" {
			movie.TilePath = fmt.Sprintf("./data/movies_tiles/%s.jpg", systemID)
		}
		if movie.VideoPath == "" {
			movie.VideoPath = fmt.Sprintf("./data/movies/%s.mp4", systemID)
		}

		movies = append(movies, movie)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取片库文件 %s 失败: %w", r.path, err)
	}

	genreSet := make(map[string]bool)
	for _, m := range movies {
		for _, g := range m.Genres {
			genreSet[g] = true
		}
	}
	genres := make([]string, 0, len(genreSet))
	for g := range genreSet {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	r.mu.Lock()
	r.movies = movies
	r.genres = genres
	r.mu.Unlock()

	log.Printf("[Catalog] 已从 %s 加载 %d 部电影", r.path, len(movies))
	return nil
}

// Reload 重新加载片库文件
func (r *Catalog) Reload() error {
	return r.Load()
}

// Path 片库文件路径
func (r *Catalog) Path() string {
	return r.path
}

// AllMovies 获取全部电影（片库顺序的副本）
func (r *Catalog) AllMovies() []model.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]model.Movie, len(r.movies))
	copy(result, r.movies)
	return result
}

// AllGenres 获取全部类型（去重、按字母排序）
func (r *Catalog) AllGenres() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, len(r.genres))
	copy(result, r.genres)
	return result
}

// Count 片库内电影数量
func (r *Catalog) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.movies)
}

// ByGenre 获取给定类型的全部电影，保持片库顺序
func (r *Catalog) ByGenre(genre string) []model.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []model.Movie
	for _, m := range r.movies {
		if m.HasGenre(genre) {
			result = append(result, m)
		}
	}
	return result
}

// ByGenres 获取属于任意一个给定类型的电影（并集），保持片库顺序，无重复
func (r *Catalog) ByGenres(genres []string) []model.Movie {
	if len(genres) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []model.Movie
	for _, m := range r.movies {
		for _, g := range genres {
			if m.HasGenre(g) {
				result = append(result, m)
				break
			}
		}
	}
	return result
}

// ByTitleKeywords 按标题关键词搜索（不区分大小写）
// 空查询返回空结果，避免"搜索空字符串得到全部"的意外行为
func (r *Catalog) ByTitleKeywords(keywords string) []model.Movie {
	if strings.TrimSpace(keywords) == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []model.Movie
	for _, m := range r.movies {
		if m.MatchesKeywords(keywords) {
			result = append(result, m)
		}
	}
	return result
}

// ByID 根据系统标识查找电影，未找到返回 nil
func (r *Catalog) ByID(systemID string) *model.Movie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.movies {
		if r.movies[i].SystemID == systemID {
			movie := r.movies[i]
			return &movie
		}
	}
	return nil
}
