package service

import (
	"log"
	"time"

	"github.com/user/netflux/internal/repository"
)

// AutosaveService 定时把用户存储落盘，降低异常退出丢数据的窗口
type AutosaveService struct {
	users    *repository.UserStoreRepository
	interval time.Duration
	stop     chan struct{}
}

// NewAutosaveService 创建定时保存服务
func NewAutosaveService(users *repository.UserStoreRepository, interval time.Duration) *AutosaveService {
	return &AutosaveService{
		users:    users,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start 启动定时保存任务
func (s *AutosaveService) Start() {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.users.Save(); err != nil {
					log.Printf("[AutosaveService] 保存用户数据失败: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止定时保存任务
func (s *AutosaveService) Stop() {
	close(s.stop)
}
