/*
 * @module service/event/event_service
 * @description 事件管理服务，将清洗运行事件分发到消息通道(Kafka/MQTT)和SSE订阅者
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 运行结束 -> 事件分发 -> 消息通道发布 / SSE客户端推送
 * @rules 发布失败只记录日志并返回聚合错误；SSE队列满时丢弃该客户端的事件
 * @dependencies datahub-cleanser/service/models
 * @refs publisher.go, api/controllers/event_controller.go
 */

package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"datahub-cleanser/service/models"
)

// SSEClient SSE客户端连接
type SSEClient struct {
	ID          string
	ClientIP    string
	ConnectedAt time.Time
	Channel     chan *models.CleaningRunEvent
	Done        chan struct{}
}

// EventService 事件管理服务
type EventService struct {
	publishers  []Publisher
	connections map[string]*SSEClient
	mu          sync.RWMutex
	timeout     time.Duration
}

// NewEventService 创建事件服务实例
func NewEventService(publishers ...Publisher) *EventService {
	return &EventService{
		publishers:  publishers,
		connections: make(map[string]*SSEClient),
		timeout:     10 * time.Second,
	}
}

// Publishers 已启用的发布器名称
func (s *EventService) Publishers() []string {
	names := make([]string, len(s.publishers))
	for i, p := range s.publishers {
		names[i] = p.Name()
	}
	return names
}

// === SSE连接管理 ===

// AddSSEConnection 添加SSE连接
func (s *EventService) AddSSEConnection(connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	client := &SSEClient{
		ID:          connectionID,
		ClientIP:    clientIP,
		ConnectedAt: time.Now(),
		Channel:     make(chan *models.CleaningRunEvent, 100), // 缓冲100个事件
		Done:        make(chan struct{}),
	}
	s.connections[connectionID] = client

	slog.Info("SSE连接已建立", "connection_id", connectionID, "client_ip", clientIP)
	return client
}

// RemoveSSEConnection 移除SSE连接
func (s *EventService) RemoveSSEConnection(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, exists := s.connections[connectionID]; exists {
		close(client.Done)
		delete(s.connections, connectionID)
		slog.Info("SSE连接已断开", "connection_id", connectionID)
	}
}

// ConnectionCount 当前SSE连接数
func (s *EventService) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Publish 分发运行事件
func (s *EventService) Publish(ctx context.Context, evt *models.CleaningRunEvent) error {
	s.broadcast(evt)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var errs []error
	for _, p := range s.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			slog.Error("发布运行事件失败", "publisher", p.Name(), "run_id", evt.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *EventService) broadcast(evt *models.CleaningRunEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, client := range s.connections {
		select {
		case client.Channel <- evt:
		default:
			slog.Warn("SSE事件队列已满，跳过发送", "connection_id", client.ID, "run_id", evt.RunID)
		}
	}
}

// Stop 关闭全部连接与发布器
func (s *EventService) Stop() {
	s.mu.Lock()
	for id, client := range s.connections {
		close(client.Done)
		delete(s.connections, id)
	}
	s.mu.Unlock()

	for _, p := range s.publishers {
		if err := p.Close(); err != nil {
			slog.Error("关闭发布器失败", "publisher", p.Name(), "error", err)
		}
	}
}
