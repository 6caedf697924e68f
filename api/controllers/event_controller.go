/*
 * @module api/controllers/event_controller
 * @description 事件控制器，通过SSE推送清洗运行完成事件，并提供事件通道状态查询
 * @architecture RESTful API架构 - 控制器层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 建立SSE连接 -> 推送connected -> 持续推送运行事件 -> 客户端断开/服务停止
 * @rules 每个连接一个缓冲队列，连接断开时移除
 * @dependencies datahub-cleanser/service/event, github.com/go-chi/render, github.com/google/uuid
 * @refs service/event/event_service.go
 */

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"datahub-cleanser/service"
	"datahub-cleanser/service/event"
)

// EventController 事件控制器
type EventController struct {
	eventService *event.EventService
}

// NewEventController 创建事件控制器实例
func NewEventController() *EventController {
	return NewEventControllerWithService(service.GlobalEventService)
}

// NewEventControllerWithService 以指定事件服务创建控制器
func NewEventControllerWithService(svc *event.EventService) *EventController {
	return &EventController{eventService: svc}
}

// EventStatus 事件通道状态
type EventStatus struct {
	Publishers     []string `json:"publishers"`
	SSEConnections int      `json:"sse_connections"`
}

// HandleSSE 订阅清洗运行事件
// @Summary 订阅运行事件
// @Description 建立SSE连接，每次清洗运行结束推送一条 CleaningRunEvent
// @Tags 事件管理
// @Produce text/event-stream
// @Success 200 {string} string "SSE事件流"
// @Router /cleaning/events [get]
func (c *EventController) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "不支持流式响应", http.StatusInternalServerError)
		return
	}

	// 设置SSE响应头
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	connectionID := uuid.New().String()
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = forwarded
	}

	client := c.eventService.AddSSEConnection(connectionID, clientIP)
	defer c.eventService.RemoveSSEConnection(connectionID)

	// 发送连接成功事件
	fmt.Fprintf(w, "event: connected\ndata: {\"connection_id\":\"%s\",\"timestamp\":\"%s\"}\n\n",
		connectionID, time.Now().Format(time.RFC3339))
	flusher.Flush()

	for {
		select {
		case evt := <-client.Channel:
			fmt.Fprintf(w, "event: cleaning_run\ndata: %s\n\n", toJSON(evt))
			flusher.Flush()

		case <-client.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

// GetStatus 事件通道状态
// @Summary 事件通道状态
// @Description 查询已启用的事件发布器和当前SSE连接数
// @Tags 事件管理
// @Produce json
// @Success 200 {object} APIResponse{data=EventStatus}
// @Router /cleaning/events/status [get]
func (c *EventController) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, SuccessResponse("查询成功", EventStatus{
		Publishers:     c.eventService.Publishers(),
		SSEConnections: c.eventService.ConnectionCount(),
	}))
}

// toJSON 将对象转换为JSON字符串
func toJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}
