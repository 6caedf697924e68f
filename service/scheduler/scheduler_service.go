/**
 * @module SchedulerService
 * @description 清洗任务调度器服务，按 Cron 表达式定时触发清洗任务
 * @architecture 基于 robfig/cron 的调度器模式
 * @documentReference ../ai_docs/data_cleansing_pipeline.md
 * @stateFlow 加载启用任务 -> 注册Cron条目 -> 到点触发 -> 交给执行器(带锁)
 * @rules Cron表达式为6位(含秒)；同一任务只保留一个调度条目
 * @dependencies github.com/robfig/cron/v3
 * @refs ../cleaning/cleaning_service.go, ../models/cleaning_run.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"datahub-cleanser/service/models"
)

// JobRunner 执行一次定时清洗任务
type JobRunner interface {
	RunJob(ctx context.Context, jobID string) error
}

// JobSource 提供需要调度的任务
type JobSource interface {
	ListEnabledJobs(ctx context.Context) ([]models.CleaningJob, error)
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCronExpression 校验6位Cron表达式
func ValidateCronExpression(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("无效的Cron表达式 %q: %w", expr, err)
	}
	return nil
}

// SchedulerService 调度器服务
type SchedulerService struct {
	cron    *cron.Cron
	runner  JobRunner
	entries map[string]cron.EntryID
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSchedulerService 创建调度器服务
func NewSchedulerService(runner JobRunner) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		cron:    cron.New(cron.WithParser(cronParser)),
		runner:  runner,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 加载任务并启动调度器
func (s *SchedulerService) Start(source JobSource) error {
	slog.Info("启动清洗任务调度器")

	jobs, err := source.ListEnabledJobs(s.ctx)
	if err != nil {
		return fmt.Errorf("获取调度任务失败: %w", err)
	}

	for i := range jobs {
		if err := s.AddJob(&jobs[i]); err != nil {
			slog.Error("添加任务到调度器失败", "job_id", jobs[i].ID, "error", err)
		}
	}

	s.cron.Start()
	slog.Info("清洗任务调度器启动完成", "jobs", len(jobs))
	return nil
}

// Stop 停止调度器，等待正在执行的任务结束
func (s *SchedulerService) Stop() {
	slog.Info("停止清洗任务调度器")
	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info("清洗任务调度器已停止")
}

// AddJob 注册或替换任务的调度条目，未启用的任务只移除
func (s *SchedulerService) AddJob(job *models.CleaningJob) error {
	s.RemoveJob(job.ID)
	if !job.IsEnabled {
		return nil
	}

	jobID := job.ID
	entryID, err := s.cron.AddFunc(job.CronExpression, func() {
		s.executeScheduledJob(jobID)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	s.mu.Lock()
	s.entries[jobID] = entryID
	s.mu.Unlock()

	slog.Info("添加Cron任务", "job_id", jobID, "name", job.Name, "cron", job.CronExpression)
	return nil
}

// RemoveJob 移除任务的调度条目
func (s *SchedulerService) RemoveJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[jobID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, jobID)
		slog.Info("移除Cron任务", "job_id", jobID)
	}
}

// NextRun 返回任务下次执行时间
func (s *SchedulerService) NextRun(jobID string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.entries[jobID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

// JobCount 已注册的任务数
func (s *SchedulerService) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// executeScheduledJob 执行调度任务
func (s *SchedulerService) executeScheduledJob(jobID string) {
	if s.ctx.Err() != nil {
		return
	}

	slog.Info("执行调度任务", "job_id", jobID)
	if err := s.runner.RunJob(s.ctx, jobID); err != nil {
		slog.Error("调度任务执行失败", "job_id", jobID, "error", err)
	}
}
