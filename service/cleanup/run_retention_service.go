/*
 * @module service/cleanup/run_retention_service
 * @description 运行记录清理服务，定期删除超过保留天数的清洗运行记录
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 定时触发 -> 计算截止时间 -> 执行清理 -> 记录结果
 * @rules 只删除已结束的运行记录，running 状态保留；保留天数<=0 时不清理；多实例时定时清理持锁执行
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3, service/distributed_lock
 * @refs service/init.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"datahub-cleanser/service/distributed_lock"
	"datahub-cleanser/service/models"
)

// DefaultSchedule 每天凌晨2点执行，Cron表达式：秒 分 时 日 月 周
const DefaultSchedule = "0 0 2 * * *"

const (
	retentionLockKey = "retention:cleaning_runs"
	retentionLockTTL = 10 * time.Minute
)

// RunRetentionService 运行记录清理服务
type RunRetentionService struct {
	db            *gorm.DB
	retentionDays int
	cron          *cron.Cron
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
	now           func() time.Time
	locks         *distributed_lock.LockExecutor
}

// NewRunRetentionService 创建运行记录清理服务实例
func NewRunRetentionService(db *gorm.DB, retentionDays int) *RunRetentionService {
	ctx, cancel := context.WithCancel(context.Background())

	return &RunRetentionService{
		db:            db,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithSeconds()),
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
	}
}

// SetLock 设置定时清理使用的锁，多实例部署时同一时刻只有一个实例执行清理
func (s *RunRetentionService) SetLock(lock distributed_lock.DistributedLock) {
	s.locks = distributed_lock.NewLockExecutor(lock)
}

// CleanupExpiredRuns 删除过期运行记录，返回删除条数
func (s *RunRetentionService) CleanupExpiredRuns(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	slog.Debug("清理过期运行记录", "cutoff_date", cutoff.Format("2006-01-02 15:04:05"), "retention_days", s.retentionDays)

	result := s.db.WithContext(ctx).
		Where("created_at < ? AND status <> ?", cutoff, models.RunStatusRunning).
		Delete(&models.CleaningRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除过期运行记录失败: %w", result.Error)
	}

	slog.Info("运行记录清理完成", "deleted_count", result.RowsAffected, "retention_days", s.retentionDays)
	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *RunRetentionService) StartScheduledCleanup(schedule string) error {
	if s.started {
		return fmt.Errorf("运行记录清理调度器已经启动")
	}
	if s.retentionDays <= 0 {
		slog.Info("未设置运行记录保留天数，跳过定时清理")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.runScheduled(s.ctx); err != nil {
			slog.Error("定时运行记录清理失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("运行记录清理调度器启动成功", "schedule", schedule, "retention_days", s.retentionDays)
	return nil
}

// runScheduled 定时触发的清理，锁被其他实例持有时跳过，返回是否执行
func (s *RunRetentionService) runScheduled(ctx context.Context) (bool, error) {
	if s.locks == nil {
		_, err := s.CleanupExpiredRuns(ctx)
		return true, err
	}

	ran, err := s.locks.ExecuteWithLock(ctx, retentionLockKey, retentionLockTTL, func() error {
		_, err := s.CleanupExpiredRuns(ctx)
		return err
	})
	if err == nil && !ran {
		slog.Info("其他实例正在清理运行记录，跳过本次清理")
	}
	return ran, err
}

// StopScheduledCleanup 停止定时清理任务
func (s *RunRetentionService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false

	slog.Info("运行记录清理调度器已停止")
}
