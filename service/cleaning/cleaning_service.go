/*
 * @module service/cleaning/cleaning_service
 * @description 清洗运行服务，负责一次清洗运行的完整生命周期以及定时清洗任务管理
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 解析配置 -> 获取目标锁 -> 加载 -> 流水线 -> 导出 -> 写运行记录 -> 指标 -> 事件
 * @rules 同一导出目标同一时刻只允许一次运行；任一阶段失败不产生导出文件；db为空时不持久化
 * @dependencies gorm.io/gorm, service/cleansing, service/config, service/distributed_lock, service/event, service/monitoring, service/scheduler
 * @refs api/controllers/cleaning_controller.go, cmd/clean.go
 */

package cleaning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"datahub-cleanser/service/cleansing"
	"datahub-cleanser/service/config"
	"datahub-cleanser/service/distributed_lock"
	"datahub-cleanser/service/event"
	"datahub-cleanser/service/models"
	"datahub-cleanser/service/monitoring"
	"datahub-cleanser/service/scheduler"
)

var (
	// ErrRunInProgress 同一导出目标已有运行在执行
	ErrRunInProgress = errors.New("该导出目标已有清洗运行在执行")
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrDuplicateJobName 任务名称重复
	ErrDuplicateJobName = errors.New("任务名称已存在")
	// ErrPersistenceDisabled 未配置数据库
	ErrPersistenceDisabled = errors.New("未启用运行记录存储")
)

const defaultLockTTL = 5 * time.Minute

// Options 清洗服务可选依赖，未设置的依赖不生效
type Options struct {
	DefaultConfigPath string
	// DataRoot 非空时，请求与任务中的配置文件、输入、导出路径必须位于该目录下
	DataRoot string
	// AllowInlineScripts 是否允许请求内联配置携带自定义脚本
	AllowInlineScripts bool

	Metrics *monitoring.MetricsCollector
	Events  *event.EventService
	Lock    distributed_lock.DistributedLock
	LockTTL time.Duration
}

// Service 清洗运行服务
type Service struct {
	db                *gorm.DB
	defaultConfigPath string
	dataRoot          string
	allowScripts      bool
	metrics           *monitoring.MetricsCollector
	events            *event.EventService
	locks             *distributed_lock.LockExecutor
	lockTTL           time.Duration
	scheduler         *scheduler.SchedulerService
}

// NewService 创建清洗运行服务
func NewService(db *gorm.DB, opts Options) *Service {
	lock := opts.Lock
	if lock == nil {
		lock = distributed_lock.NewLocalLock()
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	return &Service{
		db:                db,
		defaultConfigPath: opts.DefaultConfigPath,
		dataRoot:          opts.DataRoot,
		allowScripts:      opts.AllowInlineScripts,
		metrics:           opts.Metrics,
		events:            opts.Events,
		locks:             distributed_lock.NewLockExecutor(lock),
		lockTTL:           ttl,
	}
}

// SetScheduler 关联调度器，任务增删时同步调度条目
func (s *Service) SetScheduler(sch *scheduler.SchedulerService) {
	s.scheduler = sch
}

// RunOutcome 一次运行的结果，Result 在流水线未执行时为空
type RunOutcome struct {
	Run    *models.CleaningRun
	Result *cleansing.Result
}

// Run 执行一次清洗运行
func (s *Service) Run(ctx context.Context, req *models.CleaningRequest) (*RunOutcome, error) {
	if req == nil {
		req = &models.CleaningRequest{}
	}

	cfg, err := s.resolveConfig(req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFailure(cleansing.ErrorKind(err))
		}
		return nil, err
	}

	var outcome *RunOutcome
	var runErr error
	lockKey := "destination:" + cfg.Destination

	ran, err := s.locks.ExecuteWithLockAndRefresh(ctx, lockKey, s.lockTTL, s.lockTTL/3, func() error {
		outcome, runErr = s.execute(ctx, req, cfg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("获取运行锁失败: %w", err)
	}
	if !ran {
		slog.Warn("导出目标正被占用，跳过本次运行", "destination", cfg.Destination)
		return nil, ErrRunInProgress
	}
	return outcome, runErr
}

// resolveConfig 请求内联配置优先，其次配置文件，最后默认配置
func (s *Service) resolveConfig(req *models.CleaningRequest) (*models.PipelineConfig, error) {
	var cfg *models.PipelineConfig

	switch {
	case req.Config != nil:
		if !s.allowScripts {
			for name, col := range req.Config.Columns {
				if col.Script != "" {
					return nil, &cleansing.ConfigurationError{Reason: fmt.Sprintf("列 %s: 未允许内联配置携带自定义脚本", name)}
				}
			}
		}
		copied := *req.Config
		cfg = &copied
		config.ApplyDefaults(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	default:
		path := req.ConfigPath
		if path == "" {
			path = s.defaultConfigPath
		} else if err := s.checkPath("配置文件", path); err != nil {
			return nil, err
		}
		loaded, err := config.LoadPipelineConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if req.Source != "" {
		cfg.Source = req.Source
	}
	if req.Destination != "" {
		cfg.Destination = req.Destination
	}
	if cfg.Source == "" {
		return nil, &cleansing.ConfigurationError{Reason: "未指定输入文件"}
	}
	if err := s.checkPath("输入文件", cfg.Source); err != nil {
		return nil, err
	}
	if err := s.checkPath("导出文件", cfg.Destination); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkPath 校验路径位于数据根目录内，未配置根目录时不校验
func (s *Service) checkPath(kind, path string) error {
	if s.dataRoot == "" || path == "" {
		return nil
	}
	root, err := filepath.Abs(s.dataRoot)
	if err != nil {
		return &cleansing.ConfigurationError{Reason: fmt.Sprintf("数据根目录无效: %v", err)}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &cleansing.ConfigurationError{Reason: fmt.Sprintf("%s路径无效: %v", kind, err)}
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		slog.Warn("拒绝数据根目录之外的路径", "kind", kind, "path", path, "data_root", s.dataRoot)
		return &cleansing.ConfigurationError{Reason: fmt.Sprintf("%s路径超出数据根目录: %s", kind, path)}
	}
	return nil
}

func (s *Service) execute(ctx context.Context, req *models.CleaningRequest, cfg *models.PipelineConfig) (*RunOutcome, error) {
	trigger := req.TriggerType
	if trigger == "" {
		trigger = models.TriggerManual
	}

	run := &models.CleaningRun{
		JobID:       req.JobID,
		TriggerType: trigger,
		Source:      cfg.Source,
		Destination: cfg.Destination,
		Status:      models.RunStatusRunning,
		StartTime:   time.Now(),
	}
	if s.db != nil {
		if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
			return nil, fmt.Errorf("创建运行记录失败: %w", err)
		}
	}

	slog.Info("开始清洗运行", "run_id", run.ID, "source", cfg.Source, "destination", cfg.Destination, "trigger", trigger)

	result, err := s.process(ctx, cfg)
	s.finish(ctx, run, result, err)

	return &RunOutcome{Run: run, Result: result}, err
}

// process 加载、清洗、导出，任一步失败都不写出文件
func (s *Service) process(ctx context.Context, cfg *models.PipelineConfig) (*cleansing.Result, error) {
	pipeline, err := cleansing.BuildPipeline(cfg)
	if err != nil {
		return nil, err
	}

	table, err := cleansing.NewLoader(cfg).Load(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}

	cleaned, result, err := pipeline.Run(ctx, table)
	if err != nil {
		return result, err
	}

	if err := cleansing.NewExporter(cfg).Export(ctx, cleaned, cfg.Destination); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) finish(ctx context.Context, run *models.CleaningRun, result *cleansing.Result, runErr error) {
	end := time.Now()
	run.EndTime = &end
	run.Duration = end.Sub(run.StartTime).Milliseconds()

	if result != nil {
		run.RowsLoaded = int64(result.RowsIn)
		run.StageStats = stageStatsJSON(result.Stages)
	}

	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.ErrorKind = cleansing.ErrorKind(runErr)
		run.ErrorMessage = runErr.Error()
		slog.Error("清洗运行失败", "run_id", run.ID, "error_kind", run.ErrorKind, "error", runErr)
	} else {
		run.Status = models.RunStatusSuccess
		run.RowsExported = int64(result.RowsOut)
		run.NullCounts = nullCountsJSON(result.NullCounts)
		slog.Info("清洗运行完成",
			"run_id", run.ID,
			"rows_loaded", run.RowsLoaded,
			"rows_exported", run.RowsExported,
			"duration_ms", run.Duration)
	}

	// 运行结束后的记录不随请求取消
	bg := context.WithoutCancel(ctx)

	if s.db != nil {
		if err := s.db.WithContext(bg).Save(run).Error; err != nil {
			slog.Error("更新运行记录失败", "run_id", run.ID, "error", err)
		}
		if run.JobID != "" {
			s.updateJobLastRun(bg, run)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordRun(run.Status, run.TriggerType, end.Sub(run.StartTime), int(run.RowsLoaded), int(run.RowsExported))
		if result != nil {
			for _, st := range result.Stages {
				s.metrics.RecordStage(st.Stage, st.RowsIn, st.RowsOut, st.CellsChanged, st.Duration)
			}
		}
		if runErr != nil {
			s.metrics.RecordFailure(run.ErrorKind)
		}
	}

	if s.events != nil {
		evt := &models.CleaningRunEvent{
			RunID:        run.ID,
			JobID:        run.JobID,
			Status:       run.Status,
			Source:       run.Source,
			Destination:  run.Destination,
			RowsLoaded:   run.RowsLoaded,
			RowsExported: run.RowsExported,
			ErrorKind:    run.ErrorKind,
			ErrorMessage: run.ErrorMessage,
			FinishedAt:   end,
		}
		if err := s.events.Publish(bg, evt); err != nil {
			slog.Warn("运行事件发布不完整", "run_id", run.ID, "error", err)
		}
	}
}

func (s *Service) updateJobLastRun(ctx context.Context, run *models.CleaningRun) {
	updates := map[string]interface{}{
		"last_run_id":     run.ID,
		"last_run_time":   run.EndTime,
		"last_run_status": run.Status,
	}
	if err := s.db.WithContext(ctx).Model(&models.CleaningJob{}).Where("id = ?", run.JobID).Updates(updates).Error; err != nil {
		slog.Error("更新任务最近运行信息失败", "job_id", run.JobID, "error", err)
	}
}

func stageStatsJSON(stages []cleansing.StageStat) models.JSONBArray {
	out := make(models.JSONBArray, 0, len(stages))
	for _, st := range stages {
		out = append(out, models.JSONB{
			"stage":         st.Stage,
			"rows_in":       st.RowsIn,
			"rows_out":      st.RowsOut,
			"cells_changed": st.CellsChanged,
			"duration_ms":   st.Duration.Milliseconds(),
		})
	}
	return out
}

func nullCountsJSON(counts map[string]int) models.JSONB {
	out := make(models.JSONB, len(counts))
	for column, n := range counts {
		out[column] = n
	}
	return out
}

// === 运行记录查询 ===

// ListRunsRequest 运行记录查询条件
type ListRunsRequest struct {
	Page   int
	Size   int
	Status string
	JobID  string
}

// ListRuns 分页查询运行记录，按创建时间倒序
func (s *Service) ListRuns(ctx context.Context, req ListRunsRequest) ([]models.CleaningRun, int64, error) {
	if s.db == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 || req.Size > 100 {
		req.Size = 10
	}

	query := s.db.WithContext(ctx).Model(&models.CleaningRun{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.JobID != "" {
		query = query.Where("job_id = ?", req.JobID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取运行记录总数失败: %w", err)
	}

	var runs []models.CleaningRun
	offset := (req.Page - 1) * req.Size
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Size).Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return runs, total, nil
}

// GetRun 获取单条运行记录
func (s *Service) GetRun(ctx context.Context, id string) (*models.CleaningRun, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}

	var run models.CleaningRun
	if err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return &run, nil
}

// === 定时任务管理 ===

// CreateJob 创建定时清洗任务并注册到调度器
func (s *Service) CreateJob(ctx context.Context, req *models.CreateCleaningJobRequest) (*models.CleaningJob, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}
	if req.Name == "" {
		return nil, &cleansing.ConfigurationError{Reason: "任务名称不能为空"}
	}
	if err := scheduler.ValidateCronExpression(req.CronExpression); err != nil {
		return nil, &cleansing.ConfigurationError{Reason: err.Error()}
	}
	if req.ConfigPath == "" {
		return nil, &cleansing.ConfigurationError{Reason: "任务必须指定配置文件"}
	}
	if err := s.checkPath("配置文件", req.ConfigPath); err != nil {
		return nil, err
	}
	cfg, err := config.LoadPipelineConfig(req.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Source == "" {
		return nil, &cleansing.ConfigurationError{Reason: "任务配置文件未指定输入文件"}
	}
	if err := s.checkPath("输入文件", cfg.Source); err != nil {
		return nil, err
	}
	if err := s.checkPath("导出文件", cfg.Destination); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CleaningJob{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("检查任务名称失败: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateJobName
	}

	job := &models.CleaningJob{
		Name:           req.Name,
		ConfigPath:     req.ConfigPath,
		CronExpression: req.CronExpression,
		IsEnabled:      true,
	}
	if req.IsEnabled != nil {
		job.IsEnabled = *req.IsEnabled
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("创建清洗任务失败: %w", err)
	}
	// gorm 对 default:true 的零值字段不写入，单独更新
	if !job.IsEnabled {
		if err := s.db.WithContext(ctx).Model(job).Update("is_enabled", false).Error; err != nil {
			return nil, fmt.Errorf("创建清洗任务失败: %w", err)
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.AddJob(job); err != nil {
			slog.Error("注册调度任务失败", "job_id", job.ID, "error", err)
		}
	}

	slog.Info("创建清洗任务", "job_id", job.ID, "name", job.Name, "cron", job.CronExpression)
	return job, nil
}

// ListJobs 查询全部定时任务
func (s *Service) ListJobs(ctx context.Context) ([]models.CleaningJob, error) {
	if s.db == nil {
		return nil, ErrPersistenceDisabled
	}

	var jobs []models.CleaningJob
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("查询清洗任务失败: %w", err)
	}
	return jobs, nil
}

// ListEnabledJobs 查询已启用的定时任务，供调度器启动时加载
func (s *Service) ListEnabledJobs(ctx context.Context) ([]models.CleaningJob, error) {
	if s.db == nil {
		return nil, nil
	}

	var jobs []models.CleaningJob
	if err := s.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("查询启用任务失败: %w", err)
	}
	return jobs, nil
}

// DeleteJob 删除任务并移除调度条目，已有运行记录保留
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrPersistenceDisabled
	}

	result := s.db.WithContext(ctx).Delete(&models.CleaningJob{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("删除清洗任务失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	if s.scheduler != nil {
		s.scheduler.RemoveJob(id)
	}
	slog.Info("删除清洗任务", "job_id", id)
	return nil
}

// RunJob 按任务配置执行一次运行，由调度器触发
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	if s.db == nil {
		return ErrPersistenceDisabled
	}

	var job models.CleaningJob
	if err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("查询清洗任务失败: %w", err)
	}

	_, err := s.Run(ctx, &models.CleaningRequest{
		JobID:       job.ID,
		TriggerType: models.TriggerScheduled,
		ConfigPath:  job.ConfigPath,
	})
	return err
}
