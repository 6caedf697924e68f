/*
 * @module service/models/cleaning_run
 * @description 清洗运行记录与定时清洗任务模型
 * @architecture 数据模型层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 创建运行记录(running) -> 流水线执行 -> 更新为 success/failed
 * @rules 运行记录只追加不修改历史，任务删除不影响已有运行记录
 * @dependencies gorm.io/gorm, github.com/google/uuid, time
 * @refs service/cleaning_service.go, service/scheduler
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 运行状态
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// 触发方式
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

// CleaningRun 清洗运行记录
type CleaningRun struct {
	ID           string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	JobID        string     `gorm:"type:varchar(50);index" json:"job_id,omitempty"`
	TriggerType  string     `gorm:"type:varchar(20);not null" json:"trigger_type"`
	Source       string     `gorm:"type:varchar(500);not null" json:"source"`
	Destination  string     `gorm:"type:varchar(500)" json:"destination"`
	Status       string     `gorm:"type:varchar(20);not null;index" json:"status"`
	RowsLoaded   int64      `json:"rows_loaded"`
	RowsExported int64      `json:"rows_exported"`
	StageStats   JSONBArray `gorm:"type:jsonb" json:"stage_stats"`
	NullCounts   JSONB      `gorm:"type:jsonb" json:"null_counts"`
	ErrorKind    string     `gorm:"type:varchar(50)" json:"error_kind,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Duration     int64      `json:"duration"` // 毫秒
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (CleaningRun) TableName() string {
	return "cleaning_runs"
}

// BeforeCreate 创建前钩子
func (r *CleaningRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// CleaningJob 定时清洗任务
type CleaningJob struct {
	ID             string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name           string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	ConfigPath     string     `gorm:"type:varchar(500);not null" json:"config_path"`
	CronExpression string     `gorm:"type:varchar(100);not null" json:"cron_expression"` // 6位，含秒
	IsEnabled      bool       `gorm:"default:true" json:"is_enabled"`
	LastRunID      string     `gorm:"type:varchar(50)" json:"last_run_id,omitempty"`
	LastRunTime    *time.Time `json:"last_run_time,omitempty"`
	LastRunStatus  string     `gorm:"type:varchar(20)" json:"last_run_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (CleaningJob) TableName() string {
	return "cleaning_jobs"
}

// BeforeCreate 创建前钩子
func (j *CleaningJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}

// CleaningRequest 执行清洗请求
type CleaningRequest struct {
	JobID       string          `json:"job_id,omitempty"`
	TriggerType string          `json:"trigger_type,omitempty"`
	ConfigPath  string          `json:"config_path,omitempty" example:"configs/cleansing.yaml"`
	Config      *PipelineConfig `json:"config,omitempty"`
	Source      string          `json:"source,omitempty" example:"data/raw/raw_data.csv"`
	Destination string          `json:"destination,omitempty" example:"data/clean/clean_data.csv"`
}

// CreateCleaningJobRequest 创建定时清洗任务请求
type CreateCleaningJobRequest struct {
	Name           string `json:"name" example:"daily_customer_clean"`
	ConfigPath     string `json:"config_path" example:"configs/cleansing.yaml"`
	CronExpression string `json:"cron_expression" example:"0 0 2 * * *"`
	IsEnabled      *bool  `json:"is_enabled,omitempty"`
}

// CleaningRunEvent 清洗运行完成事件
type CleaningRunEvent struct {
	RunID        string    `json:"run_id"`
	JobID        string    `json:"job_id,omitempty"`
	Status       string    `json:"status"`
	Source       string    `json:"source"`
	Destination  string    `json:"destination"`
	RowsLoaded   int64     `json:"rows_loaded"`
	RowsExported int64     `json:"rows_exported"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}
