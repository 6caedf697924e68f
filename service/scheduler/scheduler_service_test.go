package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"datahub-cleanser/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	mu   sync.Mutex
	runs map[string]int
}

func (r *countingRunner) RunJob(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[jobID]++
	return nil
}

func (r *countingRunner) count(jobID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[jobID]
}

type staticSource struct {
	jobs []models.CleaningJob
	err  error
}

func (s staticSource) ListEnabledJobs(ctx context.Context) ([]models.CleaningJob, error) {
	return s.jobs, s.err
}

func TestValidateCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "每天凌晨两点", expr: "0 0 2 * * *"},
		{name: "每30秒", expr: "*/30 * * * * *"},
		{name: "描述符", expr: "@hourly"},
		{name: "5位表达式缺少秒", expr: "0 2 * * *", wantErr: true},
		{name: "非法字段", expr: "0 0 25 * * *", wantErr: true},
		{name: "空表达式", expr: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedulerService_StartAndRun(t *testing.T) {
	runner := &countingRunner{runs: make(map[string]int)}
	s := NewSchedulerService(runner)
	defer s.Stop()

	source := staticSource{jobs: []models.CleaningJob{
		{ID: "job-1", Name: "every-second", CronExpression: "* * * * * *", IsEnabled: true},
		{ID: "job-2", Name: "broken", CronExpression: "not cron", IsEnabled: true},
	}}
	require.NoError(t, s.Start(source))

	assert.Equal(t, 1, s.JobCount(), "无效表达式的任务不注册")
	assert.Eventually(t, func() bool { return runner.count("job-1") > 0 }, 3*time.Second, 50*time.Millisecond)

	next, ok := s.NextRun("job-1")
	assert.True(t, ok)
	assert.False(t, next.IsZero())
}

func TestSchedulerService_AddAndRemove(t *testing.T) {
	s := NewSchedulerService(&countingRunner{runs: make(map[string]int)})
	defer s.Stop()

	job := &models.CleaningJob{ID: "job-1", CronExpression: "0 0 2 * * *", IsEnabled: true}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.AddJob(job))
	assert.Equal(t, 1, s.JobCount(), "重复添加替换原条目")

	job.IsEnabled = false
	require.NoError(t, s.AddJob(job))
	assert.Equal(t, 0, s.JobCount(), "禁用任务被移除")

	job.IsEnabled = true
	job.CronExpression = "bad"
	assert.Error(t, s.AddJob(job))

	s.RemoveJob("absent")
	_, ok := s.NextRun("absent")
	assert.False(t, ok)
}

func TestSchedulerService_StartSourceError(t *testing.T) {
	s := NewSchedulerService(&countingRunner{runs: make(map[string]int)})
	defer s.Stop()

	err := s.Start(staticSource{err: errors.New("数据库不可用")})
	assert.Error(t, err)
}
