/*
 * @module service/monitoring/metrics_collector
 * @description 清洗运行指标收集器，向 Prometheus 暴露运行次数、耗时、行数和各阶段统计
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 运行结束 -> 记录计数器/直方图 -> /metrics 抓取
 * @rules 标签取值有限(状态、触发方式、阶段名、错误类别)，不使用文件路径作为标签
 * @dependencies github.com/prometheus/client_golang
 * @refs service/cleaning_service.go, main.go
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "datahub_cleanser"

// MetricsCollector 指标收集器
type MetricsCollector struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	rowsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageRemoved  *prometheus.CounterVec
	stageChanged  *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器并注册到 registerer
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "清洗运行次数",
			},
			[]string{"status", "trigger"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "清洗运行耗时",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "加载与导出的行数",
			},
			[]string{"direction"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "各清洗阶段耗时",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"stage"},
		),
		stageRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_rows_removed_total",
				Help:      "各清洗阶段删除的行数",
			},
			[]string{"stage"},
		),
		stageChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_cells_changed_total",
				Help:      "各清洗阶段修改的单元格数",
			},
			[]string{"stage"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "按错误类别统计的失败次数",
			},
			[]string{"kind"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			mc.runsTotal,
			mc.runDuration,
			mc.rowsTotal,
			mc.stageDuration,
			mc.stageRemoved,
			mc.stageChanged,
			mc.failures,
		)
	}
	return mc
}

// RecordRun 记录一次运行结果
func (mc *MetricsCollector) RecordRun(status, trigger string, duration time.Duration, rowsLoaded, rowsExported int) {
	mc.runsTotal.WithLabelValues(status, trigger).Inc()
	mc.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	mc.rowsTotal.WithLabelValues("loaded").Add(float64(rowsLoaded))
	mc.rowsTotal.WithLabelValues("exported").Add(float64(rowsExported))
}

// RecordStage 记录单个阶段统计
func (mc *MetricsCollector) RecordStage(stage string, rowsIn, rowsOut, cellsChanged int, duration time.Duration) {
	mc.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if removed := rowsIn - rowsOut; removed > 0 {
		mc.stageRemoved.WithLabelValues(stage).Add(float64(removed))
	}
	if cellsChanged > 0 {
		mc.stageChanged.WithLabelValues(stage).Add(float64(cellsChanged))
	}
}

// RecordFailure 记录失败
func (mc *MetricsCollector) RecordFailure(kind string) {
	mc.failures.WithLabelValues(kind).Inc()
}
