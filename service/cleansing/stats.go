/*
 * @module service/cleansing/stats
 * @description 清洗阶段共用的统计函数：均值、总体标准差、分位数、众数
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 收集非空值 -> 排序 -> 计算统计量
 * @rules 分位数按 rank = p*(n-1) 线性插值；众数并列时取最小值
 * @dependencies math, sort
 * @refs missing_resolver.go, outlier_filter.go, normalizer.go
 */

package cleansing

import (
	"math"
	"sort"

	"datahub-cleanser/service/models"
)

// numericValues 收集列中的非空数值
func numericValues(table *models.Table, col int) []float64 {
	values := make([]float64, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row[col].Kind == models.KindNumber {
			values = append(values, row[col].Num)
		}
	}
	return values
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// populationStd 总体标准差
func populationStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := mean(x)
	sum := 0.0
	for _, v := range x {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(x)))
}

func median(x []float64) float64 {
	return quantile(x, 0.5)
}

// quantile 线性插值分位数，rank = p*(n-1)
func quantile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func minMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// modeNumber 出现次数最多的数值，并列时取最小值
func modeNumber(x []float64) (float64, bool) {
	if len(x) == 0 {
		return 0, false
	}
	counts := make(map[float64]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	best, bestCount := 0.0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, true
}

// modeString 出现次数最多的字符串，并列时取字典序最小值
func modeString(x []string) (string, bool) {
	if len(x) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, true
}
