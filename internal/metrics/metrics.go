package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

var (
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itinerary_optimizer_runs_total",
		Help: "已结束的优化运行数量",
	}, []string{"mode", "status"})
	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "itinerary_optimizer_run_duration_seconds",
		Help:    "优化运行耗时",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"mode"})
	lastBestFitness = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "itinerary_optimizer_last_best_fitness",
		Help: "最近一次成功运行的最优适应度",
	}, []string{"mode"})
	jobsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "itinerary_optimizer_jobs_received_total",
		Help: "worker 收到的任务数量",
	})
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, lastBestFitness, jobsReceived)
}

// ObserveRun 记录一次已经结束的运行，失败的运行不更新最优适应度
func ObserveRun(mode string, run *domain.OptimizationRun, duration time.Duration) {
	runsTotal.WithLabelValues(mode, string(run.Status)).Inc()
	runDuration.WithLabelValues(mode).Observe(duration.Seconds())

	if run.Status == domain.OptimizationRunSucceeded && run.Best != nil {
		lastBestFitness.WithLabelValues(mode).Set(run.Best.Fitness)
	}
}

func JobReceived() {
	jobsReceived.Inc()
}
