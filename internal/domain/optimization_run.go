package domain

import (
	"fmt"
	"time"
)

type OptimizationRunStatus string

const (
	OptimizationRunPending   OptimizationRunStatus = "pending"
	OptimizationRunRunning   OptimizationRunStatus = "running"
	OptimizationRunSucceeded OptimizationRunStatus = "succeeded"
	OptimizationRunFailed    OptimizationRunStatus = "failed"
)

// 遗传算法参数，会随运行记录一起持久化
type OptimizationParameters struct {
	PopulationSize int32    `json:"populationSize"` // 种群大小
	Generations    int32    `json:"generations"`    // 迭代代数
	TournamentSize int32    `json:"tournamentSize"` // 锦标赛规模
	CrossoverRate  float64  `json:"crossoverRate"`  // 交叉概率
	MutationRate   float64  `json:"mutationRate"`   // 变异概率
	ElitismRate    float64  `json:"elitismRate"`    // 精英比例
	WaitWeight     float64  `json:"waitWeight"`     // 等待分钟数相对票价的权重
	Cities         []string `json:"cities"`         // 出发城市，顺序决定行程中的槽位
	Hub            string   `json:"hub"`            // 中转枢纽
	Seed           int64    `json:"seed"`           // 为 0 时使用当前时间
}

type OptimizationRun struct {
	ID          int64                  `json:"id"`
	Status      OptimizationRunStatus  `json:"status"`
	Parameters  OptimizationParameters `json:"parameters"`
	Best        *Itinerary             `json:"best"`
	History     []float64              `json:"history"`
	Error       string                 `json:"error"`
	NotifyEmail string                 `json:"notifyEmail"`
	CreatedAt   time.Time              `json:"createdAt"`
	FinishedAt  *time.Time             `json:"finishedAt"`
	Version     int32                  `json:"-"`
}

// 投递到 optimization_queue 的任务
type OptimizationJob struct {
	RunID int64 `json:"runID"`
}

// 已经结束的运行记录会缓存在 redis 中
func OptimizationRunCacheKey(id int64) string {
	return fmt.Sprintf("optimization_run_%d", id)
}
