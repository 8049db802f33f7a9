package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/report"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

// 请求中未指定的参数使用配置中的默认值
type optimizationRequest struct {
	PopulationSize *int32   `json:"populationSize" validate:"omitempty,min=2"`
	Generations    *int32   `json:"generations" validate:"omitempty,min=1"`
	TournamentSize *int32   `json:"tournamentSize" validate:"omitempty,min=1"`
	CrossoverRate  *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	ElitismRate    *float64 `json:"elitismRate" validate:"omitempty,min=0,lt=1"`
	WaitWeight     *float64 `json:"waitWeight" validate:"omitempty,min=0"`
	Cities         []string `json:"cities" validate:"omitempty,unique,dive,required"`
	Hub            *string  `json:"hub" validate:"omitempty,min=1"`
	Seed           *int64   `json:"seed"`
	NotifyEmail    string   `json:"notifyEmail" validate:"omitempty,email"`
}

func (h *Handler) readOptimizationRequest(r *http.Request) (*domain.OptimizationParameters, string, error) {
	var req optimizationRequest

	if err := h.readJSON(r, &req); err != nil {
		return nil, "", err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, "", err
	}

	params := h.config.DefaultOptimizationParameters()
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.Generations != nil {
		params.Generations = *req.Generations
	}
	if req.TournamentSize != nil {
		params.TournamentSize = *req.TournamentSize
	}
	if req.CrossoverRate != nil {
		params.CrossoverRate = *req.CrossoverRate
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.ElitismRate != nil {
		params.ElitismRate = *req.ElitismRate
	}
	if req.WaitWeight != nil {
		params.WaitWeight = *req.WaitWeight
	}
	if len(req.Cities) > 0 {
		params.Cities = req.Cities
	}
	if req.Hub != nil {
		params.Hub = *req.Hub
	}
	if req.Seed != nil {
		params.Seed = *req.Seed
	}

	// 合并之后再检查参数之间的关系，例如锦标赛规模不能超过种群大小
	if err := utils.ValidateOptimizationParameters(&params); err != nil {
		return nil, "", err
	}

	return &params, req.NotifyEmail, nil
}

// Optimize 同步运行遗传算法，结果同样会保存为一条运行记录
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	params, notifyEmail, err := h.readOptimizationRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	flights, err := h.repository.GetAllFlights()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	start := time.Now()
	run := &domain.OptimizationRun{
		Status:      domain.OptimizationRunRunning,
		Parameters:  *params,
		NotifyEmail: notifyEmail,
	}
	if err := h.repository.CreateOptimizationRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	o, err := optimizer.New(&optimizer.Parameters{
		OptimizationParameters: *params,
		Workers:                h.config.Optimizer.Workers,
	}, flights)
	if err != nil {
		h.failOptimizationRun(w, r, run, err, start)
		return
	}

	res, err := o.Optimize()
	if err != nil {
		h.failOptimizationRun(w, r, run, err, start)
		return
	}

	run.Best = res.Best
	run.History = res.History
	if err := h.repository.CompleteOptimizationRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	metrics.ObserveRun(metrics.ModeSync, run, time.Since(start))

	h.successResponse(w, r, "优化完成", run)
}

func (h *Handler) failOptimizationRun(w http.ResponseWriter, r *http.Request, run *domain.OptimizationRun, cause error, start time.Time) {
	if err := h.repository.FailOptimizationRun(run, cause.Error()); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	metrics.ObserveRun(metrics.ModeSync, run, time.Since(start))

	if errors.Is(cause, optimizer.ErrEmptyCandidateSet) {
		h.errorResponse(w, r, cause.Error())
		return
	}
	h.internalServerError(w, r, cause)
}

// CreateOptimizationRun 只创建运行记录并投递任务，由 worker 异步运行
func (h *Handler) CreateOptimizationRun(w http.ResponseWriter, r *http.Request) {
	params, notifyEmail, err := h.readOptimizationRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	run := &domain.OptimizationRun{
		Status:      domain.OptimizationRunPending,
		Parameters:  *params,
		NotifyEmail: notifyEmail,
	}
	if err := h.repository.CreateOptimizationRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 序列化任务
	job, err := json.Marshal(domain.OptimizationJob{RunID: run.ID})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发送任务到消息队列中
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.jobChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         job,
		},
	); err != nil {
		// 任务没有投递成功，这条记录永远不会被运行
		if failErr := h.repository.FailOptimizationRun(run, "任务投递失败"); failErr != nil {
			h.logInternalServerError(r, failErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已提交优化任务", run)
}

func (h *Handler) GetAllOptimizationRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllOptimizationRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有运行记录成功", runs)
}

func (h *Handler) GetOptimizationRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(OptimizationRunCtx).(*domain.OptimizationRun)

	h.successResponse(w, r, "获取运行记录成功", run)
}

type historyPoint struct {
	Generation int     `json:"generation"`
	Fitness    float64 `json:"fitness"`
}

func (h *Handler) GetOptimizationRunHistory(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(OptimizationRunCtx).(*domain.OptimizationRun)

	history := make([]historyPoint, 0, len(run.History))
	for i, fitness := range run.History {
		history = append(history, historyPoint{
			Generation: i + 1,
			Fitness:    fitness,
		})
	}

	h.successResponse(w, r, "获取适应度历史成功", history)
}

func (h *Handler) GetOptimizationRunHistoryChart(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(OptimizationRunCtx).(*domain.OptimizationRun)

	if len(run.History) == 0 {
		h.errorResponse(w, r, "运行尚未完成，没有适应度历史")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := report.WriteHistoryPNG(w, run.History, fmt.Sprintf("Optimization run #%d", run.ID)); err != nil {
		// 响应头已经写出，只能记录错误
		h.logInternalServerError(r, err)
	}
}
