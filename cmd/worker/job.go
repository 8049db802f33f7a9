package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/config"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/repository"
	"github.com/wneessen/go-mail"
)

type jobRunner struct {
	cfg         *config.Config
	repository  *repository.Repository
	redisClient *redis.Client
	mailClient  *mail.Client // 为 nil 时不发送通知
	tmpl        *template.Template
	logger      *slog.Logger
}

func decodeJob(body []byte) (*domain.OptimizationJob, error) {
	job := &domain.OptimizationJob{}
	if err := json.Unmarshal(body, job); err != nil {
		return nil, err
	}
	if job.RunID <= 0 {
		return nil, fmt.Errorf("无效的运行记录ID: %d", job.RunID)
	}

	return job, nil
}

func (jr *jobRunner) handle(msg amqp.Delivery) {
	metrics.JobReceived()

	job, err := decodeJob(msg.Body)
	if err != nil {
		jr.logger.Error("任务反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	run, err := jr.repository.GetOptimizationRun(job.RunID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			jr.logger.Error("运行记录不存在", slog.Int64("runID", job.RunID))
			_ = msg.Nack(false, false)
		default:
			jr.logger.Error("无法获取运行记录", slog.Int64("runID", job.RunID), slog.String("error", err.Error()))
			_ = msg.Nack(false, true) // 将消息重新入队
		}
		return
	}

	if err := jr.repository.MarkOptimizationRunRunning(run); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 说明这条记录已经运行过了，重复投递的消息直接确认
			jr.logger.Warn("运行记录不处于等待状态", slog.Int64("runID", run.ID), slog.String("status", string(run.Status)))
			_ = msg.Ack(false)
		default:
			jr.logger.Error("无法更新运行记录状态", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
			_ = msg.Nack(false, true)
		}
		return
	}

	if err := jr.run(run); err != nil {
		// 运行结果没能保存，重新入队也无法再次领取这条记录
		jr.logger.Error("无法保存运行结果", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	jr.cache(run)
	jr.notify(run)

	_ = msg.Ack(false)
}

// run 运行遗传算法并保存结果，算法本身的错误会记录在运行记录中
// 只有保存失败时才返回错误
func (jr *jobRunner) run(run *domain.OptimizationRun) error {
	start := time.Now()

	best, history, err := jr.optimize(run)
	if err != nil {
		jr.logger.Warn("优化失败", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		if failErr := jr.repository.FailOptimizationRun(run, err.Error()); failErr != nil {
			return failErr
		}
		metrics.ObserveRun(metrics.ModeAsync, run, time.Since(start))
		return nil
	}

	run.Best = best
	run.History = history
	if err := jr.repository.CompleteOptimizationRun(run); err != nil {
		return err
	}
	metrics.ObserveRun(metrics.ModeAsync, run, time.Since(start))

	jr.logger.Info("优化完成", slog.Int64("runID", run.ID), slog.Float64("fitness", best.Fitness), slog.Duration("duration", time.Since(start)))
	return nil
}

func (jr *jobRunner) optimize(run *domain.OptimizationRun) (*domain.Itinerary, []float64, error) {
	flights, err := jr.repository.GetAllFlights()
	if err != nil {
		return nil, nil, err
	}

	o, err := optimizer.New(&optimizer.Parameters{
		OptimizationParameters: run.Parameters,
		Workers:                jr.cfg.Optimizer.Workers,
	}, flights, optimizer.WithLogger(jr.logger))
	if err != nil {
		return nil, nil, err
	}

	res, err := o.Optimize()
	if err != nil {
		return nil, nil, err
	}

	return res.Best, res.History, nil
}

func (jr *jobRunner) cache(run *domain.OptimizationRun) {
	data, err := json.Marshal(run)
	if err != nil {
		jr.logger.Error("运行记录序列化失败", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(jr.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()

	expiration := time.Duration(jr.cfg.Redis.ResultExpiration) * time.Second
	if err := jr.redisClient.Set(ctx, domain.OptimizationRunCacheKey(run.ID), data, expiration).Err(); err != nil {
		jr.logger.Error("无法缓存运行记录", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
	}
}

// 通知发送失败不影响运行记录
func (jr *jobRunner) notify(run *domain.OptimizationRun) {
	if jr.mailClient == nil || run.NotifyEmail == "" {
		return
	}

	m, err := buildNotification(jr.cfg.Email.SMTP.Username, jr.tmpl, run)
	if err != nil {
		jr.logger.Error("无法构建邮件", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		return
	}

	if err := jr.mailClient.DialAndSend(m); err != nil {
		jr.logger.Error("邮件发送失败", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
		return
	}

	jr.logger.Info("已发送通知邮件", slog.Int64("runID", run.ID), slog.String("to", run.NotifyEmail))
}

func buildNotification(from string, tmpl *template.Template, run *domain.OptimizationRun) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(run.NotifyEmail); err != nil {
		return nil, err
	}

	data := domain.OptimizationCompletedMailData{
		RunID:      run.ID,
		Status:     string(run.Status),
		Itinerary:  run.Best,
		Error:      run.Error,
		Generation: len(run.History),
	}
	if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, err
	}

	switch run.Status {
	case domain.OptimizationRunSucceeded:
		m.Subject(fmt.Sprintf("行程优化 #%d - 已完成", run.ID))
	default:
		m.Subject(fmt.Sprintf("行程优化 #%d - 运行失败", run.ID))
	}

	return m, nil
}
