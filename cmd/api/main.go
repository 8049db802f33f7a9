package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/config"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/handler"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 航班目录与运行记录 (postgres)
	 **********************************************/
	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}
	defer db.Close()

	repo := repository.NewRepository(cfg, db)

	/**********************************************
	 * 异步优化任务队列 (rabbitmq)
	 **********************************************/
	jobs, err := openJobQueue(cfg)
	if err != nil {
		logger.Error("无法打开优化任务队列", slog.String("queue", cfg.RabbitMQ.Queue), slog.String("error", err.Error()))
		return
	}
	defer jobs.Close()

	/**********************************************
	 * 运行结果缓存 (redis)，由 worker 写入
	 **********************************************/
	cache, err := openResultCache(cfg)
	if err != nil {
		logger.Error("无法连接到运行结果缓存", slog.String("error", err.Error()))
		return
	}
	defer cache.Close()

	/**********************************************
	 * 路由与 HTTP 服务器
	 **********************************************/
	h, err := handler.NewHandler(cfg, repo, jobs.ch, cache)
	if err != nil {
		logger.Error("无法创建 handler", slog.String("error", err.Error()))
		return
	}
	h.RegisterRoutes()

	srv := newServer(cfg, h.Mux, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("行程优化 API 正在启动...", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
		}
	}()

	<-quit
	logger.Info("正在关闭行程优化 API...")

	// 正在进行的同步优化请求会在超时之前完成
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("行程优化 API 已关闭")
}

func newServer(cfg *config.Config, mux http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
