package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/config"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	validate          *validator.Validate
	config            *config.Config
	repository        *repository.Repository
	translator        ut.Translator
	jobChannel        *amqp.Channel
	redisClient       *redis.Client
	adminPasswordHash []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, jobCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 管理员只有一个，密码来自配置，启动时计算一次哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:          validate,
		config:            cfg,
		repository:        repo,
		translator:        trans,
		jobChannel:        jobCh,
		redisClient:       rdb,
		adminPasswordHash: hash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.New(cors.Options{
		AllowedOrigins: h.config.Server.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/flights", func(r chi.Router) {
			r.Get("/", h.GetFlights)
			r.Post("/", h.CreateFlight)
			r.Delete("/", h.DeleteAllFlights)
			r.Post("/import", h.ImportFlights)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.flight)
				r.Get("/", h.GetFlight)
				r.Delete("/", h.DeleteFlight)
			})
		})

		// 同步运行，请求会一直等到算法结束
		r.Post("/optimizations", h.Optimize)

		r.Route("/optimization-runs", func(r chi.Router) {
			r.Post("/", h.CreateOptimizationRun)
			r.Get("/", h.GetAllOptimizationRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.optimizationRun)
				r.Get("/", h.GetOptimizationRun)
				r.Get("/history", h.GetOptimizationRunHistory)
				r.Get("/history.png", h.GetOptimizationRunHistoryChart)
			})
		})
	})
}
