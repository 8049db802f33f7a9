package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"` // 同步优化可能需要较长时间
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		// 登录令牌放在 cookie 中，跨域请求必须指定具体的来源
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	} `envPrefix:"SERVER_"`
	Metrics struct {
		Port string `env:"PORT" envDefault:"9091"` // 只用于 worker，api 直接在 /metrics 上暴露
	} `envPrefix:"METRICS_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Admin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplatePath string `env:"TEMPLATE_PATH" envDefault:"./templates/optimization_completed_email.html"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"optimization_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		ResultExpiration    int    `env:"RESULT_EXPIRATION" envDefault:"3600"` // 秒
	} `envPrefix:"REDIS_"`
	Optimizer OptimizerConfig `envPrefix:"OPTIMIZER_"`
}

// 遗传算法的默认参数，命令行工具不需要数据库等配置，可以单独加载
type OptimizerConfig struct {
	PopulationSize int32    `env:"POPULATION_SIZE" envDefault:"80"`
	Generations    int32    `env:"GENERATIONS" envDefault:"120"`
	TournamentSize int32    `env:"TOURNAMENT_SIZE" envDefault:"2"`
	CrossoverRate  float64  `env:"CROSSOVER_RATE" envDefault:"0.5"`
	MutationRate   float64  `env:"MUTATION_RATE" envDefault:"0.05"`
	ElitismRate    float64  `env:"ELITISM_RATE" envDefault:"0.05"`
	WaitWeight     float64  `env:"WAIT_WEIGHT" envDefault:"1"`
	Cities         []string `env:"CITIES" envSeparator:"," envDefault:"LIS,MAD,CDG,DUB,BRU,LHR"`
	Hub            string   `env:"HUB" envDefault:"FCO"`
	Seed           int64    `env:"SEED" envDefault:"0"`
	Workers        int      `env:"WORKERS" envDefault:"1"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

func LoadOptimizerConfig() (*OptimizerConfig, error) {
	cfg := &OptimizerConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "OPTIMIZER_"}); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// DefaultOptimizationParameters 返回配置中的默认遗传算法参数，请求中未指定的参数使用这里的值
func (cfg *Config) DefaultOptimizationParameters() domain.OptimizationParameters {
	return cfg.Optimizer.Parameters()
}

func (oc *OptimizerConfig) Parameters() domain.OptimizationParameters {
	cities := make([]string, len(oc.Cities))
	copy(cities, oc.Cities)

	return domain.OptimizationParameters{
		PopulationSize: oc.PopulationSize,
		Generations:    oc.Generations,
		TournamentSize: oc.TournamentSize,
		CrossoverRate:  oc.CrossoverRate,
		MutationRate:   oc.MutationRate,
		ElitismRate:    oc.ElitismRate,
		WaitWeight:     oc.WaitWeight,
		Cities:         cities,
		Hub:            oc.Hub,
		Seed:           oc.Seed,
	}
}
