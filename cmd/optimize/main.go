package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/config"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/report"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/seed"
)

// 在本地对航班文件运行一次遗传算法，不需要数据库和消息队列
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// 环境变量中的参数作为命令行参数的默认值
	cfg, err := config.LoadOptimizerConfig()
	if err != nil {
		logger.Error("无法读取配置", slog.String("error", err.Error()))
		os.Exit(1)
	}
	params := cfg.Parameters()

	var file string
	var cities string
	var workers int
	var populationSize, generations, tournamentSize int
	var quiet bool
	var plotPath string

	flag.StringVar(&file, "file", seed.DefaultFlightsFile, "航班文件")
	flag.IntVar(&populationSize, "population", int(params.PopulationSize), "种群大小")
	flag.IntVar(&generations, "generations", int(params.Generations), "迭代代数")
	flag.IntVar(&tournamentSize, "tournament", int(params.TournamentSize), "锦标赛规模")
	flag.Float64Var(&params.CrossoverRate, "crossover", params.CrossoverRate, "交叉概率")
	flag.Float64Var(&params.MutationRate, "mutation", params.MutationRate, "变异概率")
	flag.Float64Var(&params.ElitismRate, "elitism", params.ElitismRate, "精英比例")
	flag.Float64Var(&params.WaitWeight, "wait-weight", params.WaitWeight, "等待分钟数相对票价的权重")
	flag.StringVar(&cities, "cities", strings.Join(params.Cities, ","), "出发城市，用逗号分隔")
	flag.StringVar(&params.Hub, "hub", params.Hub, "中转枢纽")
	flag.Int64Var(&params.Seed, "seed", params.Seed, "随机数种子，为 0 时使用当前时间")
	flag.IntVar(&workers, "workers", cfg.Workers, "并行计算适应度的 goroutine 数量")
	flag.BoolVar(&quiet, "quiet", false, "不输出每一代的适应度")
	flag.StringVar(&plotPath, "plot", "", "将适应度历史画成 PNG 图片保存到指定路径")
	flag.Parse()

	params.PopulationSize = int32(populationSize)
	params.Generations = int32(generations)
	params.TournamentSize = int32(tournamentSize)
	params.Cities = splitCities(cities)

	/**********************************************
	 * 读取航班
	 **********************************************/
	flights, skipped, err := catalog.ReadFlightsFile(file)
	if err != nil {
		logger.Error("无法读取航班文件", slog.String("file", file), slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, err := range skipped {
		logger.Warn("跳过格式错误的记录", slog.String("error", err.Error()))
	}

	/**********************************************
	 * 运行遗传算法
	 **********************************************/
	o, err := optimizer.New(&optimizer.Parameters{
		OptimizationParameters: params,
		Workers:                workers,
	}, flights, optimizer.WithLogger(logger))
	if err != nil {
		logger.Error("无法创建优化器", slog.String("error", err.Error()))
		os.Exit(1)
	}

	res, err := o.Optimize()
	if err != nil {
		logger.Error("优化失败", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if !quiet {
		for i, fitness := range res.History {
			fmt.Printf("第 %d 代: %.2f\n", i+1, fitness)
		}
		fmt.Println()
	}
	printItinerary(res.Best)

	if plotPath != "" {
		if err := report.SaveHistoryPNG(plotPath, res.History, "Best fitness per generation"); err != nil {
			logger.Error("无法保存适应度历史图", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("已保存适应度历史图", slog.String("path", plotPath))
	}
}

func splitCities(s string) []string {
	cities := []string{}
	for _, city := range strings.Split(s, ",") {
		if city = strings.TrimSpace(city); city != "" {
			cities = append(cities, city)
		}
	}
	return cities
}

func printItinerary(it *domain.Itinerary) {
	fmt.Printf("最优行程（枢纽 %s）\n", it.Hub)
	for _, leg := range it.Legs {
		fmt.Printf("%-4s 去程 %s→%s %s-%s %4d  回程 %s→%s %s-%s %4d  等待 %d 分钟\n",
			leg.City,
			leg.Outbound.Origin, leg.Outbound.Destination, leg.Outbound.Departure, leg.Outbound.Arrival, leg.Outbound.Price,
			leg.Return.Origin, leg.Return.Destination, leg.Return.Departure, leg.Return.Arrival, leg.Return.Price,
			leg.WaitMinutes,
		)
	}
	fmt.Printf("总票价: %d  总等待: %d 分钟  适应度: %.2f\n", it.TotalCost, it.TotalWait, it.Fitness)
}
