package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

func ValidateFlight(flight *domain.Flight) error {
	if flight.Origin == "" || flight.Destination == "" {
		return errors.New("航班的出发地和目的地不能为空")
	}
	if flight.Origin == flight.Destination {
		return fmt.Errorf("航班的出发地和目的地不能相同（%s）", flight.Origin)
	}
	if _, err := ClockToMinutes(flight.Departure); err != nil {
		return fmt.Errorf("起飞%w", err)
	}
	if _, err := ClockToMinutes(flight.Arrival); err != nil {
		return fmt.Errorf("到达%w", err)
	}
	if flight.Price < 0 {
		return fmt.Errorf("航班价格不能为负数（%d）", flight.Price)
	}

	return nil
}

func ValidateOptimizationParameters(p *domain.OptimizationParameters) error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("种群大小必须至少为 2（当前为 %d）", p.PopulationSize)
	}
	if p.Generations < 1 {
		return fmt.Errorf("迭代代数必须至少为 1（当前为 %d）", p.Generations)
	}
	if p.TournamentSize < 1 || p.TournamentSize > p.PopulationSize {
		return fmt.Errorf("锦标赛规模必须在 [1, %d] 之间（当前为 %d）", p.PopulationSize, p.TournamentSize)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("交叉概率必须在 [0, 1] 之间（当前为 %f）", p.CrossoverRate)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("变异概率必须在 [0, 1] 之间（当前为 %f）", p.MutationRate)
	}
	// 精英比例为 1 时不会产生任何子代
	if p.ElitismRate < 0 || p.ElitismRate >= 1 {
		return fmt.Errorf("精英比例必须在 [0, 1) 之间（当前为 %f）", p.ElitismRate)
	}
	if p.WaitWeight < 0 {
		return fmt.Errorf("等待时间权重不能为负数（当前为 %f）", p.WaitWeight)
	}
	if len(p.Cities) == 0 {
		return errors.New("至少需要一个出发城市")
	}
	if p.Hub == "" {
		return errors.New("中转枢纽不能为空")
	}

	seen := make(map[string]bool)
	for _, city := range p.Cities {
		if city == p.Hub {
			return fmt.Errorf("出发城市 %s 不能和中转枢纽相同", city)
		}
		if seen[city] {
			return fmt.Errorf("出发城市 %s 重复", city)
		}
		seen[city] = true
	}

	return nil
}

// ValidateItinerary 检查行程是否满足槽位约束：
// 第 k 组的去程从城市 k 出发，回程从枢纽飞回城市 k
func ValidateItinerary(itinerary *domain.Itinerary, cities []string, hub string) error {
	if itinerary.Hub != hub {
		return fmt.Errorf("行程的中转枢纽 %s 与要求的 %s 不一致", itinerary.Hub, hub)
	}
	if len(itinerary.Legs) != len(cities) {
		return fmt.Errorf("行程包含 %d 个城市，要求 %d 个", len(itinerary.Legs), len(cities))
	}

	totalCost := 0
	totalWait := 0
	for i, leg := range itinerary.Legs {
		if leg.City != cities[i] {
			return fmt.Errorf("第 %d 组往返的城市应为 %s，实际为 %s", i+1, cities[i], leg.City)
		}
		if leg.Outbound.Origin != leg.City {
			return fmt.Errorf("城市 %s 的去程从 %s 出发", leg.City, leg.Outbound.Origin)
		}
		if leg.Return.Origin != hub || leg.Return.Destination != leg.City {
			return fmt.Errorf("城市 %s 的回程航线 %s-%s 不合法", leg.City, leg.Return.Origin, leg.Return.Destination)
		}
		if leg.WaitMinutes < 0 || leg.WaitMinutes >= MinutesPerDay {
			return fmt.Errorf("城市 %s 的等待时间 %d 分钟不合法", leg.City, leg.WaitMinutes)
		}
		totalCost += leg.Outbound.Price + leg.Return.Price
		totalWait += leg.WaitMinutes
	}

	if totalCost != itinerary.TotalCost || totalWait != itinerary.TotalWait {
		return errors.New("行程的总价或总等待时间与各航段不一致")
	}

	return nil
}
