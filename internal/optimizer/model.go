package optimizer

import "github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"

// Gene: 行程中的一个槽位所选的航班，起降时间在构建时就解析为分钟
type Gene struct {
	flight    *domain.Flight
	departure int
	arrival   int
}

// Chromosome: 一条完整的往返行程
// 第 2k 位为城市 k 的去程，第 2k+1 位为城市 k 的回程，槽位含义在整个运行过程中保持不变
type Chromosome struct {
	genes   []*Gene
	fitness float64
}

func (ch *Chromosome) clone() *Chromosome {
	genes := make([]*Gene, len(ch.genes))
	copy(genes, ch.genes) // Gene 不可变，浅拷贝即可

	return &Chromosome{
		genes:   genes,
		fitness: ch.fitness,
	}
}

// 遗传算法参数
type Parameters struct {
	domain.OptimizationParameters
	Workers int // 并行计算适应度的 goroutine 数量，不大于 1 时串行计算
}

func (p *Parameters) eliteCount() int {
	return int(p.ElitismRate * float64(p.PopulationSize))
}

type Result struct {
	Best    *domain.Itinerary
	History []float64 // 每一代种群中的最优适应度
}
