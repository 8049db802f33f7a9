package optimizer

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

// randomInitChromosome 随机初始化一个染色体
// 按城市顺序，先随机选出该城市的去程，再随机选出飞回该城市的回程
func (o *Optimizer) randomInitChromosome() *Chromosome {
	genes := make([]*Gene, len(o.slotCandidates))

	for slot, candidates := range o.slotCandidates {
		genes[slot] = candidates[o.rng.Intn(len(candidates))]
	}

	return &Chromosome{
		genes: genes,
	}
}

/**
 * 计算染色体的适应度，越小越好
 * fitness = totalCost + WaitWeight * totalWait
 * 其中:
 * 		1. totalCost 为所有航班的票价之和
 * 		2. totalWait 为每个城市在枢纽等待回程的分钟数之和
 * 		3. WaitWeight 默认为 1，即票价和分钟直接相加
 */
func (o *Optimizer) calcFitness(ch *Chromosome) {
	totalCost := 0
	for _, gene := range ch.genes {
		totalCost += gene.flight.Price
	}

	totalWait := 0
	for i := 0; i+1 < len(ch.genes); i += 2 {
		totalWait += utils.LayoverMinutes(ch.genes[i].arrival, ch.genes[i+1].departure)
	}

	ch.fitness = float64(totalCost) + o.parameters.WaitWeight*float64(totalWait)
}

// evaluate 重新计算整个种群的适应度
// 适应度之间互不依赖，Workers 大于 1 时交给 goroutine 池并行计算
func (o *Optimizer) evaluate(pop []*Chromosome) {
	if o.parameters.Workers <= 1 {
		for _, ch := range pop {
			o.calcFitness(ch)
		}
		return
	}

	p := pool.New().WithMaxGoroutines(o.parameters.Workers)
	for _, ch := range pop {
		p.Go(func() {
			o.calcFitness(ch)
		})
	}
	p.Wait()
}

// 锦标赛选择：不放回地抽取 TournamentSize 个个体，返回其中适应度最小的
func (o *Optimizer) selectByTournament(pop []*Chromosome) *Chromosome {
	// indices 是一个排列即可，不需要每次复位
	indices := o.indices
	n := len(indices)

	var best *Chromosome
	for i := 0; i < int(o.parameters.TournamentSize); i++ {
		j := i + o.rng.Intn(n-i)
		indices[i], indices[j] = indices[j], indices[i]

		candidate := pop[indices[i]]
		if best == nil || candidate.fitness < best.fitness {
			best = candidate
		}
	}

	return best
}

// 单点交叉，切点在 [1, length-1) 中均匀选取
// 槽位含义是按位置固定的，所以交叉后的子代一定满足槽位约束
// 父代不会被修改
func (o *Optimizer) singlePointCrossover(ch1 *Chromosome, ch2 *Chromosome) (*Chromosome, *Chromosome) {
	length := len(ch1.genes)

	point := 1
	if length > 2 {
		point = 1 + o.rng.Intn(length-2)
	}

	child1 := &Chromosome{genes: make([]*Gene, length)}
	child2 := &Chromosome{genes: make([]*Gene, length)}

	copy(child1.genes[:point], ch1.genes[:point])
	copy(child1.genes[point:], ch2.genes[point:])
	copy(child2.genes[:point], ch2.genes[:point])
	copy(child2.genes[point:], ch1.genes[point:])

	return child1, child2
}

// 变异：随机选一个槽位，换成同一出发地（回程还要求同一目的地）的另一个随机航班
func (o *Optimizer) mutate(ch *Chromosome) error {
	slot := o.rng.Intn(len(ch.genes))

	candidates := o.slotCandidates[slot]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: 槽位 %d（出发地 %s）", ErrEmptyCandidateSet, slot, ch.genes[slot].flight.Origin)
	}

	ch.genes[slot] = candidates[o.rng.Intn(len(candidates))]
	return nil
}

func bestOf(pop []*Chromosome) *Chromosome {
	best := pop[0]
	for _, ch := range pop[1:] {
		if ch.fitness < best.fitness {
			best = ch
		}
	}
	return best
}
