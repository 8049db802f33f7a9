package optimizer

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

var ErrEmptyCandidateSet = errors.New("没有满足条件的候选航班")

type Optimizer struct {
	parameters     *Parameters
	catalog        *catalog.Catalog
	slotCandidates [][]*Gene // 每个槽位可以选择的航班
	indices        []int     // 锦标赛选择用的下标缓冲区
	rng            *rand.Rand
	logger         *slog.Logger
}

type Option func(*Optimizer)

// WithRand 指定随机数生成器，同一个生成器不能在多个 Optimizer 之间共享
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) {
		o.rng = rng
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = logger
	}
}

func New(parameters *Parameters, flights []*domain.Flight, opts ...Option) (*Optimizer, error) {
	if err := utils.ValidateOptimizationParameters(&parameters.OptimizationParameters); err != nil {
		return nil, err
	}

	o := &Optimizer{
		parameters: parameters,
		catalog:    catalog.New(flights),
		indices:    make([]int, parameters.PopulationSize),
		logger:     slog.Default(),
	}
	for i := range o.indices {
		o.indices[i] = i
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.rng == nil {
		seed := parameters.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		o.rng = rand.New(rand.NewSource(seed))
	}

	// 同一个航班在多个槽位中共用同一个 Gene
	genes := make(map[*domain.Flight]*Gene, o.catalog.Len())
	for _, flight := range o.catalog.Flights() {
		departure, err := utils.ClockToMinutes(flight.Departure)
		if err != nil {
			return nil, fmt.Errorf("航班 %s-%s: %w", flight.Origin, flight.Destination, err)
		}
		arrival, err := utils.ClockToMinutes(flight.Arrival)
		if err != nil {
			return nil, fmt.Errorf("航班 %s-%s: %w", flight.Origin, flight.Destination, err)
		}
		genes[flight] = &Gene{flight: flight, departure: departure, arrival: arrival}
	}

	toGenes := func(flights []*domain.Flight) []*Gene {
		res := make([]*Gene, len(flights))
		for i, flight := range flights {
			res[i] = genes[flight]
		}
		return res
	}

	o.slotCandidates = make([][]*Gene, 0, 2*len(parameters.Cities))
	for _, city := range parameters.Cities {
		outbound := toGenes(o.catalog.ByOrigin(city))
		if len(outbound) == 0 {
			return nil, fmt.Errorf("%w: 没有从 %s 出发的航班", ErrEmptyCandidateSet, city)
		}

		inbound := toGenes(o.catalog.Route(parameters.Hub, city))
		if len(inbound) == 0 {
			return nil, fmt.Errorf("%w: 没有从 %s 飞往 %s 的航班", ErrEmptyCandidateSet, parameters.Hub, city)
		}

		o.slotCandidates = append(o.slotCandidates, outbound, inbound)
	}

	return o, nil
}

func (o *Optimizer) Optimize() (*Result, error) {
	size := int(o.parameters.PopulationSize)
	start := time.Now()

	o.logger.Info("开始优化行程",
		"cities", o.parameters.Cities,
		"hub", o.parameters.Hub,
		"flights", o.catalog.Len(),
		"populationSize", size,
		"generations", o.parameters.Generations,
	)

	// 生成初始种群
	pop := make([]*Chromosome, size)
	for i := range pop {
		pop[i] = o.randomInitChromosome()
	}
	o.evaluate(pop)

	history := make([]float64, 0, o.parameters.Generations)

	for gen := 0; gen < int(o.parameters.Generations); gen++ {
		newPop, err := o.nextGeneration(pop)
		if err != nil {
			return nil, err
		}
		pop = newPop

		genBest := bestOf(pop)
		history = append(history, genBest.fitness)
		o.logger.Debug("完成一代迭代", "generation", gen, "bestFitness", genBest.fitness)
	}

	best := bestOf(pop)
	itinerary := o.toItinerary(best)

	// 还需要检查一下结果是否满足槽位约束
	if err := utils.ValidateItinerary(itinerary, o.parameters.Cities, o.parameters.Hub); err != nil {
		return nil, err
	}

	o.logger.Info("行程优化完成", "fitness", best.fitness, "duration", time.Since(start))

	return &Result{
		Best:    itinerary,
		History: history,
	}, nil
}

// nextGeneration 由当前种群产生下一代种群，返回的种群已经计算好适应度
func (o *Optimizer) nextGeneration(pop []*Chromosome) ([]*Chromosome, error) {
	size := int(o.parameters.PopulationSize)
	eliteCount := o.parameters.eliteCount()

	newPop := make([]*Chromosome, 0, size)

	// 保留精英，适应度相同时保持原有顺序
	ranked := make([]*Chromosome, size)
	copy(ranked, pop)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].fitness < ranked[j].fitness
	})
	for _, elite := range ranked[:eliteCount] {
		newPop = append(newPop, elite.clone())
	}

	// 剩余位置由选择、交叉、变异产生的子代填满
	for len(newPop) < size {
		p1 := o.selectByTournament(pop)
		p2 := o.selectByTournament(pop)

		var c1, c2 *Chromosome
		if o.rng.Float64() < o.parameters.CrossoverRate {
			c1, c2 = o.singlePointCrossover(p1, p2)
		} else {
			c1, c2 = p1.clone(), p2.clone()
		}

		if o.rng.Float64() < o.parameters.MutationRate {
			if err := o.mutate(c1); err != nil {
				return nil, err
			}
		}
		if o.rng.Float64() < o.parameters.MutationRate {
			if err := o.mutate(c2); err != nil {
				return nil, err
			}
		}

		newPop = append(newPop, c1)

		// 只剩一个空位时丢弃第二个子代，保证种群大小不变
		if len(newPop) < size {
			newPop = append(newPop, c2)
		}
	}

	o.evaluate(newPop)
	return newPop, nil
}

func (o *Optimizer) toItinerary(ch *Chromosome) *domain.Itinerary {
	itinerary := &domain.Itinerary{
		Hub:     o.parameters.Hub,
		Legs:    make([]domain.ItineraryLeg, 0, len(o.parameters.Cities)),
		Fitness: ch.fitness,
	}

	for k, city := range o.parameters.Cities {
		outbound := ch.genes[2*k]
		inbound := ch.genes[2*k+1]
		wait := utils.LayoverMinutes(outbound.arrival, inbound.departure)

		itinerary.Legs = append(itinerary.Legs, domain.ItineraryLeg{
			City:        city,
			Outbound:    *outbound.flight,
			Return:      *inbound.flight,
			WaitMinutes: wait,
		})
		itinerary.TotalCost += outbound.flight.Price + inbound.flight.Price
		itinerary.TotalWait += wait
	}

	return itinerary
}
