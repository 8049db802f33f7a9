package optimizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

func singleCityParameters() *Parameters {
	params := testParameters()
	params.PopulationSize = 4
	params.Generations = 1
	params.Cities = []string{"LIS"}
	return params
}

func TestCalcFitness_WaitWrapsToNextDay(t *testing.T) {
	flights := []*domain.Flight{
		flight("LIS", testHub, "21:00", "23:50", 0),
		flight(testHub, "LIS", "00:10", "02:30", 0),
	}
	o := newTestOptimizer(t, singleCityParameters(), flights)

	ch := o.randomInitChromosome()
	o.calcFitness(ch)

	require.Equal(t, 20.0, ch.fitness)
}

func TestCalcFitness_WaitSameDay(t *testing.T) {
	flights := []*domain.Flight{
		flight("LIS", testHub, "07:00", "10:00", 100),
		flight(testHub, "LIS", "14:30", "16:40", 120),
	}
	o := newTestOptimizer(t, singleCityParameters(), flights)

	ch := o.randomInitChromosome()
	o.calcFitness(ch)

	require.Equal(t, 100.0+120.0+270.0, ch.fitness)
}

func TestCalcFitness_WaitWeight(t *testing.T) {
	flights := []*domain.Flight{
		flight("LIS", testHub, "07:00", "10:00", 100),
		flight(testHub, "LIS", "14:30", "16:40", 120),
	}
	params := singleCityParameters()
	params.WaitWeight = 0.5
	o := newTestOptimizer(t, params, flights)

	ch := o.randomInitChromosome()
	o.calcFitness(ch)

	require.Equal(t, 220.0+135.0, ch.fitness)
}

func TestCalcFitness_NonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	flights := randomCatalog(rng, testCities, testHub, 8)
	o := newTestOptimizer(t, testParameters(), flights)

	for _, ch := range newTestPopulation(o) {
		require.GreaterOrEqual(t, ch.fitness, 0.0)
	}
}

func TestRandomInitChromosome_SlotInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	flights := randomCatalog(rng, testCities, testHub, 5)
	// 从枢纽飞往非目标城市的航班不能出现在回程槽位中
	flights = append(flights, flight(testHub, "AMS", "10:00", "12:00", 1))
	o := newTestOptimizer(t, testParameters(), flights)

	for i := 0; i < 200; i++ {
		requireSlotInvariant(t, o.randomInitChromosome(), testCities, testHub)
	}
}

func TestSinglePointCrossover_PreservesSlots(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	flights := randomCatalog(rng, testCities, testHub, 6)
	o := newTestOptimizer(t, testParameters(), flights)

	for i := 0; i < 500; i++ {
		p1 := o.randomInitChromosome()
		p2 := o.randomInitChromosome()

		c1, c2 := o.singlePointCrossover(p1, p2)

		requireSlotInvariant(t, c1, testCities, testHub)
		requireSlotInvariant(t, c2, testCities, testHub)

		// 每个位置上两个子代的基因恰好是两个父代的基因
		for slot := range c1.genes {
			require.ElementsMatch(t,
				[]*Gene{p1.genes[slot], p2.genes[slot]},
				[]*Gene{c1.genes[slot], c2.genes[slot]},
			)
		}
	}
}

func TestSinglePointCrossover_CutPointRange(t *testing.T) {
	// 每个槽位只有唯一的基因编号，方便找出切点
	o := &Optimizer{rng: rand.New(rand.NewSource(5))}
	const length = 12

	p1 := &Chromosome{genes: make([]*Gene, length)}
	p2 := &Chromosome{genes: make([]*Gene, length)}
	for i := 0; i < length; i++ {
		p1.genes[i] = &Gene{}
		p2.genes[i] = &Gene{}
	}

	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		c1, _ := o.singlePointCrossover(p1, p2)

		cut := length
		for slot := range c1.genes {
			if c1.genes[slot] == p2.genes[slot] {
				cut = slot
				break
			}
		}
		require.GreaterOrEqual(t, cut, 1)
		require.Less(t, cut, length-1)
		seen[cut] = true
	}
	require.Len(t, seen, length-2)
}

func TestSinglePointCrossover_DoesNotModifyParents(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	flights := randomCatalog(rng, testCities, testHub, 4)
	o := newTestOptimizer(t, testParameters(), flights)

	p1 := o.randomInitChromosome()
	p2 := o.randomInitChromosome()
	before1 := p1.clone()
	before2 := p2.clone()

	o.singlePointCrossover(p1, p2)

	require.Equal(t, before1.genes, p1.genes)
	require.Equal(t, before2.genes, p2.genes)
}

func TestMutate_PreservesOrigin(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	flights := randomCatalog(rng, testCities, testHub, 6)
	o := newTestOptimizer(t, testParameters(), flights)

	for i := 0; i < 500; i++ {
		ch := o.randomInitChromosome()
		before := ch.clone()

		require.NoError(t, o.mutate(ch))

		changed := 0
		for slot := range ch.genes {
			require.Equal(t, before.genes[slot].flight.Origin, ch.genes[slot].flight.Origin)
			if ch.genes[slot] != before.genes[slot] {
				changed++
			}
		}
		require.LessOrEqual(t, changed, 1)
		requireSlotInvariant(t, ch, testCities, testHub)
	}
}

func TestMutate_EmptyCandidateSet(t *testing.T) {
	o := &Optimizer{
		rng:            rand.New(rand.NewSource(1)),
		slotCandidates: [][]*Gene{{}},
	}
	ch := &Chromosome{genes: []*Gene{{flight: flight("LIS", testHub, "08:00", "10:00", 1)}}}

	err := o.mutate(ch)
	require.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func TestSelectByTournament_FullSizeReturnsBest(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	flights := randomCatalog(rng, testCities, testHub, 10)
	params := testParameters()
	params.TournamentSize = params.PopulationSize
	o := newTestOptimizer(t, params, flights)

	pop := newTestPopulation(o)
	want := bestOf(pop).fitness

	for i := 0; i < 20; i++ {
		require.Equal(t, want, o.selectByTournament(pop).fitness)
	}
}

func TestSelectByTournament_ReturnsMember(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	flights := randomCatalog(rng, testCities, testHub, 3)
	params := testParameters()
	params.TournamentSize = 5
	o := newTestOptimizer(t, params, flights)

	pop := newTestPopulation(o)
	for i := 0; i < 100; i++ {
		require.Contains(t, pop, o.selectByTournament(pop))
	}
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	flights := randomCatalog(rng, testCities, testHub, 6)

	sequential := newTestOptimizer(t, testParameters(), flights)
	pop := newTestPopulation(sequential)

	params := testParameters()
	params.Workers = 4
	parallel := newTestOptimizer(t, params, flights)

	copies := make([]*Chromosome, len(pop))
	for i, ch := range pop {
		copies[i] = &Chromosome{genes: ch.genes}
	}
	parallel.evaluate(copies)

	for i := range pop {
		require.Equal(t, pop[i].fitness, copies[i].fitness)
	}
}
