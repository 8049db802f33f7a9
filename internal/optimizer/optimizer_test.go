package optimizer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/utils"
)

func TestNew_EmptyOutboundCandidates(t *testing.T) {
	flights := []*domain.Flight{
		flight(testHub, "LIS", "10:00", "12:00", 100),
	}
	params := singleCityParameters()

	_, err := New(params, flights, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func TestNew_EmptyReturnCandidates(t *testing.T) {
	flights := []*domain.Flight{
		flight("LIS", testHub, "10:00", "12:00", 100),
		// 从枢纽出发但不是飞回 LIS
		flight(testHub, "MAD", "10:00", "12:00", 100),
	}
	params := singleCityParameters()

	_, err := New(params, flights, WithLogger(quietLogger()))
	require.ErrorIs(t, err, ErrEmptyCandidateSet)
}

func TestNew_InvalidParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	flights := randomCatalog(rng, testCities, testHub, 2)

	params := testParameters()
	params.TournamentSize = params.PopulationSize + 1
	_, err := New(params, flights)
	require.Error(t, err)

	params = testParameters()
	params.Hub = ""
	_, err = New(params, flights)
	require.Error(t, err)
}

func TestNew_InvalidFlightTime(t *testing.T) {
	flights := []*domain.Flight{
		flight("LIS", testHub, "25:00", "12:00", 100),
		flight(testHub, "LIS", "10:00", "12:00", 100),
	}

	_, err := New(singleCityParameters(), flights, WithLogger(quietLogger()))
	require.Error(t, err)
}

func TestNextGeneration_KeepsPopulationSize(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	flights := randomCatalog(rng, testCities, testHub, 4)

	cases := []struct {
		name        string
		size        int32
		elitismRate float64
	}{
		{name: "odd remainder", size: 10, elitismRate: 0.1},
		{name: "even remainder", size: 10, elitismRate: 0.2},
		{name: "no elites odd size", size: 9, elitismRate: 0},
		{name: "reference", size: 80, elitismRate: 0.05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := testParameters()
			params.PopulationSize = tc.size
			params.ElitismRate = tc.elitismRate
			o := newTestOptimizer(t, params, flights)

			pop := newTestPopulation(o)
			for gen := 0; gen < 5; gen++ {
				next, err := o.nextGeneration(pop)
				require.NoError(t, err)
				require.Len(t, next, int(tc.size))
				pop = next
			}
		})
	}
}

func TestNextGeneration_ElitesCarriedForward(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	flights := randomCatalog(rng, testCities, testHub, 6)
	params := testParameters()
	params.ElitismRate = 0.1
	params.MutationRate = 1
	o := newTestOptimizer(t, params, flights)

	pop := newTestPopulation(o)
	best := bestOf(pop)

	next, err := o.nextGeneration(pop)
	require.NoError(t, err)

	require.Equal(t, best.genes, next[0].genes)
	require.Equal(t, best.fitness, next[0].fitness)
	require.LessOrEqual(t, bestOf(next).fitness, best.fitness)
}

func TestOptimize_HistoryNeverWorsens(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	flights := randomCatalog(rng, testCities, testHub, 10)
	o := newTestOptimizer(t, testParameters(), flights)

	res, err := o.Optimize()
	require.NoError(t, err)
	require.Len(t, res.History, 120)

	for gen := 1; gen < len(res.History); gen++ {
		require.LessOrEqual(t, res.History[gen], res.History[gen-1], "generation %d", gen)
	}
	require.Equal(t, res.History[len(res.History)-1], res.Best.Fitness)
}

func TestOptimize_SingleCandidateConvergesImmediately(t *testing.T) {
	var flights []*domain.Flight
	for _, city := range testCities {
		flights = append(flights,
			flight(city, testHub, "08:00", "10:00", 100),
			flight(testHub, city, "12:00", "14:00", 150),
		)
	}
	params := testParameters()
	params.Generations = 10
	params.MutationRate = 1
	o := newTestOptimizer(t, params, flights)

	res, err := o.Optimize()
	require.NoError(t, err)

	// 每个城市 250 的票价加 120 分钟的等待
	want := float64(len(testCities) * (250 + 120))
	require.Len(t, res.History, 10)
	for _, fitness := range res.History {
		require.Equal(t, want, fitness)
	}
	require.Equal(t, want, res.Best.Fitness)
	require.Equal(t, len(testCities)*250, res.Best.TotalCost)
	require.Equal(t, len(testCities)*120, res.Best.TotalWait)
}

func TestOptimize_ResultSatisfiesSlotConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	flights := randomCatalog(rng, testCities, testHub, 5)
	params := testParameters()
	params.Generations = 20
	o := newTestOptimizer(t, params, flights)

	res, err := o.Optimize()
	require.NoError(t, err)
	require.NoError(t, utils.ValidateItinerary(res.Best, testCities, testHub))

	for i, leg := range res.Best.Legs {
		require.Equal(t, testCities[i], leg.City)
		require.Equal(t, testHub, leg.Outbound.Destination)
	}
}

func TestOptimize_SameSeedSameResult(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	flights := randomCatalog(rng, testCities, testHub, 8)

	params := testParameters()
	params.Generations = 30
	params.Seed = 2024

	first, err := newTestOptimizer(t, params, flights).Optimize()
	require.NoError(t, err)
	second, err := newTestOptimizer(t, params, flights).Optimize()
	require.NoError(t, err)

	require.Equal(t, first.History, second.History)
	require.Equal(t, first.Best, second.Best)
}

func TestOptimize_InjectedRandMatchesSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	flights := randomCatalog(rng, testCities, testHub, 8)

	params := testParameters()
	params.Generations = 15
	params.Seed = 99

	seeded, err := newTestOptimizer(t, params, flights).Optimize()
	require.NoError(t, err)

	injected, err := New(params, flights, WithLogger(quietLogger()), WithRand(rand.New(rand.NewSource(99))))
	require.NoError(t, err)
	res, err := injected.Optimize()
	require.NoError(t, err)

	require.Equal(t, seeded.History, res.History)
}

func TestOptimize_ParallelWorkersSameResult(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	flights := randomCatalog(rng, testCities, testHub, 8)

	params := testParameters()
	params.Generations = 25
	sequential, err := newTestOptimizer(t, params, flights).Optimize()
	require.NoError(t, err)

	parallelParams := testParameters()
	parallelParams.Generations = 25
	parallelParams.Workers = 8
	parallel, err := newTestOptimizer(t, parallelParams, flights).Optimize()
	require.NoError(t, err)

	require.Equal(t, sequential.History, parallel.History)
	require.Equal(t, sequential.Best, parallel.Best)
}
