package optimizer

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

var testCities = []string{"LIS", "MAD", "CDG", "DUB", "BRU", "LHR"}

const testHub = "FCO"

func testParameters() *Parameters {
	return &Parameters{
		OptimizationParameters: domain.OptimizationParameters{
			PopulationSize: 80,
			Generations:    120,
			TournamentSize: 2,
			CrossoverRate:  0.5,
			MutationRate:   0.05,
			ElitismRate:    0.05,
			WaitWeight:     1,
			Cities:         testCities,
			Hub:            testHub,
			Seed:           42,
		},
	}
}

func flight(origin, destination, departure, arrival string, price int) *domain.Flight {
	return &domain.Flight{
		Origin:      origin,
		Destination: destination,
		Departure:   departure,
		Arrival:     arrival,
		Price:       price,
	}
}

// randomCatalog 为每个城市生成若干去程和回程，并混入一些飞往其他城市的干扰航班
func randomCatalog(rng *rand.Rand, cities []string, hub string, perRoute int) []*domain.Flight {
	clock := func() string {
		m := rng.Intn(24 * 60)
		return fmt.Sprintf("%02d:%02d", m/60, m%60)
	}

	var flights []*domain.Flight
	for _, city := range cities {
		for i := 0; i < perRoute; i++ {
			flights = append(flights, flight(city, hub, clock(), clock(), 50+rng.Intn(400)))
			flights = append(flights, flight(hub, city, clock(), clock(), 50+rng.Intn(400)))
		}
		flights = append(flights, flight(hub, "AMS", clock(), clock(), 1))
		flights = append(flights, flight("AMS", city, clock(), clock(), 1))
	}
	return flights
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOptimizer(t *testing.T, params *Parameters, flights []*domain.Flight) *Optimizer {
	t.Helper()

	o, err := New(params, flights, WithLogger(quietLogger()))
	require.NoError(t, err)
	return o
}

func newTestPopulation(o *Optimizer) []*Chromosome {
	pop := make([]*Chromosome, o.parameters.PopulationSize)
	for i := range pop {
		pop[i] = o.randomInitChromosome()
	}
	o.evaluate(pop)
	return pop
}

// requireSlotInvariant 检查第 2k 位从城市 k 出发，第 2k+1 位从枢纽飞回城市 k
func requireSlotInvariant(t *testing.T, ch *Chromosome, cities []string, hub string) {
	t.Helper()

	require.Len(t, ch.genes, 2*len(cities))
	for k, city := range cities {
		require.Equal(t, city, ch.genes[2*k].flight.Origin, "slot %d", 2*k)
		require.Equal(t, hub, ch.genes[2*k+1].flight.Origin, "slot %d", 2*k+1)
		require.Equal(t, city, ch.genes[2*k+1].flight.Destination, "slot %d", 2*k+1)
	}
}
