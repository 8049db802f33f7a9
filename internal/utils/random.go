package utils

import (
	"math/rand"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

// 航程在 1 到 4 个小时之间，允许跨过午夜
func generateRandomSchedule() (string, string) {
	departure := rand.Intn(MinutesPerDay/5) * 5
	duration := 60 + rand.Intn(37)*5
	return MinutesToClock(departure), MinutesToClock(departure + duration)
}

func GenerateRandomFlight(origin string, destination string) *domain.Flight {
	departure, arrival := generateRandomSchedule()

	return &domain.Flight{
		Origin:      origin,
		Destination: destination,
		Departure:   departure,
		Arrival:     arrival,
		Price:       50 + rand.Intn(451),
	}
}

// GenerateRandomCatalog 为每个城市生成 perRoute 个去程和 perRoute 个回程航班
func GenerateRandomCatalog(cities []string, hub string, perRoute int) []*domain.Flight {
	flights := make([]*domain.Flight, 0, len(cities)*perRoute*2)

	for _, city := range cities {
		for i := 0; i < perRoute; i++ {
			flights = append(flights, GenerateRandomFlight(city, hub))
			flights = append(flights, GenerateRandomFlight(hub, city))
		}
	}

	// 用 Fisher-Yates 洗牌，避免航班按城市聚集
	for i := len(flights) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		flights[i], flights[j] = flights[j], flights[i]
	}

	return flights
}
