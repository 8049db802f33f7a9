package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRandomFlight(t *testing.T) {
	for i := 0; i < 200; i++ {
		flight := GenerateRandomFlight("LIS", "FCO")
		require.NoError(t, ValidateFlight(flight))
		require.GreaterOrEqual(t, flight.Price, 50)
		require.LessOrEqual(t, flight.Price, 500)
	}
}

func TestGenerateRandomCatalog(t *testing.T) {
	cities := []string{"LIS", "MAD"}
	flights := GenerateRandomCatalog(cities, "FCO", 3)
	require.Len(t, flights, 12)

	outbound, inbound := 0, 0
	for _, flight := range flights {
		switch {
		case flight.Destination == "FCO":
			outbound++
		case flight.Origin == "FCO":
			inbound++
		}
	}
	require.Equal(t, 6, outbound)
	require.Equal(t, 6, inbound)
}
