package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

func TestReadFlights_SkipsMalformedRecords(t *testing.T) {
	input := strings.Join([]string{
		"LIS,FCO,06:15,09:30,230",
		"# comentário",
		"MAD,FCO,07:00,09:40",     // 字段不足
		"CDG,FCO,08:00,10:05,abc", // 价格不是整数
		"DUB,FCO,8h,11:00,120",    // 时间格式错误
		"BRU,FCO,09:00,11:00,-5",  // 价格为负
		"FCO,LIS,18:20,20:35,199",
		"",
		" FCO , MAD , 19:00 , 21:30 , 150 ",
	}, "\n")

	flights, skipped, err := catalog.ReadFlights(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, flights, 3)
	require.Equal(t, &domain.Flight{Origin: "LIS", Destination: "FCO", Departure: "06:15", Arrival: "09:30", Price: 230}, flights[0])
	require.Equal(t, "FCO", flights[1].Origin)
	require.Equal(t, "LIS", flights[1].Destination)
	require.Equal(t, "MAD", flights[2].Destination)
	require.Equal(t, 150, flights[2].Price)

	require.Len(t, skipped, 4)
	for _, e := range skipped {
		require.True(t, errors.Is(e, catalog.ErrMalformedRecord))
	}
	require.Contains(t, skipped[0].Error(), "第 3 行")
}

func TestReadFlights_Empty(t *testing.T) {
	flights, skipped, err := catalog.ReadFlights(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, flights)
	require.Empty(t, skipped)
}

func TestCatalog_Lookup(t *testing.T) {
	flights := []*domain.Flight{
		{Origin: "LIS", Destination: "FCO", Departure: "06:15", Arrival: "09:30", Price: 230},
		{Origin: "FCO", Destination: "LIS", Departure: "18:20", Arrival: "20:35", Price: 199},
		{Origin: "FCO", Destination: "MAD", Departure: "19:00", Arrival: "21:30", Price: 150},
		nil,
		{Origin: "LIS", Destination: "FCO", Departure: "12:00", Arrival: "15:10", Price: 180},
	}

	c := catalog.New(flights)

	require.Equal(t, 4, c.Len())
	require.Len(t, c.ByOrigin("LIS"), 2)
	require.Len(t, c.ByOrigin("FCO"), 2)
	require.Empty(t, c.ByOrigin("DUB"))

	route := c.Route("FCO", "LIS")
	require.Len(t, route, 1)
	require.Same(t, flights[1], route[0])

	// 保持目录中的原有顺序
	require.Same(t, flights[0], c.ByOrigin("LIS")[0])
	require.Same(t, flights[4], c.ByOrigin("LIS")[1])
}
