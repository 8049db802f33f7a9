package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClockToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"00:10": 10,
		"10:00": 600,
		"14:30": 870,
		"23:59": 1439,
	}
	for clock, want := range cases {
		got, err := ClockToMinutes(clock)
		require.NoError(t, err, clock)
		require.Equal(t, want, got, clock)
	}

	for _, bad := range []string{"", "24:00", "7:5", "12:60", "noon"} {
		_, err := ClockToMinutes(bad)
		require.Error(t, err, bad)
	}
}

func TestMinutesToClock(t *testing.T) {
	require.Equal(t, "00:00", MinutesToClock(0))
	require.Equal(t, "09:05", MinutesToClock(545))
	require.Equal(t, "01:00", MinutesToClock(MinutesPerDay+60))
}

func TestLayoverMinutes(t *testing.T) {
	// 回程在第二天
	require.Equal(t, 20, LayoverMinutes(23*60+50, 10))
	// 同一天
	require.Equal(t, 270, LayoverMinutes(600, 870))
	// 到达即起飞
	require.Equal(t, 0, LayoverMinutes(600, 600))
}
