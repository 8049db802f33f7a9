package utils

import (
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// ClockToMinutes 将 "HH:MM" 转换为距 00:00 的分钟数
func ClockToMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("时间 %q 格式错误，应为 HH:MM", clock)
	}

	return t.Hour()*60 + t.Minute(), nil
}

func MinutesToClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// LayoverMinutes 计算到达枢纽后等待回程起飞的分钟数
// 回程的钟点早于到达钟点时，视为回程在第二天起飞
func LayoverMinutes(arrival int, departure int) int {
	if departure >= arrival {
		return departure - arrival
	}

	return (MinutesPerDay - arrival) + departure
}
