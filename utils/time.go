package utils

import (
	"fmt"
	"time"
)

// ParseClock 解析 HH:MM 或 HH:MM:SS 并应用到指定日期
func ParseClock(clock string, date time.Time) (time.Time, error) {
	if clock == "" {
		return date, nil
	}

	var parsed time.Time
	var err error
	for _, layout := range []string{"15:04", "15:04:05"} {
		if parsed, err = time.Parse(layout, clock); err == nil {
			break
		}
	}
	if err != nil {
		return date, fmt.Errorf("invalid clock %q", clock)
	}

	return time.Date(
		date.Year(),
		date.Month(),
		date.Day(),
		parsed.Hour(),
		parsed.Minute(),
		parsed.Second(),
		0,
		date.Location(),
	), nil
}
