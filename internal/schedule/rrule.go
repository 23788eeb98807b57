package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ParseRule 解析 RRULE，dtstart 作为重复的起点
func ParseRule(rule string, dtstart time.Time) (*rrule.RRule, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return nil, fmt.Errorf("empty rrule")
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule %q: %w", rule, err)
	}
	opt.Dtstart = dtstart

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule %q: %w", rule, err)
	}
	return r, nil
}

// Expand 返回 [from, to] 内的全部到期时间，空规则返回 nil
func Expand(rule string, dtstart, from, to time.Time) ([]time.Time, error) {
	if strings.TrimSpace(rule) == "" || !to.After(from) {
		return nil, nil
	}
	r, err := ParseRule(rule, dtstart)
	if err != nil {
		return nil, err
	}
	return r.Between(from, to, true), nil
}
