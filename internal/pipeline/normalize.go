package pipeline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/now"

	"orderdash/internal/model"
)

// NormalizeCustomerType 规范化客户类型
// 去除首尾空白；缺失、空串、"nan"、"NaN" 统一替换为 model.NotDefined
func NormalizeCustomerType(raw string, present bool) string {
	if !present {
		return model.NotDefined
	}
	v := strings.TrimSpace(raw)
	switch v {
	case "", "nan", "NaN":
		return model.NotDefined
	}
	return v
}

// ParseOrderDate 尽力解析日期，返回 UTC 零点的日历日期
// 无法解析时返回 false，不报错
func ParseOrderDate(raw string, present bool) (time.Time, bool) {
	if !present {
		return time.Time{}, false
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// MonthOf 日期所在月份的 1 日
func MonthOf(d time.Time) time.Time {
	return now.With(d).BeginningOfMonth()
}

// NormalizeIdentity 客户标识按原值参与分组，不去除空白
// 缺失或空串视为无标识
func NormalizeIdentity(raw string, present bool) (string, bool) {
	if !present || raw == "" {
		return "", false
	}
	return raw, true
}
