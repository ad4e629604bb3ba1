package billing

import (
	"time"

	"github.com/qs3c/sub_billing_server/internal/model"
)

// Expiry 到期时间：Never 表示永不过期
type Expiry struct {
	at    time.Time
	never bool
}

func Never() Expiry {
	return Expiry{never: true}
}

func At(t time.Time) Expiry {
	return Expiry{at: t}
}

// ExpiryOf 把数据库中的可空时间转换为 Expiry
func ExpiryOf(t *time.Time) Expiry {
	if t == nil {
		return Never()
	}
	return At(*t)
}

func (e Expiry) IsNever() bool {
	return e.never
}

// Time 永不过期时返回零值和 false
func (e Expiry) Time() (time.Time, bool) {
	if e.never {
		return time.Time{}, false
	}
	return e.at, true
}

// ActiveAt 在 now 时刻仍有效（严格晚于 now 或永不过期）
func (e Expiry) ActiveAt(now time.Time) bool {
	return e.never || e.at.After(now)
}

// Ptr 转回数据库字段
func (e Expiry) Ptr() *time.Time {
	if e.never {
		return nil
	}
	t := e.at
	return &t
}

var periodMonths = map[string]int{
	model.PeriodMonth:     1,
	model.PeriodQuarter:   3,
	model.PeriodHalfYear:  6,
	model.PeriodYear:      12,
	model.PeriodTwoYear:   24,
	model.PeriodThreeYear: 36,
}

// MonthsOf 周期对应的月数，一次性/重置流量周期返回 false
func MonthsOf(period string) (int, bool) {
	m, ok := periodMonths[period]
	return m, ok
}

// AddMonths 按日历月相加，月末溢出遵循 time.AddDate 的规范化规则
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// ExtendByPeriod 在原到期时间上延长一个周期；已过期或永不过期时以 now 为起点，避免叠加过期时间
func ExtendByPeriod(period string, from Expiry, now time.Time) time.Time {
	anchor := now
	if t, ok := from.Time(); ok && !t.Before(now) {
		anchor = t
	}
	months, _ := MonthsOf(period)
	return AddMonths(anchor, months)
}

// ResetMethod 流量重置方式
type ResetMethod int

const (
	ResetMonthFirstDay ResetMethod = 0
	ResetExpireDay     ResetMethod = 1
	ResetNever         ResetMethod = 2
	ResetYearFirstDay  ResetMethod = 3
	ResetExpireDayYear ResetMethod = 4
)

// ResolveResetMethod 套餐未设置时使用全局配置
func ResolveResetMethod(planMethod *int, fallback int) ResetMethod {
	if planMethod != nil {
		return ResetMethod(*planMethod)
	}
	return ResetMethod(fallback)
}

// DaysUntilReset 距下次流量重置的天数；无套餐、已过期、永不过期或不重置时返回 false
func DaysUntilReset(method ResetMethod, expiry Expiry, hasPlan bool, now time.Time) (int, bool) {
	if !hasPlan {
		return 0, false
	}
	expiredAt, ok := expiry.Time()
	if !ok || !expiredAt.After(now) {
		return 0, false
	}

	switch method {
	case ResetMonthFirstDay:
		return lastDayOfMonth(now) - now.Day(), true
	case ResetExpireDay:
		return daysUntilExpireDay(expiredAt.In(now.Location()).Day(), now), true
	case ResetYearFirstDay:
		nextYear := time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, now.Location())
		return int(nextYear.Sub(now) / (24 * time.Hour)), true
	case ResetExpireDayYear:
		return daysUntilExpireDayYearly(expiredAt.In(now.Location()), now), true
	default:
		return 0, false
	}
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func daysUntilExpireDay(day int, now time.Time) int {
	today := now.Day()
	lastDay := lastDayOfMonth(now)

	// 到期日超过本月最后一天时按月末重置
	if day >= today && day >= lastDay {
		return lastDay - today
	}
	if day >= today {
		return day - today
	}
	return lastDay - today + day
}

func daysUntilExpireDayYearly(expiredAt, now time.Time) int {
	thisYear := time.Date(now.Year(), expiredAt.Month(), expiredAt.Day(), 0, 0, 0, 0, now.Location())
	if thisYear.After(now) {
		return int(thisYear.Sub(now) / (24 * time.Hour))
	}
	nextYear := thisYear.AddDate(1, 0, 0)
	return int(nextYear.Sub(now) / (24 * time.Hour))
}
