package queries

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"max.ks1230/billtracker/internal/model/customerr"
)

var periodStarts = map[string]func(*now.Now) time.Time{
	"day":   (*now.Now).BeginningOfDay,
	"week":  (*now.Now).BeginningOfWeek,
	"month": (*now.Now).BeginningOfMonth,
	"year":  (*now.Now).BeginningOfYear,
}

var weekConfig = &now.Config{WeekStartDay: time.Monday}

// PageRequest selects a 1-based page. Size 0 means the default page size.
type PageRequest struct {
	Number int
	Size   int
}

// DateFilter is an inclusive date range; either side may be open.
// Period, when set, opens the range at the beginning of the current day,
// week, month or year unless From is given explicitly.
type DateFilter struct {
	From   *time.Time
	To     *time.Time
	Period string
}

// Resolve applies Period relative to at, whose location decides where a
// period begins.
func (f DateFilter) Resolve(at time.Time) (DateFilter, error) {
	if f.Period == "" {
		return f, nil
	}
	start, ok := periodStarts[f.Period]
	if !ok {
		return DateFilter{}, customerr.NewValidationError("period", "must be one of "+strings.Join(periods(), ", "))
	}
	if f.From == nil {
		from := start(weekConfig.With(at))
		f.From = &from
	}
	f.Period = ""
	return f, nil
}

// periods lists the supported Period values.
func periods() []string {
	res := make([]string, 0, len(periodStarts))
	for k := range periodStarts {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
