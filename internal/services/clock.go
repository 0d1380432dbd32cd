package services

import (
	"time"

	"conti/internal/core"
)

// Clock resolves "today" and "this month" in the household's time zone.
// The zero value uses time.Now in UTC.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Clock) Today() core.Date {
	return core.Today(c.now(), c.Location)
}

func (c Clock) CurrentMonth() core.MonthKey {
	return core.CurrentMonth(c.now(), c.Location)
}
