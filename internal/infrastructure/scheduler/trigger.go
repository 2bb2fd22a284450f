package scheduler

import (
	"fmt"
	"time"
)

// Trigger decides when a job is due
type Trigger interface {
	// Due reports whether the job should start at now, given when it last
	// started (zero if never)
	Due(now, lastStart time.Time) bool
	String() string
}

// DailyTrigger fires once per local calendar day, at the first check at or
// after hour:minute
type DailyTrigger struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Daily creates a DailyTrigger
func Daily(hour, minute int, loc *time.Location) (*DailyTrigger, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%w: daily time %02d:%02d", ErrInvalidConfig, hour, minute)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyTrigger{Hour: hour, Minute: minute, Location: loc}, nil
}

// Due implements Trigger
func (d *DailyTrigger) Due(now, lastStart time.Time) bool {
	local := now.In(d.Location)
	at := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, d.Location)
	if local.Before(at) {
		return false
	}
	if lastStart.IsZero() {
		return true
	}
	last := lastStart.In(d.Location)
	return last.Before(at)
}

func (d *DailyTrigger) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", d.Hour, d.Minute, d.Location)
}

// IntervalTrigger fires every Every, starting with the first check
type IntervalTrigger struct {
	Every time.Duration
}

// Every creates an IntervalTrigger
func Every(d time.Duration) (*IntervalTrigger, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: interval %s", ErrInvalidConfig, d)
	}
	return &IntervalTrigger{Every: d}, nil
}

// Due implements Trigger
func (i *IntervalTrigger) Due(now, lastStart time.Time) bool {
	return lastStart.IsZero() || now.Sub(lastStart) >= i.Every
}

func (i *IntervalTrigger) String() string {
	return "every " + i.Every.String()
}
