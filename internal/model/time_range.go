package model

import (
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// Clock время суток в минутах от полуночи
type Clock int

var ErrInvalidClock = errors.New("invalid time of day")

// NewClock собирает время суток из часов и минут
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}
	return Clock(hour*60 + minute), nil
}

// ParseClock разбирает строку вида "15:04"
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return minutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, ErrInvalidClock)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// MustClock для констант в тестах и сидерах
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Valid допускает 24:00 только как конец интервала, поэтому верхняя граница включительна
func (c Clock) Valid() bool {
	return c >= 0 && c <= minutesPerDay
}

var (
	ErrEmptyRange      = errors.New("end time must be after start time")
	ErrRangeOutOfDay   = errors.New("time range must stay within a single day")
	ErrRangeMissingDay = errors.New("time range date is required")
)

// TimeRange полуоткрытый интервал [Start, End) в пределах одной календарной даты
type TimeRange struct {
	Date  time.Time `json:"date"`
	Start Clock     `json:"start"`
	End   Clock     `json:"end"`
}

// NewTimeRange нормализует дату до полуночи UTC и проверяет границы
func NewTimeRange(date time.Time, start, end Clock) (TimeRange, error) {
	if date.IsZero() {
		return TimeRange{}, ErrRangeMissingDay
	}
	if !start.Valid() || !end.Valid() || start == minutesPerDay {
		return TimeRange{}, ErrRangeOutOfDay
	}
	if start >= end {
		return TimeRange{}, ErrEmptyRange
	}
	return TimeRange{Date: DateOf(date), Start: start, End: end}, nil
}

// DateOf отбрасывает время суток, сохраняя календарную дату
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate сравнивает только календарные даты
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Overlaps единственный предикат пересечения интервалов в системе.
// Касание концов (a.End == b.Start) пересечением не считается.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if !SameDate(r.Date, other.Date) {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.End-r.Start) * time.Minute
}

// StartsAt абсолютный момент начала в указанной локации
func (r TimeRange) StartsAt(loc *time.Location) time.Time {
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, r.Start.Hour(), r.Start.Minute(), 0, 0, loc)
}

// Less порядок по дате, затем по началу
func (r TimeRange) Less(other TimeRange) bool {
	if !SameDate(r.Date, other.Date) {
		return r.Date.Before(other.Date)
	}
	if r.Start != other.Start {
		return r.Start < other.Start
	}
	return r.End < other.End
}

func (r TimeRange) DateString() string {
	return r.Date.Format("2006-01-02")
}

func (r TimeRange) TimeString() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

func (r TimeRange) String() string {
	return r.DateString() + " " + r.TimeString()
}
