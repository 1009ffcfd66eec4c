package calendar

import (
	"errors"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange представляет временной интервал [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создаёт интервал и делает простую валидацию.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Duration — длительность интервала.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps проверяет пересечение полуоткрытых интервалов [Start, End).
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// OverlapDuration возвращает длительность общей части интервалов
// (0 при отсутствии пересечения).
func (tr TimeRange) OverlapDuration(other TimeRange) time.Duration {
	start := tr.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := tr.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// Gap возвращает зазор между непересекающимися интервалами
// (0, если интервалы пересекаются или касаются).
func (tr TimeRange) Gap(other TimeRange) time.Duration {
	if tr.Overlaps(other) {
		return 0
	}
	if tr.End.After(other.Start) {
		// other целиком раньше tr
		return tr.Start.Sub(other.End)
	}
	return other.Start.Sub(tr.End)
}
