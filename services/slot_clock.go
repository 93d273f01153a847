package services

import (
	"courtbook/models"
)

// DayWindow is the resolved operating window for one facility/date, in
// minutes since midnight.
type DayWindow struct {
	Open     int
	Close    int
	IsClosed bool
}

// ResolveDayWindow picks the effective window for a date: a special-hours
// override wins over the weekly default. A nil weekly entry means the
// facility never opens on that weekday.
func ResolveDayWindow(weekly *models.OperatingHours, special *models.SpecialHours) (DayWindow, error) {
	var (
		openStr, closeStr string
		closed            bool
	)

	switch {
	case special != nil:
		openStr, closeStr, closed = special.OpenTime, special.CloseTime, special.IsClosed
	case weekly != nil:
		openStr, closeStr, closed = weekly.OpenTime, weekly.CloseTime, weekly.IsClosed
	default:
		return DayWindow{IsClosed: true}, nil
	}

	if closed {
		return DayWindow{IsClosed: true}, nil
	}

	open, err := models.ParseClock(openStr)
	if err != nil {
		return DayWindow{}, err
	}
	close, err := models.ParseClock(closeStr)
	if err != nil {
		return DayWindow{}, err
	}
	if close <= open {
		// a degenerate window books nothing
		return DayWindow{IsClosed: true}, nil
	}

	return DayWindow{Open: open, Close: close}, nil
}

// CandidateStarts enumerates slot start times (minutes since midnight)
// covering [open, close), stepped by duration+buffer. The trailing partial
// slot is dropped: a slot's end never exceeds close. Pure function.
func CandidateStarts(window DayWindow, durationMinutes, bufferMinutes int) []int {
	if window.IsClosed || durationMinutes <= 0 || bufferMinutes < 0 {
		return nil
	}

	step := durationMinutes + bufferMinutes
	var starts []int
	for start := window.Open; start+durationMinutes <= window.Close; start += step {
		starts = append(starts, start)
	}
	return starts
}

// ContainsStart reports whether startTime begins a slot that fits entirely
// inside the window. Used to validate lock and booking requests against the
// facility calendar.
func ContainsStart(window DayWindow, startMinutes, durationMinutes int) bool {
	if window.IsClosed || durationMinutes <= 0 {
		return false
	}
	return startMinutes >= window.Open && startMinutes+durationMinutes <= window.Close
}
