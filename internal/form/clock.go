package form

import (
	"fmt"
	"time"
)

// Meridiem is the AM/PM half of a 12-hour clock reading.
type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// Hours lists the values of the hour picker.
func Hours() []int {
	hours := make([]int, 0, 12)
	for h := 1; h <= 12; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Minutes lists the values of the minute picker.
func Minutes() []int {
	minutes := make([]int, 0, 60)
	for m := range 60 {
		minutes = append(minutes, m)
	}
	return minutes
}

// To24Hour converts a 12-hour clock hour. 12 AM is midnight, 12 PM is noon.
func To24Hour(hour int, meridiem Meridiem) int {
	switch {
	case meridiem == PM && hour != 12:
		return hour + 12
	case meridiem == AM && hour == 12:
		return 0
	default:
		return hour
	}
}

// From24Hour splits a 0-23 hour into its 12-hour clock reading.
func From24Hour(hour int) (int, Meridiem) {
	meridiem := AM
	if hour >= 12 {
		meridiem = PM
	}

	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}

	return h12, meridiem
}

// composeTime builds a wall-clock time in loc from a YYYY-MM-DD date and a 12-hour time.
func composeTime(date string, hour, minute int, meridiem Meridiem, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if hour < 1 || hour > 12 {
		return time.Time{}, fmt.Errorf("hour %d is outside 1-12", hour)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("minute %d is outside 0-59", minute)
	}
	if meridiem != AM && meridiem != PM {
		return time.Time{}, fmt.Errorf("meridiem must be AM or PM, got %q", meridiem)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), To24Hour(hour, meridiem), minute, 0, 0, loc), nil
}
