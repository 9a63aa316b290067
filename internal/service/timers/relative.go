package timers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrInvalidFormat = errors.New("invalid time format")

// ParseRelative accepts HH:MM, HH:MM:SS, DD:HH:MM:SS or a Go duration string.
func ParseRelative(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidFormat
	}

	if !strings.Contains(s, ":") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return d, nil
	}

	parts := strings.Split(s, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		nums[i] = n
	}

	var days, hours, minutes, seconds int
	switch len(nums) {
	case 2:
		hours, minutes = nums[0], nums[1]
	case 3:
		hours, minutes, seconds = nums[0], nums[1], nums[2]
	case 4:
		days, hours, minutes, seconds = nums[0], nums[1], nums[2], nums[3]
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// ParseAbsolute reads an ISO-8601 style timestamp, interpreting zone-less
// input in loc.
func ParseAbsolute(s string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return t, nil
}
