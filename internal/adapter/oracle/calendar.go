package oracle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rajeevkavala/Trading-Backend/internal/config"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.MarketCalendar = (*Calendar)(nil)

type session struct {
	open     time.Duration // offset from local midnight
	close    time.Duration
	loc      *time.Location
	weekdays map[time.Weekday]bool
}

// Calendar answers market-open questions from configured sessions. Markets
// without a configured session are treated as always open.
type Calendar struct {
	sessions map[string]session
}

func NewCalendar(markets map[string]config.MarketHours) (*Calendar, error) {
	sessions := make(map[string]session, len(markets))
	for name, hours := range markets {
		open, err := parseClock(hours.Open)
		if err != nil {
			return nil, fmt.Errorf("market %s open: %w", name, err)
		}
		closeAt, err := parseClock(hours.Close)
		if err != nil {
			return nil, fmt.Errorf("market %s close: %w", name, err)
		}
		if closeAt <= open {
			return nil, fmt.Errorf("market %s: close %s not after open %s", name, hours.Close, hours.Open)
		}
		loc := time.UTC
		if hours.Timezone != "" {
			loc, err = time.LoadLocation(hours.Timezone)
			if err != nil {
				return nil, fmt.Errorf("market %s timezone: %w", name, err)
			}
		}
		days, err := parseWeekdays(hours.Weekdays)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", name, err)
		}
		sessions[name] = session{open: open, close: closeAt, loc: loc, weekdays: days}
	}
	return &Calendar{sessions: sessions}, nil
}

func (c *Calendar) IsOpen(market string, at time.Time) bool {
	s, ok := c.sessions[market]
	if !ok {
		return true
	}
	local := at.In(s.loc)
	if len(s.weekdays) > 0 && !s.weekdays[local.Weekday()] {
		return false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	offset := local.Sub(midnight)
	return offset >= s.open && offset < s.close
}

func parseClock(v string) (time.Duration, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekdays(names []string) (map[time.Weekday]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	days := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		days[d] = true
	}
	return days, nil
}
