package service

import (
	"time"

	"callcampaign_backend/platform/apperr"
)

// Date filter presets accepted by the stats query.
const (
	PresetToday        = "today"
	PresetYesterday    = "yesterday"
	PresetThisWeek     = "this-week"
	PresetThisMonth    = "this-month"
	PresetTotal        = "total"
	PresetLastSchedule = "last-schedule"
)

// DayFormat is the ISO day layout used throughout the stats tables.
const DayFormat = "2006-01-02"

// DayRange is an inclusive day range; empty bounds are unbounded.
type DayRange struct {
	From string
	To   string
}

// ResolvePreset maps a date preset onto an inclusive day range evaluated
// in the campaign time zone. The last-schedule preset is resolved by the
// service since it needs the job registry.
func ResolvePreset(preset string, now time.Time, loc *time.Location) (DayRange, error) {
	local := now.In(loc)
	today := local.Format(DayFormat)

	switch preset {
	case PresetToday, "":
		return DayRange{From: today, To: today}, nil

	case PresetYesterday:
		day := local.AddDate(0, 0, -1).Format(DayFormat)
		return DayRange{From: day, To: day}, nil

	case PresetThisWeek:
		// Week runs Monday through Friday; weekend days carry no campaign
		// traffic and are excluded by capping the range at Friday.
		sinceMonday := (int(local.Weekday()) + 6) % 7
		monday := local.AddDate(0, 0, -sinceMonday)
		to := local
		if sinceMonday > 4 {
			to = monday.AddDate(0, 0, 4)
		}
		return DayRange{From: monday.Format(DayFormat), To: to.Format(DayFormat)}, nil

	case PresetThisMonth:
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return DayRange{From: first.Format(DayFormat), To: today}, nil

	case PresetTotal:
		return DayRange{}, nil
	}

	return DayRange{}, apperr.Validation("unknown date filter: " + preset)
}
