// Package history holds the entity model of the simulated world: creatures,
// sites, lineages, cultures, artifacts, factions, plots and the event log.
// Entities reference each other only through store ids.
package history

import "fmt"

// Calendar constants.
const (
	MonthsPerYear = 12
	DaysPerMonth  = 30
)

// Date is a point on the world calendar. Months and days are 1-based.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	for _, pair := range [3][2]int{{d.Year, o.Year}, {d.Month, o.Month}, {d.Day, o.Day}} {
		switch {
		case pair[0] < pair[1]:
			return -1
		case pair[0] > pair[1]:
			return 1
		}
	}
	return 0
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// AddYears returns d shifted by n years.
func (d Date) AddYears(n int) Date {
	d.Year += n
	return d
}

// YearsSince returns whole years elapsed from o to d.
func (d Date) YearsSince(o Date) int {
	years := d.Year - o.Year
	if d.Month < o.Month || (d.Month == o.Month && d.Day < o.Day) {
		years--
	}
	return years
}

func (d Date) String() string {
	return fmt.Sprintf("Year %d, Month %d, Day %d", d.Year, d.Month, d.Day)
}
