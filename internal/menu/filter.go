package menu

// DayFilter selects which days of the menu an order covers. The zero value
// selects the whole week.
type DayFilter struct {
	day    Weekday
	single bool
}

// AllDays selects all five days.
func AllDays() DayFilter { return DayFilter{} }

// OnlyDay selects a single day.
func OnlyDay(d Weekday) DayFilter { return DayFilter{day: d, single: true} }

var allDaysAliases = map[string]bool{
	"": true, "all": true, "week": true, "semana": true, "todos": true, "toda la semana": true,
}

// ParseDayFilter accepts "all"/"week"/"semana" (or empty) for the whole week, or
// any weekday name accepted by ParseWeekday.
func ParseDayFilter(s string) (DayFilter, error) {
	if allDaysAliases[foldKey(s)] {
		return AllDays(), nil
	}
	d, err := ParseWeekday(s)
	if err != nil {
		return DayFilter{}, err
	}
	return OnlyDay(d), nil
}

// Single returns the selected day and true when the filter covers one day only.
func (f DayFilter) Single() (Weekday, bool) {
	return f.day, f.single
}

// Includes reports whether d is selected.
func (f DayFilter) Includes(d Weekday) bool {
	if !f.single {
		return d.Valid()
	}
	return d == f.day
}

// Days returns the selected days in weekday order.
func (f DayFilter) Days() []Weekday {
	if f.single {
		if !f.day.Valid() {
			return nil
		}
		return []Weekday{f.day}
	}
	week := Weekdays
	return week[:]
}

func (f DayFilter) String() string {
	if f.single {
		return f.day.String()
	}
	return "all"
}

func (f DayFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *DayFilter) UnmarshalText(b []byte) error {
	parsed, err := ParseDayFilter(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Selected returns the assignments for the days selected by f, paired with their day.
func (m WeeklyMenu) Selected(f DayFilter) []DatedAssignment {
	days := f.Days()
	out := make([]DatedAssignment, 0, len(days))
	for _, d := range days {
		out = append(out, DatedAssignment{Day: d, DayAssignment: m.Day(d)})
	}
	return out
}

// DatedAssignment is a DayAssignment tagged with its weekday.
type DatedAssignment struct {
	Day Weekday
	DayAssignment
}
