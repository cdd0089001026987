package models

import "time"

// DaysPerWeek is the number of day slots every schedule carries.
const DaysPerWeek = 7

// AssigneeType distinguishes individual users from teams.
type AssigneeType string

const (
	AssigneeUser AssigneeType = "user"
	AssigneeTeam AssigneeType = "team"
)

// AssignmentRow is one parsed on-call assignment record.
// It is shared across packages and never modified after parsing.
type AssignmentRow struct {
	EscalationLevel int
	AssigneeID      string
	AssigneeType    AssigneeType
	DayOfWeek       time.Weekday
	StartTime       string
	EndTime         string
}

// Occupant returns the assignee part of the row.
func (r AssignmentRow) Occupant() Occupant {
	return Occupant{ID: r.AssigneeID, Type: r.AssigneeType}
}

// DayBucket holds the rows of a single day in input order.
type DayBucket struct {
	DayOfWeek time.Weekday
	Entries   []AssignmentRow
}

// Week is indexed by time.Weekday, Sunday first.
type Week [DaysPerWeek]DayBucket

// NewWeek returns seven empty buckets with their day set.
func NewWeek() Week {
	var w Week
	for d := range w {
		w[d].DayOfWeek = time.Weekday(d)
	}
	return w
}

// SkippedRow is a row dropped because its day of week was not recognised.
type SkippedRow struct {
	Line       int
	AssigneeID string
	Value      string
}

// ParseResult is the output of parsing one source.
type ParseResult struct {
	Days    Week
	Skipped []SkippedRow
}

// Rows returns the number of rows that made it into a bucket.
func (p *ParseResult) Rows() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Entries)
	}
	return n
}

// LevelSchedule holds the raw rows of one escalation level, per day.
type LevelSchedule struct {
	Level int
	Name  string
	Days  [DaysPerWeek][]AssignmentRow
}

// Occupant is an assignee covering a time period.
type Occupant struct {
	ID   string       `json:"id" yaml:"id"`
	Type AssigneeType `json:"type" yaml:"type"`
}

// TimePeriod is a start/end window and everyone covering it.
type TimePeriod struct {
	StartTime string     `json:"start_time" yaml:"start_time"`
	EndTime   string     `json:"end_time" yaml:"end_time"`
	Occupants []Occupant `json:"entries" yaml:"entries"`
}

// SameWindow reports whether both periods have textually identical bounds.
func (p TimePeriod) SameWindow(start, end string) bool {
	return p.StartTime == start && p.EndTime == end
}

// DaySlot is the ordered list of time periods of one day.
type DaySlot struct {
	TimePeriods []TimePeriod
}

// PeriodSchedule is a level whose days have been collapsed into time periods.
type PeriodSchedule struct {
	Level int
	Name  string
	Days  [DaysPerWeek]DaySlot
}

// ScheduleVariant is one parallel coverage track of a level.
type ScheduleVariant struct {
	Name string
	Days [DaysPerWeek]DaySlot
}

// LevelVariants is the final form of an escalation level.
// Name is the level name without any multi suffix.
type LevelVariants struct {
	Level    int
	Name     string
	Variants []ScheduleVariant
}
