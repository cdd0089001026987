package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"schedule-importer/errors"
	"schedule-importer/metrics"
	"schedule-importer/models"
	"strconv"
	"strings"
	"time"
)

// Column positions of an assignment record.
const (
	colEscalationLevel = iota
	colAssigneeID
	colAssigneeType
	colDayOfWeek
	colStartTime
	colEndTime
	numColumns
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):([0-5]\d)(?::([0-5]\d))?$`)

// Parse reads assignment records from r and buckets them by day of week.
// The first record is a header and is discarded.
// Columns are: escalation_level, assignee_id, assignee_type, day_of_week,
// start_time, end_time.
// Rows whose day of week is neither 0-6 nor a weekday name are collected in
// ParseResult.Skipped and do not stop parsing. Any other malformed field
// aborts with a *errors.ParseError.
func Parse(r io.Reader) (*models.ParseResult, error) {
	start := time.Now()
	defer func() {
		metrics.ParserDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result, err := parse(r)
	if err != nil {
		metrics.ParserErrorsTotal.WithLabelValues(errorType(err)).Inc()
		return nil, err
	}
	metrics.ParserRecordsTotal.Add(float64(result.Rows()))
	metrics.ParserRowsSkippedTotal.Add(float64(len(result.Skipped)))
	return result, nil
}

func parse(r io.Reader) (*models.ParseResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, &errors.ParseError{Line: 1, Err: errors.ErrMissingHeader}
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	result := &models.ParseResult{Days: models.NewWeek()}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) != numColumns {
			return nil, &errors.ParseError{
				Line:   line,
				Record: record,
				Err:    errors.ErrInvalidFieldCount,
			}
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		row, err := parseRow(record)
		if err != nil {
			return nil, &errors.ParseError{Line: line, Record: record, Err: err}
		}

		day, ok := ParseDayOfWeek(record[colDayOfWeek])
		if !ok {
			result.Skipped = append(result.Skipped, models.SkippedRow{
				Line:       line,
				AssigneeID: row.AssigneeID,
				Value:      record[colDayOfWeek],
			})
			continue
		}
		row.DayOfWeek = day
		result.Days[day].Entries = append(result.Days[day].Entries, row)
	}

	return result, nil
}

// parseRow converts every field except the day of week.
func parseRow(record []string) (models.AssignmentRow, error) {
	var row models.AssignmentRow

	level, err := strconv.Atoi(record[colEscalationLevel])
	if err != nil {
		return row, fmt.Errorf("%w: %v", errors.ErrInvalidEscalationLevel, err)
	}
	if level < 0 {
		return row, fmt.Errorf("%w: %d is negative", errors.ErrInvalidEscalationLevel, level)
	}
	row.EscalationLevel = level

	row.AssigneeID = record[colAssigneeID]
	if row.AssigneeID == "" {
		return row, errors.ErrEmptyAssignee
	}

	row.AssigneeType, err = ParseAssigneeType(record[colAssigneeType])
	if err != nil {
		return row, err
	}

	if err := validateClock(record[colStartTime]); err != nil {
		return row, fmt.Errorf("%w: %v", errors.ErrInvalidStartTime, err)
	}
	row.StartTime = record[colStartTime]

	if err := validateClock(record[colEndTime]); err != nil {
		return row, fmt.Errorf("%w: %v", errors.ErrInvalidEndTime, err)
	}
	row.EndTime = record[colEndTime]

	return row, nil
}

// ParseDayOfWeek accepts an integer 0-6 (0 = Sunday) or a case-insensitive
// English weekday name.
func ParseDayOfWeek(value string) (time.Weekday, bool) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 || n >= models.DaysPerWeek {
			return 0, false
		}
		return time.Weekday(n), true
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(value, d.String()) {
			return d, true
		}
	}
	return 0, false
}

// ParseAssigneeType accepts "user" or "team" in any case.
func ParseAssigneeType(value string) (models.AssigneeType, error) {
	switch models.AssigneeType(strings.ToLower(strings.TrimSpace(value))) {
	case models.AssigneeUser:
		return models.AssigneeUser, nil
	case models.AssigneeTeam:
		return models.AssigneeTeam, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidAssigneeType, value)
	}
}

// validateClock checks an "HH:MM" or "HH:MM:SS" time of day.
// 24:00 is accepted as the end of the day.
func validateClock(value string) error {
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return fmt.Errorf("%q is not HH:MM[:SS]", value)
	}
	hour, _ := strconv.Atoi(m[1])
	switch {
	case hour < 24:
		return nil
	case hour == 24 && m[2] == "00" && (m[3] == "" || m[3] == "00"):
		return nil
	default:
		return fmt.Errorf("%q is out of range", value)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, errors.ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, errors.ErrInvalidFieldCount):
		return "invalid_field_count"
	case errors.Is(err, errors.ErrInvalidEscalationLevel):
		return "invalid_escalation_level"
	case errors.Is(err, errors.ErrEmptyAssignee):
		return "empty_assignee"
	case errors.Is(err, errors.ErrInvalidAssigneeType):
		return "invalid_assignee_type"
	case errors.Is(err, errors.ErrInvalidStartTime):
		return "invalid_start_time"
	case errors.Is(err, errors.ErrInvalidEndTime):
		return "invalid_end_time"
	default:
		return "read"
	}
}
