package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"schedule-importer/errors"
	"schedule-importer/models"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported output format names.
const (
	FormatNameText = "text"
	FormatNameJSON = "json"
	FormatNameCSV  = "csv"
	FormatNameYAML = "yaml"
)

var formatters = map[string]func([]models.LevelVariants) string{
	FormatNameText: FormatText,
	FormatNameJSON: FormatJSON,
	FormatNameCSV:  FormatCSV,
	FormatNameYAML: FormatYAML,
}

// Names returns the supported format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether name is a supported format.
func Valid(name string) bool {
	_, ok := formatters[name]
	return ok
}

// Format renders levels in the named format.
func Format(name string, levels []models.LevelVariants) (string, error) {
	f, ok := formatters[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownFormat, name)
	}
	return f(levels), nil
}

// LevelDocument is the serialised form of one escalation level. It is the
// shape consumed by the schedule submission step.
type LevelDocument struct {
	Level     int                `json:"level" yaml:"level"`
	Name      string             `json:"name" yaml:"name"`
	Schedules []ScheduleDocument `json:"schedules" yaml:"schedules"`
}

// ScheduleDocument is one schedule variant with exactly seven days.
type ScheduleDocument struct {
	Name string                `json:"name" yaml:"name"`
	Days [][]models.TimePeriod `json:"days" yaml:"days"`
}

// prepareDocuments converts levels into documents whose days are never null.
func prepareDocuments(levels []models.LevelVariants) []LevelDocument {
	docs := make([]LevelDocument, 0, len(levels))
	for _, lv := range levels {
		doc := LevelDocument{
			Level:     lv.Level,
			Name:      lv.Name,
			Schedules: make([]ScheduleDocument, 0, len(lv.Variants)),
		}
		for _, v := range lv.Variants {
			days := make([][]models.TimePeriod, models.DaysPerWeek)
			for d, slot := range v.Days {
				days[d] = slot.TimePeriods
				if days[d] == nil {
					days[d] = []models.TimePeriod{}
				}
			}
			doc.Schedules = append(doc.Schedules, ScheduleDocument{Name: v.Name, Days: days})
		}
		docs = append(docs, doc)
	}
	return docs
}

// FormatText returns the text representation of the schedules
func FormatText(levels []models.LevelVariants) string {
	var sb strings.Builder

	for _, lv := range levels {
		sb.WriteString(fmt.Sprintf("%s (level %d, %d schedule(s))\n", lv.Name, lv.Level, len(lv.Variants)))
		for _, v := range lv.Variants {
			sb.WriteString(fmt.Sprintf("  %s\n", v.Name))
			for d, slot := range v.Days {
				sb.WriteString(formatTextDay(time.Weekday(d), slot))
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// formatTextDay formats a single day line for text output
func formatTextDay(day time.Weekday, slot models.DaySlot) string {
	if len(slot.TimePeriods) == 0 {
		return fmt.Sprintf("    %-9s : none", day)
	}
	parts := make([]string, 0, len(slot.TimePeriods))
	for _, p := range slot.TimePeriods {
		occupants := make([]string, 0, len(p.Occupants))
		for _, o := range p.Occupants {
			occupants = append(occupants, fmt.Sprintf("%s(%s)", o.ID, o.Type))
		}
		parts = append(parts, fmt.Sprintf("%s-%s [%s]", p.StartTime, p.EndTime, strings.Join(occupants, ", ")))
	}
	return fmt.Sprintf("    %-9s : %s", day, strings.Join(parts, " ; "))
}

// FormatJSON returns the JSON representation of the schedules
func FormatJSON(levels []models.LevelVariants) string {
	jsonBytes, _ := json.MarshalIndent(prepareDocuments(levels), "", "  ")
	return string(jsonBytes) + "\n"
}

// FormatYAML returns the YAML representation of the schedules
func FormatYAML(levels []models.LevelVariants) string {
	yamlBytes, _ := yaml.Marshal(prepareDocuments(levels))
	return string(yamlBytes)
}

// FormatCSV returns one CSV row per occupant placement
func FormatCSV(levels []models.LevelVariants) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{"Schedule", "Level", "Day", "Start", "End", "Assignee", "Type"})

	for _, lv := range levels {
		for _, v := range lv.Variants {
			for d, slot := range v.Days {
				for _, p := range slot.TimePeriods {
					for _, o := range p.Occupants {
						writer.Write([]string{
							v.Name,
							strconv.Itoa(lv.Level),
							time.Weekday(d).String(),
							p.StartTime,
							p.EndTime,
							o.ID,
							string(o.Type),
						})
					}
				}
			}
		}
	}

	writer.Flush()
	return sb.String()
}
