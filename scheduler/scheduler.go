package scheduler

import (
	"fmt"
	"schedule-importer/metrics"
	"schedule-importer/models"
	"sort"
	"time"
)

// Build turns the day buckets of one named source into per-level schedule
// variants. The stages run strictly in order: levels, periods, overlaps.
// The result is checked against the merged periods before it is returned.
func Build(name string, days models.Week) ([]models.LevelVariants, error) {
	start := time.Now()
	defer func() {
		metrics.SchedulerDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	levels := SplitLevels(name, days)
	merged := MergePeriods(levels)
	resolved := ResolveOverlaps(merged)
	if err := VerifyCoverage(merged, resolved); err != nil {
		return nil, err
	}

	metrics.SchedulerLevelsTotal.Add(float64(len(resolved)))
	for _, lv := range resolved {
		metrics.SchedulerVariantsTotal.Add(float64(len(lv.Variants)))
	}
	return resolved, nil
}

// SplitLevels re-partitions the day buckets into one schedule per escalation
// level, ordered by ascending level. A level gets all seven days the first
// time one of its entries is seen; entries keep their bucket order.
func SplitLevels(name string, days models.Week) []models.LevelSchedule {
	byLevel := make(map[int]*models.LevelSchedule)
	for _, bucket := range days {
		for _, entry := range bucket.Entries {
			level, ok := byLevel[entry.EscalationLevel]
			if !ok {
				level = &models.LevelSchedule{
					Level: entry.EscalationLevel,
					Name:  LevelName(name, entry.EscalationLevel),
				}
				byLevel[entry.EscalationLevel] = level
			}
			level.Days[entry.DayOfWeek] = append(level.Days[entry.DayOfWeek], entry)
		}
	}

	levels := make([]models.LevelSchedule, 0, len(byLevel))
	for _, level := range byLevel {
		levels = append(levels, *level)
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Level < levels[j].Level
	})
	return levels
}

// LevelName is the schedule name of one escalation level.
func LevelName(name string, level int) string {
	return fmt.Sprintf("%s_level_%d", name, level)
}
