package scheduler

import (
	"fmt"
	"schedule-importer/errors"
	"schedule-importer/metrics"
	"schedule-importer/models"
)

// ResolveOverlaps splits every time period covered by more than one assignee
// across numbered schedule variants, so that each variant holds at most one
// occupant per period.
//
// Variant 1 is the level schedule itself. It is renamed "<name>_multi_1" as
// soon as the level has a multi-occupant period, and keeps only the first
// occupant of such periods. The k-th occupant of a period goes to variant k,
// which is created on first use with seven empty days. Variants are matched
// by occupant rank, so the same rank on different days shares a variant.
func ResolveOverlaps(levels []models.PeriodSchedule) []models.LevelVariants {
	resolved := make([]models.LevelVariants, len(levels))
	for i, level := range levels {
		resolved[i] = models.LevelVariants{
			Level:    level.Level,
			Name:     level.Name,
			Variants: resolveLevel(level),
		}
	}
	return resolved
}

func resolveLevel(level models.PeriodSchedule) []models.ScheduleVariant {
	primary := models.ScheduleVariant{Name: level.Name}
	for d, slot := range level.Days {
		primary.Days[d].TimePeriods = append([]models.TimePeriod(nil), slot.TimePeriods...)
	}
	variants := []models.ScheduleVariant{primary}

	for d, slot := range level.Days {
		for p, period := range slot.TimePeriods {
			if len(period.Occupants) < 2 {
				continue
			}
			metrics.SchedulerMultiPeriodsTotal.Inc()
			variants[0].Name = MultiName(level.Name, 1)
			variants[0].Days[d].TimePeriods[p].Occupants = []models.Occupant{period.Occupants[0]}

			for rank := 2; rank <= len(period.Occupants); rank++ {
				if rank > len(variants) {
					variants = append(variants, models.ScheduleVariant{Name: MultiName(level.Name, rank)})
				}
				v := &variants[rank-1]
				v.Days[d].TimePeriods = append(v.Days[d].TimePeriods, models.TimePeriod{
					StartTime: period.StartTime,
					EndTime:   period.EndTime,
					Occupants: []models.Occupant{period.Occupants[rank-1]},
				})
			}
		}
	}
	return variants
}

// MultiName is the name of the rank-th parallel variant of a level.
func MultiName(levelName string, rank int) string {
	return fmt.Sprintf("%s_multi_%d", levelName, rank)
}

type coverageKey struct {
	day      int
	start    string
	end      string
	occupant models.Occupant
}

// VerifyCoverage checks that, for every level, day and time window, the
// occupants spread over all variants are exactly those of the merged period.
func VerifyCoverage(merged []models.PeriodSchedule, resolved []models.LevelVariants) error {
	if len(merged) != len(resolved) {
		return fmt.Errorf("%w: %d levels merged, %d resolved", errors.ErrCoverageMismatch, len(merged), len(resolved))
	}
	for i, level := range merged {
		if resolved[i].Level != level.Level {
			return fmt.Errorf("%w: level %d resolved as %d", errors.ErrCoverageMismatch, level.Level, resolved[i].Level)
		}
		counts := make(map[coverageKey]int)
		for d, slot := range level.Days {
			for _, period := range slot.TimePeriods {
				for _, occ := range period.Occupants {
					counts[coverageKey{d, period.StartTime, period.EndTime, occ}]++
				}
			}
		}
		for _, variant := range resolved[i].Variants {
			for d, slot := range variant.Days {
				for _, period := range slot.TimePeriods {
					for _, occ := range period.Occupants {
						counts[coverageKey{d, period.StartTime, period.EndTime, occ}]--
					}
				}
			}
		}
		for key, n := range counts {
			if n != 0 {
				return fmt.Errorf("%w: level %d, day %d, %s-%s, %s: placement delta %+d",
					errors.ErrCoverageMismatch, level.Level, key.day, key.start, key.end, key.occupant.ID, -n)
			}
		}
	}
	return nil
}
