package scheduler

import "schedule-importer/models"

// MergePeriods collapses the entries of every day into time periods.
// Entries whose start and end strings are identical share one period; any
// other pair, including ranges that merely overlap, gets its own period.
// Periods are emitted in order of first occurrence.
func MergePeriods(levels []models.LevelSchedule) []models.PeriodSchedule {
	merged := make([]models.PeriodSchedule, len(levels))
	for i, level := range levels {
		merged[i] = models.PeriodSchedule{Level: level.Level, Name: level.Name}
		for d, entries := range level.Days {
			merged[i].Days[d] = mergeDay(entries)
		}
	}
	return merged
}

func mergeDay(entries []models.AssignmentRow) models.DaySlot {
	var slot models.DaySlot
	for _, entry := range entries {
		// TODO: split periods that overlap without matching exactly once the output contract allows it.
		idx := -1
		for p := range slot.TimePeriods {
			if slot.TimePeriods[p].SameWindow(entry.StartTime, entry.EndTime) {
				idx = p
				break
			}
		}
		if idx >= 0 {
			slot.TimePeriods[idx].Occupants = append(slot.TimePeriods[idx].Occupants, entry.Occupant())
			continue
		}
		slot.TimePeriods = append(slot.TimePeriods, models.TimePeriod{
			StartTime: entry.StartTime,
			EndTime:   entry.EndTime,
			Occupants: []models.Occupant{entry.Occupant()},
		})
	}
	return slot
}
