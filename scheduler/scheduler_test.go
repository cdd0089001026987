package scheduler_test

import (
	"errors"
	"testing"
	"time"

	customerrors "schedule-importer/errors"
	"schedule-importer/models"
	"schedule-importer/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(level int, id string, day time.Weekday, start, end string) models.AssignmentRow {
	return models.AssignmentRow{
		EscalationLevel: level,
		AssigneeID:      id,
		AssigneeType:    models.AssigneeUser,
		DayOfWeek:       day,
		StartTime:       start,
		EndTime:         end,
	}
}

func week(rows ...models.AssignmentRow) models.Week {
	w := models.NewWeek()
	for _, r := range rows {
		w[r.DayOfWeek].Entries = append(w[r.DayOfWeek].Entries, r)
	}
	return w
}

func user(id string) models.Occupant {
	return models.Occupant{ID: id, Type: models.AssigneeUser}
}

func TestSplitLevels(t *testing.T) {
	tests := map[string]struct {
		input          models.Week
		expectedLevels []int
		expectedNames  []string
	}{
		"Empty": {
			input:          models.NewWeek(),
			expectedLevels: []int{},
			expectedNames:  []string{},
		},
		"SingleLevel": {
			input:          week(entry(1, "U1", time.Monday, "09:00", "17:00")),
			expectedLevels: []int{1},
			expectedNames:  []string{"oncall_level_1"},
		},
		"LevelsSortedAscending": {
			input: week(
				entry(2, "U1", time.Sunday, "09:00", "17:00"),
				entry(0, "U2", time.Monday, "09:00", "17:00"),
				entry(1, "U3", time.Saturday, "09:00", "17:00"),
				entry(0, "U4", time.Saturday, "09:00", "17:00"),
			),
			expectedLevels: []int{0, 1, 2},
			expectedNames:  []string{"oncall_level_0", "oncall_level_1", "oncall_level_2"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			levels := scheduler.SplitLevels("oncall", tt.input)
			gotLevels := make([]int, 0, len(levels))
			gotNames := make([]string, 0, len(levels))
			for _, l := range levels {
				gotLevels = append(gotLevels, l.Level)
				gotNames = append(gotNames, l.Name)
			}
			assert.Equal(t, tt.expectedLevels, gotLevels)
			assert.Equal(t, tt.expectedNames, gotNames)
		})
	}
}

func TestSplitLevels_PreservesDayOrder(t *testing.T) {
	w := week(
		entry(0, "A", time.Tuesday, "00:00", "08:00"),
		entry(1, "B", time.Tuesday, "00:00", "08:00"),
		entry(0, "C", time.Tuesday, "08:00", "16:00"),
		entry(0, "D", time.Thursday, "00:00", "08:00"),
		entry(0, "E", time.Tuesday, "16:00", "24:00"),
	)
	levels := scheduler.SplitLevels("ep", w)
	require.Len(t, levels, 2)

	level0 := levels[0]
	assert.Equal(t, []models.AssignmentRow{w[time.Tuesday].Entries[0], w[time.Tuesday].Entries[2], w[time.Tuesday].Entries[3]}, level0.Days[time.Tuesday])
	assert.Equal(t, []models.AssignmentRow{w[time.Thursday].Entries[0]}, level0.Days[time.Thursday])
	assert.Empty(t, level0.Days[time.Monday])

	level1 := levels[1]
	assert.Equal(t, []models.AssignmentRow{w[time.Tuesday].Entries[1]}, level1.Days[time.Tuesday])
	for d := range level1.Days {
		if time.Weekday(d) != time.Tuesday {
			assert.Empty(t, level1.Days[d])
		}
	}
}

func TestMergePeriods(t *testing.T) {
	tests := map[string]struct {
		entries  []models.AssignmentRow
		expected []models.TimePeriod
	}{
		"SingleEntry": {
			entries: []models.AssignmentRow{entry(1, "U1", time.Monday, "09:00", "17:00")},
			expected: []models.TimePeriod{
				{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U1")}},
			},
		},
		"IdenticalWindowsMerge": {
			entries: []models.AssignmentRow{
				entry(1, "U1", time.Monday, "09:00", "17:00"),
				entry(1, "U2", time.Monday, "09:00", "17:00"),
			},
			expected: []models.TimePeriod{
				{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U1"), user("U2")}},
			},
		},
		"DistinctWindowsStaySeparate": {
			entries: []models.AssignmentRow{
				entry(1, "U1", time.Monday, "08:00", "12:00"),
				entry(1, "U2", time.Monday, "13:00", "17:00"),
			},
			expected: []models.TimePeriod{
				{StartTime: "08:00", EndTime: "12:00", Occupants: []models.Occupant{user("U1")}},
				{StartTime: "13:00", EndTime: "17:00", Occupants: []models.Occupant{user("U2")}},
			},
		},
		"OverlappingWindowsAreNotSplit": {
			entries: []models.AssignmentRow{
				entry(1, "U1", time.Monday, "00:00", "12:00"),
				entry(1, "U2", time.Monday, "06:00", "18:00"),
			},
			expected: []models.TimePeriod{
				{StartTime: "00:00", EndTime: "12:00", Occupants: []models.Occupant{user("U1")}},
				{StartTime: "06:00", EndTime: "18:00", Occupants: []models.Occupant{user("U2")}},
			},
		},
		"TextualComparisonOnly": {
			entries: []models.AssignmentRow{
				entry(1, "U1", time.Monday, "09:00", "17:00"),
				entry(1, "U2", time.Monday, "09:00:00", "17:00:00"),
			},
			expected: []models.TimePeriod{
				{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U1")}},
				{StartTime: "09:00:00", EndTime: "17:00:00", Occupants: []models.Occupant{user("U2")}},
			},
		},
		"FirstOccurrenceOrder": {
			entries: []models.AssignmentRow{
				entry(1, "U1", time.Monday, "12:00", "18:00"),
				entry(1, "U2", time.Monday, "00:00", "12:00"),
				entry(1, "U3", time.Monday, "12:00", "18:00"),
			},
			expected: []models.TimePeriod{
				{StartTime: "12:00", EndTime: "18:00", Occupants: []models.Occupant{user("U1"), user("U3")}},
				{StartTime: "00:00", EndTime: "12:00", Occupants: []models.Occupant{user("U2")}},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(tt.entries...)))
			require.Len(t, merged, 1)
			assert.Equal(t, tt.expected, merged[0].Days[time.Monday].TimePeriods)
			for d, slot := range merged[0].Days {
				if time.Weekday(d) != time.Monday {
					assert.Empty(t, slot.TimePeriods)
				}
			}
		})
	}
}

func TestResolveOverlaps_NoMultiKeepsName(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(0, "U1", time.Monday, "08:00", "12:00"),
		entry(0, "U2", time.Monday, "13:00", "17:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)

	require.Len(t, resolved, 1)
	require.Len(t, resolved[0].Variants, 1)
	assert.Equal(t, "ep_level_0", resolved[0].Variants[0].Name)
	assert.Equal(t, merged[0].Days, resolved[0].Variants[0].Days)
}

func TestResolveOverlaps_SplitsOccupantsByRank(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(1, "U1", time.Monday, "09:00", "17:00"),
		entry(1, "U2", time.Monday, "09:00", "17:00"),
		entry(1, "U3", time.Monday, "09:00", "17:00"),
		entry(1, "S1", time.Monday, "17:00", "24:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)

	require.Len(t, resolved, 1)
	variants := resolved[0].Variants
	require.Len(t, variants, 3)
	assert.Equal(t, "ep_level_1", resolved[0].Name)
	assert.Equal(t, "ep_level_1_multi_1", variants[0].Name)
	assert.Equal(t, "ep_level_1_multi_2", variants[1].Name)
	assert.Equal(t, "ep_level_1_multi_3", variants[2].Name)

	assert.Equal(t, []models.TimePeriod{
		{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U1")}},
		{StartTime: "17:00", EndTime: "24:00", Occupants: []models.Occupant{user("S1")}},
	}, variants[0].Days[time.Monday].TimePeriods)
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U2")}},
	}, variants[1].Days[time.Monday].TimePeriods)
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U3")}},
	}, variants[2].Days[time.Monday].TimePeriods)

	// The merged input is left untouched.
	assert.Len(t, merged[0].Days[time.Monday].TimePeriods[0].Occupants, 3)
	require.NoError(t, scheduler.VerifyCoverage(merged, resolved))
}

func TestResolveOverlaps_DifferingCountsAcrossDays(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(0, "A", time.Monday, "00:00", "24:00"),
		entry(0, "B", time.Monday, "00:00", "24:00"),
		entry(0, "C", time.Wednesday, "00:00", "12:00"),
		entry(0, "D", time.Wednesday, "00:00", "12:00"),
		entry(0, "E", time.Wednesday, "00:00", "12:00"),
		entry(0, "F", time.Wednesday, "12:00", "24:00"),
		entry(0, "G", time.Wednesday, "12:00", "24:00"),
		entry(0, "H", time.Friday, "00:00", "24:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)
	require.NoError(t, scheduler.VerifyCoverage(merged, resolved))

	variants := resolved[0].Variants
	require.Len(t, variants, 3)

	// Variant 3 is created lazily on Wednesday; earlier days exist but are empty.
	assert.Equal(t, "ep_level_0_multi_3", variants[2].Name)
	assert.Empty(t, variants[2].Days[time.Sunday].TimePeriods)
	assert.Empty(t, variants[2].Days[time.Monday].TimePeriods)
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "00:00", EndTime: "12:00", Occupants: []models.Occupant{user("E")}},
	}, variants[2].Days[time.Wednesday].TimePeriods)

	// Same rank on different days and periods shares a variant.
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "00:00", EndTime: "24:00", Occupants: []models.Occupant{user("B")}},
	}, variants[1].Days[time.Monday].TimePeriods)
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "00:00", EndTime: "12:00", Occupants: []models.Occupant{user("D")}},
		{StartTime: "12:00", EndTime: "24:00", Occupants: []models.Occupant{user("G")}},
	}, variants[1].Days[time.Wednesday].TimePeriods)

	// Single-occupant periods stay on variant 1 only.
	assert.Equal(t, []models.TimePeriod{
		{StartTime: "00:00", EndTime: "24:00", Occupants: []models.Occupant{user("H")}},
	}, variants[0].Days[time.Friday].TimePeriods)
	assert.Empty(t, variants[1].Days[time.Friday].TimePeriods)
	assert.Empty(t, variants[2].Days[time.Friday].TimePeriods)
}

func TestResolveOverlaps_LevelsAreIndependent(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(0, "A", time.Monday, "09:00", "17:00"),
		entry(0, "B", time.Monday, "09:00", "17:00"),
		entry(1, "C", time.Monday, "09:00", "17:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)

	require.Len(t, resolved, 2)
	assert.Len(t, resolved[0].Variants, 2)
	assert.Equal(t, "ep_level_0_multi_1", resolved[0].Variants[0].Name)
	assert.Len(t, resolved[1].Variants, 1)
	assert.Equal(t, "ep_level_1", resolved[1].Variants[0].Name)
}

func TestResolveOverlaps_NPlacementsForNOccupants(t *testing.T) {
	for n := 2; n <= 6; n++ {
		rows := make([]models.AssignmentRow, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, entry(0, string(rune('A'+i)), time.Thursday, "10:00", "11:00"))
		}
		resolved := scheduler.ResolveOverlaps(scheduler.MergePeriods(scheduler.SplitLevels("ep", week(rows...))))

		require.Len(t, resolved[0].Variants, n)
		seen := make([]string, 0, n)
		for _, v := range resolved[0].Variants {
			periods := v.Days[time.Thursday].TimePeriods
			require.Len(t, periods, 1)
			require.Len(t, periods[0].Occupants, 1)
			seen = append(seen, periods[0].Occupants[0].ID)
		}
		expected := make([]string, 0, n)
		for _, r := range rows {
			expected = append(expected, r.AssigneeID)
		}
		assert.Equal(t, expected, seen)
	}
}

func TestVerifyCoverage_DetectsLoss(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(0, "A", time.Monday, "09:00", "17:00"),
		entry(0, "B", time.Monday, "09:00", "17:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)
	resolved[0].Variants = resolved[0].Variants[:1]

	err := scheduler.VerifyCoverage(merged, resolved)
	assert.True(t, errors.Is(err, customerrors.ErrCoverageMismatch))
}

func TestVerifyCoverage_DetectsDuplicate(t *testing.T) {
	merged := scheduler.MergePeriods(scheduler.SplitLevels("ep", week(
		entry(0, "A", time.Monday, "09:00", "17:00"),
	)))
	resolved := scheduler.ResolveOverlaps(merged)
	resolved[0].Variants = append(resolved[0].Variants, resolved[0].Variants[0])

	err := scheduler.VerifyCoverage(merged, resolved)
	assert.True(t, errors.Is(err, customerrors.ErrCoverageMismatch))
}

func TestBuild_Scenarios(t *testing.T) {
	t.Run("A_SingleRow", func(t *testing.T) {
		levels, err := scheduler.Build("ep", week(entry(1, "U1", time.Monday, "09:00", "17:00")))
		require.NoError(t, err)
		require.Len(t, levels, 1)
		assert.Equal(t, 1, levels[0].Level)
		require.Len(t, levels[0].Variants, 1)

		v := levels[0].Variants[0]
		assert.Equal(t, "ep_level_1", v.Name)
		for d, slot := range v.Days {
			if time.Weekday(d) == time.Monday {
				assert.Equal(t, []models.TimePeriod{
					{StartTime: "09:00", EndTime: "17:00", Occupants: []models.Occupant{user("U1")}},
				}, slot.TimePeriods)
				continue
			}
			assert.Empty(t, slot.TimePeriods)
		}
	})

	t.Run("B_SharedWindow", func(t *testing.T) {
		levels, err := scheduler.Build("ep", week(
			entry(1, "U1", time.Monday, "09:00", "17:00"),
			entry(1, "U2", time.Monday, "09:00", "17:00"),
		))
		require.NoError(t, err)
		require.Len(t, levels[0].Variants, 2)
		assert.Equal(t, "ep_level_1_multi_1", levels[0].Variants[0].Name)
		assert.Equal(t, []models.Occupant{user("U1")}, levels[0].Variants[0].Days[time.Monday].TimePeriods[0].Occupants)
		assert.Equal(t, "ep_level_1_multi_2", levels[0].Variants[1].Name)
		assert.Equal(t, []models.Occupant{user("U2")}, levels[0].Variants[1].Days[time.Monday].TimePeriods[0].Occupants)
	})

	t.Run("D_DistinctWindows", func(t *testing.T) {
		levels, err := scheduler.Build("ep", week(
			entry(1, "U1", time.Monday, "08:00", "12:00"),
			entry(1, "U2", time.Monday, "13:00", "17:00"),
		))
		require.NoError(t, err)
		require.Len(t, levels[0].Variants, 1)
		assert.Equal(t, "ep_level_1", levels[0].Variants[0].Name)
		assert.Len(t, levels[0].Variants[0].Days[time.Monday].TimePeriods, 2)
	})
}
