package timetable

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()

	base := Interval{Start: MustTimeOfDay(8, 0), End: MustTimeOfDay(10, 0)}
	replacement := Interval{Start: MustTimeOfDay(13, 0), End: MustTimeOfDay(15, 0)}

	cases := []struct {
		name     string
		status   EntryStatus
		override *Override
		want     EffectiveState
	}{
		{
			name:   "active base without override occupies base window",
			status: StatusActive,
			want:   EffectiveState{Status: StatusActive, Occupied: true, Window: base},
		},
		{
			name:   "holiday base without override is excluded",
			status: StatusHoliday,
			want:   EffectiveState{Status: StatusHoliday},
		},
		{
			name:   "postponed base without override is excluded like holiday",
			status: StatusPostponed,
			want:   EffectiveState{Status: StatusHoliday},
		},
		{
			name:     "holiday override excludes an active entry",
			status:   StatusActive,
			override: &Override{Status: StatusHoliday},
			want:     EffectiveState{Status: StatusHoliday},
		},
		{
			name:     "postponed override substitutes the replacement window",
			status:   StatusActive,
			override: &Override{Status: StatusPostponed, Window: replacement},
			want:     EffectiveState{Status: StatusPostponed, Occupied: true, Window: replacement},
		},
		{
			name:     "active override reinstates the base window over a holiday base",
			status:   StatusHoliday,
			override: &Override{Status: StatusActive},
			want:     EffectiveState{Status: StatusActive, Occupied: true, Window: base},
		},
		{
			name:     "postponed override applies even when base is postponed",
			status:   StatusPostponed,
			override: &Override{Status: StatusPostponed, Window: replacement},
			want:     EffectiveState{Status: StatusPostponed, Occupied: true, Window: replacement},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tc.status, base, tc.override)
			if got != tc.want {
				t.Errorf("Resolve(%s, %s, %+v) = %+v, want %+v", tc.status, base, tc.override, got, tc.want)
			}
		})
	}
}
