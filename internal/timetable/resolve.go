package timetable

// Override is a date-scoped exception applied to one recurring entry. Window
// is meaningful only when Status is StatusPostponed.
type Override struct {
	Status EntryStatus
	Window Interval
}

// EffectiveState is the resolved, per-date disposition of a recurring entry:
// either an occupied window or no occupancy at all.
type EffectiveState struct {
	Status   EntryStatus
	Occupied bool
	Window   Interval
}

// Resolve computes the state actually in force on a date from an entry's base
// status and window plus an optional override for that date.
//
// The override, when present, is authoritative for its date:
//
//   - StatusHoliday excludes the entry entirely.
//   - StatusPostponed substitutes the replacement window.
//   - StatusActive reinstates the base window, regardless of base status.
//
// With no override, only a base status of StatusActive occupies. A base status
// of StatusPostponed carries no replacement window of its own, so it is
// treated like StatusHoliday until a dated override supplies one.
func Resolve(base EntryStatus, baseWindow Interval, override *Override) EffectiveState {
	if override != nil {
		switch override.Status {
		case StatusHoliday:
			return EffectiveState{Status: StatusHoliday}
		case StatusPostponed:
			return EffectiveState{Status: StatusPostponed, Occupied: true, Window: override.Window}
		default:
			return EffectiveState{Status: StatusActive, Occupied: true, Window: baseWindow}
		}
	}

	if base == StatusActive {
		return EffectiveState{Status: StatusActive, Occupied: true, Window: baseWindow}
	}
	return EffectiveState{Status: StatusHoliday}
}
