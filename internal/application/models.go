package application

// Principal represents the authenticated user invoking a service method.
// Representative marks a class-section representative; SectionID names the
// section they speak for.
type Principal struct {
	UserID         string
	SectionID      string
	IsAdmin        bool
	Representative bool
}

// EntryInput captures caller provided fields for a recurring schedule entry.
// Weekday, Start, End and Status arrive as wire strings and are validated by
// the service.
type EntryInput struct {
	SectionID    string
	CourseID     string
	InstructorID string
	RoomID       string
	Weekday      string
	Start        string
	End          string
	Status       string
}

// CreateEntryParams wraps the data required to create a schedule entry.
type CreateEntryParams struct {
	Principal Principal
	Input     EntryInput
}

// UpdateEntryParams wraps the data required to update an existing schedule entry.
type UpdateEntryParams struct {
	Principal Principal
	EntryID   string
	Input     EntryInput
}

// ListEntriesParams narrows timetable listings.
type ListEntriesParams struct {
	SectionID    string
	RoomID       string
	InstructorID string
	Weekday      string
}

// OverrideInput captures caller provided fields for a dated exception. Start
// and End are required only when Status is postponed.
type OverrideInput struct {
	Date   string
	Status string
	Start  string
	End    string
}

// SetOverrideParams wraps the data required to record a dated exception.
type SetOverrideParams struct {
	Principal Principal
	EntryID   string
	Input     OverrideInput
}

// ClearOverrideParams wraps the data required to remove a dated exception.
type ClearOverrideParams struct {
	Principal Principal
	EntryID   string
	Date      string
}

// ResolveScheduleParams identifies the resource and date to project occupancy for.
type ResolveScheduleParams struct {
	Kind       string
	ResourceID string
	Date       string
}

// CheckConflictParams describes a what-if conflict probe. ExcludeSource and
// ExcludeID skip one occupancy record, so an edit can probe its own slot.
type CheckConflictParams struct {
	Kind          string
	ResourceID    string
	Date          string
	Start         string
	End           string
	ExcludeSource string
	ExcludeID     string
}

// AvailableRoomsParams asks which rooms are free for a window on a date.
type AvailableRoomsParams struct {
	Date  string
	Start string
	End   string
}

// ReservationInput captures caller provided fields for an ad hoc reservation.
type ReservationInput struct {
	RoomID       string
	InstructorID string
	SectionID    string
	CourseID     string
	Date         string
	Start        string
	End          string
	Note         string
}

// CreateReservationParams wraps the data required to request a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// ReservationDecisionParams wraps the data required to approve or reject a reservation.
type ReservationDecisionParams struct {
	Principal     Principal
	ReservationID string
}

// ListReservationsParams narrows reservation listings.
type ListReservationsParams struct {
	RoomID      string
	RequesterID string
	Date        string
	Status      string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
}

// InstructorInput captures caller provided instructor fields.
type InstructorInput struct {
	Code string
	Name string
}

// ClassSectionInput captures caller provided class-section fields.
type ClassSectionInput struct {
	Name     string
	Program  string
	Semester int
}

// CourseInput captures caller provided course fields.
type CourseInput struct {
	Name     string
	Program  string
	Semester int
}
