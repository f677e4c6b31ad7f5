package scheduler

import (
	"context"
	"fmt"

	"github.com/example/campus-scheduler/internal/timetable"
)

// Conflict describes a collision between a candidate interval and existing
// effective occupancy on one resource dimension.
type Conflict struct {
	Dimension  ResourceKind
	ResourceID string
	With       OccupancyRef
	Interval   timetable.Interval
}

// Detector decides whether candidate intervals collide with the effective
// occupancy reported by the resolver.
type Detector struct {
	resolver *Resolver
}

// NewDetector wires a detector to its resolver.
func NewDetector(resolver *Resolver) *Detector {
	return &Detector{resolver: resolver}
}

// FindConflict returns the first occupancy that overlaps the candidate
// interval on the given resource and date, or nil when the interval is clear.
// exclude skips the occupancy record an edit operation is about to replace,
// so a record never conflicts with itself.
//
// Overlap uses the single half-open predicate [a,b) ∩ [c,d) ≠ ∅ iff
// a < d && c < b; touching endpoints never conflict.
func (d *Detector) FindConflict(ctx context.Context, kind ResourceKind, resourceID string, date timetable.Date, candidate timetable.Interval, exclude *OccupancyRef) (*Conflict, error) {
	if d == nil || d.resolver == nil {
		return nil, fmt.Errorf("scheduler: detector is not configured")
	}
	if !candidate.Valid() {
		return nil, fmt.Errorf("%w: %s", timetable.ErrInvalidInterval, candidate)
	}

	occupancies, err := d.resolver.EffectiveOccupancy(ctx, kind, resourceID, date)
	if err != nil {
		return nil, err
	}

	for _, occupancy := range occupancies {
		if exclude != nil && occupancy.Ref == *exclude {
			continue
		}
		if candidate.Overlaps(occupancy.Interval) {
			return &Conflict{
				Dimension:  kind,
				ResourceID: resourceID,
				With:       occupancy.Ref,
				Interval:   occupancy.Interval,
			}, nil
		}
	}

	return nil, nil
}

// HasConflict reports whether the candidate interval collides with any
// effective occupancy of the resource on the date.
func (d *Detector) HasConflict(ctx context.Context, kind ResourceKind, resourceID string, date timetable.Date, candidate timetable.Interval, exclude *OccupancyRef) (bool, error) {
	conflict, err := d.FindConflict(ctx, kind, resourceID, date, candidate, exclude)
	if err != nil {
		return false, err
	}
	return conflict != nil, nil
}
