package sqlite

import (
	"context"
	"fmt"
)

// schema is applied in one shot at startup. Times are stored as "HH:MM" and
// dates as "YYYY-MM-DD"; both compare correctly as text.
const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	capacity   INTEGER NOT NULL DEFAULT 0 CHECK (capacity >= 0),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS instructors (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS class_sections (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	program    TEXT NOT NULL DEFAULT '',
	semester   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	program    TEXT NOT NULL DEFAULT '',
	semester   INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_entries (
	id            TEXT PRIMARY KEY,
	section_id    TEXT NOT NULL REFERENCES class_sections(id),
	course_id     TEXT NOT NULL REFERENCES courses(id),
	instructor_id TEXT NOT NULL REFERENCES instructors(id),
	room_id       TEXT NOT NULL REFERENCES rooms(id),
	weekday       INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
	start_time    TEXT NOT NULL,
	end_time      TEXT NOT NULL,
	status        TEXT NOT NULL CHECK (status IN ('active', 'holiday', 'postponed')),
	confirmed_by  TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_schedule_entries_room
	ON schedule_entries(room_id, weekday);
CREATE INDEX IF NOT EXISTS idx_schedule_entries_instructor
	ON schedule_entries(instructor_id, weekday);
CREATE INDEX IF NOT EXISTS idx_schedule_entries_section
	ON schedule_entries(section_id, weekday);

CREATE TABLE IF NOT EXISTS schedule_overrides (
	entry_id   TEXT NOT NULL REFERENCES schedule_entries(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL CHECK (status IN ('active', 'holiday', 'postponed')),
	start_time TEXT,
	end_time   TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (entry_id, date),
	CHECK (start_time IS NULL OR end_time IS NULL OR start_time < end_time)
);

CREATE TABLE IF NOT EXISTS reservations (
	id            TEXT PRIMARY KEY,
	room_id       TEXT NOT NULL REFERENCES rooms(id),
	instructor_id TEXT NOT NULL DEFAULT '',
	section_id    TEXT NOT NULL DEFAULT '',
	course_id     TEXT NOT NULL DEFAULT '',
	requester_id  TEXT NOT NULL,
	date          TEXT NOT NULL,
	start_time    TEXT NOT NULL,
	end_time      TEXT NOT NULL,
	status        TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
	note          TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_reservations_room_date
	ON reservations(room_id, date);
CREATE INDEX IF NOT EXISTS idx_reservations_status
	ON reservations(status);
`

// Migrate creates the schema if it does not exist yet.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
