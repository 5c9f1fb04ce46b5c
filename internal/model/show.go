package model

import "time"

// ShowState is the lifecycle state of a show. It is a closed set of
// values; invalid states are rejected at the boundary so the rest of
// the code can trust the type.
type ShowState string

const (
	// ShowActive marks a show that is scheduled and sells tickets.
	// Active shows participate in room conflict checks.
	ShowActive ShowState = "ACTIVE"
	// ShowCanceled marks a show that has been called off. Canceled
	// shows never block other shows from taking their slot.
	ShowCanceled ShowState = "CANCELED"
)

// ValidShowState reports whether s is one of the known show states.
func ValidShowState(s ShowState) bool {
	return s == ShowActive || s == ShowCanceled
}

// TurnaroundBuffer is the fixed padding added after a movie's runtime
// before the room is considered free again. Every show's EndAt is
// StartAt + movie duration + this buffer.
const TurnaroundBuffer = 30 * time.Minute

// Show represents a scheduled screening of a movie in a room over a
// derived time interval, stored in the `shows` table. EndAt is never
// set by callers; it is recomputed from StartAt and the movie's
// duration whenever either changes.
//
// Fields:
//  ID        – primary key identifier.
//  RoomID    – room where the screening takes place.
//  MovieID   – movie being screened.
//  StartAt   – when the screening begins.
//  EndAt     – StartAt + movie duration + TurnaroundBuffer.
//  State     – ACTIVE or CANCELED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Show struct {
	ID        uint64    `json:"id"`
	RoomID    uint64    `json:"room_id"`
	MovieID   uint64    `json:"movie_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	State     ShowState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShowEnd derives the end of a screening that starts at startAt for a
// movie of the given duration in minutes, including the turnaround
// buffer.
func ShowEnd(startAt time.Time, durationMin uint32) time.Time {
	return startAt.Add(time.Duration(durationMin)*time.Minute + TurnaroundBuffer)
}
