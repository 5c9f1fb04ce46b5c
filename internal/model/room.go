package model

import "time"

// Room represents a screening room of the venue as stored in the
// `rooms` table. A room that is not in service (State == false) is
// under maintenance: it is excluded from show scheduling and from
// occupancy queries until it is reactivated.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – unique room name.
//  Description       – free-form description shown to visitors.
//  Type              – projection type (e.g. "standard", "imax", "3d").
//  State             – true when the room is in service, false while under maintenance.
//  HandicapAvailable – whether the room has accessible seating.
//  Capacity          – number of seats; the ceiling for a show's visit count.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Room struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Type              string    `json:"type"`
	State             bool      `json:"state"`
	HandicapAvailable bool      `json:"handicap_available"`
	Capacity          uint32    `json:"capacity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
