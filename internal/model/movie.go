package model

import "time"

// Movie represents a film in the venue's catalogue, stored in the
// `movies` table. Duration drives the derived end time of every show
// that screens the movie and is treated as immutable once a show
// references it.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – movie title.
//  Description – synopsis or marketing text.
//  Duration    – runtime in minutes (positive).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Duration    uint32    `json:"duration"` // minutes
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
