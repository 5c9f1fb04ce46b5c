package model

// ShowVisits pairs a show with its computed visit count for the
// reporting period. VisitCount is room capacity minus the remaining
// places, i.e. the number of used tickets booked onto the show.
type ShowVisits struct {
	Show       Show   `json:"show"`
	VisitCount uint32 `json:"visit_count"`
}

// Stats is the aggregate produced by the stats service over a
// filtered window of shows. A request that matches no shows yields a
// nil *Stats, never an empty aggregate, so callers can tell "no data"
// apart from "zero visitors".
type Stats struct {
	Shows           []ShowVisits `json:"shows"`
	VisitsCount     uint64       `json:"visits_count"`
	MostPopularShow ShowVisits   `json:"most_popular_show"`
}
