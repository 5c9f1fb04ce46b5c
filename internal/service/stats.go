package service

import (
	"context"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// ShowSource is the slice of the show repository the stats service
// reads from.
type ShowSource interface {
	List(ctx context.Context, f repository.ListShowFilter) ([]model.Show, int64, error)
	UsedTicketCount(ctx context.Context, showID uint64) (uint32, error)
}

// StatsFilter selects the shows a stats report covers. The embedded
// show filter (pagination, time window, movie, room) is applied
// first; the visit-count bounds are applied to the page that comes
// back, so a tight page size can trim candidates before the count
// filter sees them.
type StatsFilter struct {
	repository.ListShowFilter
	VisitCountMin *uint32
	VisitCountMax *uint32
}

// StatsService builds visitor reports over scheduled shows.
type StatsService struct {
	Shows ShowSource
}

// NewStatsService constructs a StatsService and panics if the show
// source is nil.
func NewStatsService(shows ShowSource) *StatsService {
	if shows == nil {
		panic("nil show source passed to NewStatsService")
	}
	return &StatsService{Shows: shows}
}

// ComputeStats returns per-show visit counts for the selected shows
// together with the total visitor count and the most popular show.
// When no show survives the filters it returns nil, which the handler
// serializes as an explicit null body. Ties on the popularity count
// keep the show encountered first.
func (s *StatsService) ComputeStats(ctx context.Context, f StatsFilter) (*model.Stats, error) {
	shows, _, err := s.Shows.List(ctx, f.ListShowFilter)
	if err != nil {
		return nil, err
	}

	var visits []model.ShowVisits
	for _, sh := range shows {
		count, err := s.Shows.UsedTicketCount(ctx, sh.ID)
		if err != nil {
			return nil, err
		}
		if f.VisitCountMin != nil && count < *f.VisitCountMin {
			continue
		}
		if f.VisitCountMax != nil && count > *f.VisitCountMax {
			continue
		}
		visits = append(visits, model.ShowVisits{Show: sh, VisitCount: count})
	}
	if len(visits) == 0 {
		return nil, nil
	}
	return aggregate(visits), nil
}

// aggregate folds per-show visit counts into a Stats report. The
// most popular slot only moves on a strictly greater count.
func aggregate(visits []model.ShowVisits) *model.Stats {
	st := &model.Stats{Shows: visits, MostPopularShow: visits[0]}
	for _, v := range visits {
		st.VisitsCount += uint64(v.VisitCount)
		if v.VisitCount > st.MostPopularShow.VisitCount {
			st.MostPopularShow = v
		}
	}
	return st
}
