package academic

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tsakani/alama/core"
)

// LeaderboardEntry is one ranked row of the peer leaderboard.
type LeaderboardEntry struct {
	Rank               int             `json:"rank"`
	ProfileID          string          `json:"profile_id"`
	UserID             string          `json:"user_id"`
	DisplayName        string          `json:"display_name"`
	RegistrationNumber string          `json:"registration_number"`
	GPA                decimal.Decimal `json:"-"`
}

// Leaderboard ranks all profiles sharing the viewer's institution and program
// by cumulative GPA, descending. Each peer's GPA is computed concurrently and
// the whole filtered set is ranked before the page window is cut, so rank
// numbers are consistent across page boundaries. Ties are broken by
// registration number ascending. Returns the page entries and the total
// number of ranked peers.
func (svc *Service) Leaderboard(ctx context.Context, userID string, pg core.Pagination) ([]LeaderboardEntry, int, error) {
	viewer, err := svc.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	peers, err := svc.profileRepo.FilterPeerProfiles(ctx, viewer.Institution, viewer.Program)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]LeaderboardEntry, len(peers))
	errs := make([]error, len(peers))

	var wg sync.WaitGroup
	for i, peer := range peers {
		wg.Add(1)
		go func(i int, peer Profile) {
			defer wg.Done()
			gpa, err := svc.ComputeGPA(ctx, peer.UserID, "")
			if err != nil {
				errs[i] = err
				return
			}
			entries[i] = LeaderboardEntry{
				ProfileID:          peer.ID,
				UserID:             peer.UserID,
				DisplayName:        peer.FullName,
				RegistrationNumber: peer.RegistrationNumber,
				GPA:                gpa,
			}
		}(i, peer)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, 0, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if cmp := entries[i].GPA.Cmp(entries[j].GPA); cmp != 0 {
			return cmp > 0
		}
		return entries[i].RegistrationNumber < entries[j].RegistrationNumber
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	pg = pg.Normalize()
	start, end := pg.Cut(len(entries))
	return entries[start:end], len(entries), nil
}
