// Package report computes aggregate performance figures over a tenant's
// deals. All functions are pure and operate on in-memory snapshots.
package report

import (
	"sort"
	"time"

	"github.com/dealdesk/dealdesk/internal/deal"
	"github.com/dealdesk/dealdesk/internal/model"
)

// Summary is the organization-wide overview block.
type Summary struct {
	TotalValue float64 `json:"totalValue"`
	WonValue   float64 `json:"wonValue"`
	WinRate    float64 `json:"winRate"` // percent, 0 when no closed deals
	TotalDeals int     `json:"totalDeals"`
	WonDeals   int     `json:"wonDeals"`
	LostDeals  int     `json:"lostDeals"`
}

// MemberStats is one row of the per-teammate breakdown.
type MemberStats struct {
	UserID     string  `json:"userId"`
	Name       string  `json:"name"`
	Deals      int     `json:"deals"`
	WonDeals   int     `json:"wonDeals"`
	LostDeals  int     `json:"lostDeals"`
	TotalValue float64 `json:"totalValue"`
	WonValue   float64 `json:"wonValue"`
	WinRate    float64 `json:"winRate"`
}

// StageStats is one bar of the pipeline distribution chart.
type StageStats struct {
	Stage string  `json:"stage"`
	Color string  `json:"color"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Narrow restricts deals to those created within the last rangeDays days
// (0 means all time) and, when ownerID is non-empty, to one owner.
func Narrow(deals []model.Deal, rangeDays int, ownerID string, now time.Time) []model.Deal {
	out := make([]model.Deal, 0, len(deals))
	var cutoff time.Time
	if rangeDays > 0 {
		cutoff = now.AddDate(0, 0, -rangeDays)
	}
	for _, d := range deals {
		if rangeDays > 0 && d.CreatedAt.Before(cutoff) {
			continue
		}
		if ownerID != "" && d.OwnerID != ownerID {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Summarize folds a deal set into the overview figures. Win rate is
// won/(won+lost) over closed deals only.
func Summarize(deals []model.Deal) Summary {
	var s Summary
	s.TotalDeals = len(deals)
	for _, d := range deals {
		s.TotalValue += d.Value
		switch d.Stage {
		case deal.StageWon:
			s.WonDeals++
			s.WonValue += d.Value
		case deal.StageLost:
			s.LostDeals++
		}
	}
	if closed := s.WonDeals + s.LostDeals; closed > 0 {
		s.WinRate = float64(s.WonDeals) / float64(closed) * 100
	}
	return s
}

// ByMember breaks the deal set down per team member, sorted by total value
// descending. Members with no deals still get a zero row.
func ByMember(deals []model.Deal, members []model.User) []MemberStats {
	out := make([]MemberStats, 0, len(members))
	for _, m := range members {
		row := MemberStats{UserID: m.ID, Name: m.DisplayName}
		if row.Name == "" {
			row.Name = m.Email
		}
		for _, d := range deals {
			if d.OwnerID != m.ID {
				continue
			}
			row.Deals++
			row.TotalValue += d.Value
			switch d.Stage {
			case deal.StageWon:
				row.WonDeals++
				row.WonValue += d.Value
			case deal.StageLost:
				row.LostDeals++
			}
		}
		if closed := row.WonDeals + row.LostDeals; closed > 0 {
			row.WinRate = float64(row.WonDeals) / float64(closed) * 100
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalValue > out[j].TotalValue })
	return out
}

// ByStage counts and sums deals per pipeline stage, in pipeline order.
// Deals whose stage is absent from the current pipeline are not represented;
// stage strings on deals are best-effort display data.
func ByStage(deals []model.Deal, stages model.Stages) []StageStats {
	out := make([]StageStats, 0, len(stages))
	for _, s := range stages {
		row := StageStats{Stage: s.Name, Color: s.Color}
		for _, d := range deals {
			if d.Stage == s.Name {
				row.Count++
				row.Value += d.Value
			}
		}
		out = append(out, row)
	}
	return out
}
