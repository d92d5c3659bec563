package service

import (
	"math"
	"slices"

	"github.com/spec-kit/bless-tracker/internal/domain"
)

const (
	// CoverageGoal is the resident count that represents full coverage.
	CoverageGoal = 50
	// FocusListSize bounds the "needs attention" list.
	FocusListSize = 5
)

// FunnelStage is one bar of the engagement funnel.
type FunnelStage struct {
	Status domain.BlessStatus
	Color  string
	Count  int
	Ratio  float64
}

// Dashboard is the derived view over a resident collection.
type Dashboard struct {
	Total           int
	Funnel          []FunnelStage
	Coverage        float64
	CoveragePercent int
	TopOfFunnel     int
	Focus           []domain.Resident
}

// FunnelCounts counts residents per stage in canonical order.
func FunnelCounts(residents []domain.Resident) []FunnelStage {
	counts := make(map[domain.BlessStatus]int, len(domain.BlessStatuses))
	for _, resident := range residents {
		counts[resident.CurrentBlessStatus]++
	}

	total := len(residents)
	stages := make([]FunnelStage, 0, len(domain.BlessStatuses))
	for _, status := range domain.BlessStatuses {
		stage := FunnelStage{Status: status, Color: domain.StatusColor(status), Count: counts[status]}
		if total > 0 {
			stage.Ratio = float64(stage.Count) / float64(total)
		}
		stages = append(stages, stage)
	}
	return stages
}

// Coverage returns n/CoverageGoal clamped to [0, 1].
func Coverage(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(float64(n)/CoverageGoal, 1)
}

// CoveragePercent returns Coverage as a rounded percentage.
func CoveragePercent(n int) int {
	return int(math.Round(Coverage(n) * 100))
}

// StalenessRanking returns up to limit residents, least recently contacted
// first. Ties keep their input order.
func StalenessRanking(residents []domain.Resident, limit int) []domain.Resident {
	if limit <= 0 {
		return []domain.Resident{}
	}
	ranked := slices.Clone(residents)
	slices.SortStableFunc(ranked, func(a, b domain.Resident) int {
		return a.LastInteraction.Compare(b.LastInteraction)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// BuildDashboard derives every dashboard figure from residents.
func BuildDashboard(residents []domain.Resident) Dashboard {
	funnel := FunnelCounts(residents)
	return Dashboard{
		Total:           len(residents),
		Funnel:          funnel,
		Coverage:        Coverage(len(residents)),
		CoveragePercent: CoveragePercent(len(residents)),
		TopOfFunnel:     funnel[domain.BlessStatusPrayer.Index()].Count,
		Focus:           StalenessRanking(residents, FocusListSize),
	}
}
