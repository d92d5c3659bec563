package dto

import (
	"time"

	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/events"
	"github.com/spec-kit/bless-tracker/internal/service"
)

// FunnelStageResponse is one funnel bar.
type FunnelStageResponse struct {
	Status domain.BlessStatus `json:"status"`
	Color  string             `json:"color"`
	Count  int                `json:"count"`
	Ratio  float64            `json:"ratio"`
}

// FocusResidentResponse is an entry of the needs-attention list.
type FocusResidentResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Address         string             `json:"address"`
	Status          domain.BlessStatus `json:"status"`
	LastInteraction time.Time          `json:"last_interaction"`
}

// DashboardResponse is the dashboard payload.
type DashboardResponse struct {
	Total           int                     `json:"total"`
	Goal            int                     `json:"goal"`
	Coverage        float64                 `json:"coverage"`
	CoveragePercent int                     `json:"coverage_percent"`
	TopOfFunnel     int                     `json:"top_of_funnel"`
	Funnel          []FunnelStageResponse   `json:"funnel"`
	Focus           []FocusResidentResponse `json:"focus"`
}

// NewDashboardResponse maps a dashboard.
func NewDashboardResponse(d service.Dashboard) DashboardResponse {
	funnel := make([]FunnelStageResponse, 0, len(d.Funnel))
	for _, stage := range d.Funnel {
		funnel = append(funnel, FunnelStageResponse(stage))
	}
	focus := make([]FocusResidentResponse, 0, len(d.Focus))
	for _, r := range d.Focus {
		focus = append(focus, FocusResidentResponse{
			ID:              r.ID,
			Name:            r.Name,
			Address:         r.Address,
			Status:          r.CurrentBlessStatus,
			LastInteraction: r.LastInteraction,
		})
	}
	return DashboardResponse{
		Total:           d.Total,
		Goal:            service.CoverageGoal,
		Coverage:        d.Coverage,
		CoveragePercent: d.CoveragePercent,
		TopOfFunnel:     d.TopOfFunnel,
		Funnel:          funnel,
		Focus:           focus,
	}
}

// NotificationsResponse reports the reminder preference.
type NotificationsResponse struct {
	Enabled        bool                 `json:"enabled"`
	ReminderActive bool                 `json:"reminder_active"`
	Sync           service.RemoteStatus `json:"sync,omitempty"`
}

// SyncFailureResponse describes a remote write that did not land.
type SyncFailureResponse struct {
	Operation  events.EventType `json:"operation"`
	ResidentID string           `json:"resident_id,omitempty"`
	Step       string           `json:"step,omitempty"`
	Error      string           `json:"error"`
	At         time.Time        `json:"at"`
}

// NewSyncFailures maps failure events.
func NewSyncFailures(evts []events.Event) []SyncFailureResponse {
	out := make([]SyncFailureResponse, 0, len(evts))
	for _, evt := range evts {
		failure := SyncFailureResponse{Operation: evt.Type, ResidentID: evt.ResidentID, At: evt.Timestamp}
		if payload, ok := evt.Payload.(events.RemoteWritePayload); ok {
			failure.Step = payload.Step
			failure.Error = payload.Error
		}
		out = append(out, failure)
	}
	return out
}
