package domain

import "fmt"

// BlessStatus is a resident's position in the engagement funnel.
type BlessStatus string

const (
	BlessStatusPrayer BlessStatus = "Prayer"
	BlessStatusListen BlessStatus = "Listen"
	BlessStatusEat    BlessStatus = "Eat"
	BlessStatusServe  BlessStatus = "Serve"
	BlessStatusStory  BlessStatus = "Story"
)

// BlessStatuses lists every stage in canonical funnel order.
var BlessStatuses = []BlessStatus{
	BlessStatusPrayer,
	BlessStatusListen,
	BlessStatusEat,
	BlessStatusServe,
	BlessStatusStory,
}

// UnknownStatusColor is used for values outside the funnel.
const UnknownStatusColor = "#6b7280"

var statusColors = map[BlessStatus]string{
	BlessStatusPrayer: "#3b82f6",
	BlessStatusListen: "#10b981",
	BlessStatusEat:    "#f97316",
	BlessStatusServe:  "#ef4444",
	BlessStatusStory:  "#eab308",
}

// ParseBlessStatus validates a raw stage name.
func ParseBlessStatus(raw string) (BlessStatus, error) {
	status := BlessStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown bless status %q", raw)
	}
	return status, nil
}

// Valid reports whether s is one of the five funnel stages.
func (s BlessStatus) Valid() bool {
	return s.Index() >= 0
}

// Index returns the canonical position of s, or -1.
func (s BlessStatus) Index() int {
	for i, candidate := range BlessStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// StatusColor maps a funnel stage to its pin color.
func StatusColor(s BlessStatus) string {
	if color, ok := statusColors[s]; ok {
		return color
	}
	return UnknownStatusColor
}
