package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseBlessStatus(t *testing.T) {
	for i, status := range BlessStatuses {
		parsed, err := ParseBlessStatus(string(status))
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
		assert.Equal(t, i, parsed.Index())
	}

	_, err := ParseBlessStatus("Pray")
	assert.Error(t, err)
	assert.Equal(t, -1, BlessStatus("").Index())
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "#3b82f6", StatusColor(BlessStatusPrayer))
	assert.Equal(t, "#10b981", StatusColor(BlessStatusListen))
	assert.Equal(t, "#f97316", StatusColor(BlessStatusEat))
	assert.Equal(t, "#ef4444", StatusColor(BlessStatusServe))
	assert.Equal(t, "#eab308", StatusColor(BlessStatusStory))
	assert.Equal(t, UnknownStatusColor, StatusColor("Wander"))
}

func TestResidentClone(t *testing.T) {
	now := time.Now()
	original := Resident{
		ID:             "r1",
		PrayerRequests: ptr("health"),
		Interactions: []Interaction{
			{ID: "i1", Kind: InteractionNote, Content: ptr("hi"), Timestamp: now},
		},
		LastInteraction: now,
	}

	clone := original.Clone()
	*clone.PrayerRequests = "changed"
	*clone.Interactions[0].Content = "changed"
	clone.Interactions[0].ID = "other"

	assert.Equal(t, "health", *original.PrayerRequests)
	assert.Equal(t, "hi", *original.Interactions[0].Content)
	assert.Equal(t, "i1", original.Interactions[0].ID)
}

func TestResidentCheckInvariants(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	valid := Resident{
		ID:                 "r1",
		CurrentBlessStatus: BlessStatusEat,
		Interactions: []Interaction{
			{ID: "i3", Kind: InteractionNote, Timestamp: t1},
			{ID: "i2", Kind: InteractionStatusChange, Status: ptr(BlessStatusEat), Timestamp: t1},
			{ID: "i1", Kind: InteractionCreation, Status: ptr(BlessStatusPrayer), Timestamp: t0},
		},
		LastInteraction: t1,
	}
	require.NoError(t, valid.CheckInvariants())

	t.Run("stale last interaction", func(t *testing.T) {
		r := valid.Clone()
		r.LastInteraction = t0
		assert.Error(t, r.CheckInvariants())
	})

	t.Run("status mismatch", func(t *testing.T) {
		r := valid.Clone()
		r.CurrentBlessStatus = BlessStatusPrayer
		assert.Error(t, r.CheckInvariants())
	})

	t.Run("out of order", func(t *testing.T) {
		r := valid.Clone()
		r.Interactions[0], r.Interactions[2] = r.Interactions[2], r.Interactions[0]
		assert.Error(t, r.CheckInvariants())
	})

	t.Run("note with status does not count", func(t *testing.T) {
		r := valid.Clone()
		r.Interactions[0].Status = ptr(BlessStatusStory)
		assert.NoError(t, r.CheckInvariants())
	})
}

func TestResidentPatch(t *testing.T) {
	r := Resident{Name: DefaultResidentName, Address: "somewhere"}

	patch := ResidentPatch{Name: ptr("Maria"), PrayerRequests: ptr("new job")}
	require.False(t, patch.Empty())
	patch.Apply(&r)

	assert.Equal(t, "Maria", r.Name)
	assert.Equal(t, "somewhere", r.Address)
	require.NotNil(t, r.PrayerRequests)
	assert.Equal(t, "new job", *r.PrayerRequests)

	fields := patch.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, AttributeName, fields[0].Attribute)
	assert.Equal(t, AttributePrayerRequests, fields[1].Attribute)

	assert.True(t, ResidentPatch{}.Empty())
	assert.Empty(t, ResidentPatch{}.Fields())
}
