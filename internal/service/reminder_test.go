package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spec-kit/bless-tracker/internal/devicecache"
	"github.com/spec-kit/bless-tracker/internal/domain"
	"github.com/spec-kit/bless-tracker/internal/testutil"
)

type staticResidents []domain.Resident

func (s staticResidents) Residents() []domain.Resident { return s }

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 6, hour, minute, 0, 0, time.UTC)
}

func TestNextReminderAt(t *testing.T) {
	tomorrow8 := time.Date(2024, 5, 7, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		now   time.Time
		fired bool
		want  time.Time
	}{
		{"before the hour", at(6, 15), false, at(8, 0)},
		{"at the boundary", at(8, 0), false, at(8, 0)},
		{"inside the hour", at(8, 42), false, at(8, 42)},
		{"after the hour", at(9, 0), false, tomorrow8},
		{"already fired", at(8, 5), true, tomorrow8},
		{"already fired before the hour", at(7, 0), true, tomorrow8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextReminderAt(tc.now, 8, tc.fired))
		})
	}
}

type reminderFixture struct {
	clock     *testutil.Clock
	notifier  *testutil.Notifier
	device    *devicecache.Scoped
	enabled   bool
	scheduler *ReminderScheduler
}

func newReminderFixture(t *testing.T, residents staticResidents, now time.Time) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		clock:    testutil.NewClock(now),
		notifier: testutil.NewNotifier(),
		device:   devicecache.NewScoped(devicecache.NewMemoryCache(), ownerID),
		enabled:  true,
	}
	f.scheduler = NewReminderScheduler(ReminderDependencies{
		Source:   residents,
		Notifier: f.notifier,
		Settings: ReminderSettings{Hour: 8, Location: time.UTC, RetryInterval: time.Minute},
		Enabled:  func() bool { return f.enabled },
		Clock:    f.clock.Now,
		Pick:     func(n int) int { return n - 1 },
	})
	f.scheduler.Bind(ownerID, f.device)
	return f
}

func sampleResidents() staticResidents {
	return staticResidents{
		residentAt("recent", domain.BlessStatusPrayer, at(7, 0)),
		residentAt("Ana", domain.BlessStatusListen, at(1, 0)),
		residentAt("Ben", domain.BlessStatusEat, at(2, 0)),
	}
}

func TestTickBeforeHourWaits(t *testing.T) {
	f := newReminderFixture(t, sampleResidents(), at(7, 10))
	assert.Equal(t, at(8, 0), f.scheduler.Tick(context.Background()))
	assert.Empty(t, f.notifier.Messages())
}

func TestTickFiresOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newReminderFixture(t, sampleResidents(), at(8, 0))

	next := f.scheduler.Tick(ctx)
	assert.Equal(t, time.Date(2024, 5, 7, 8, 0, 0, 0, time.UTC), next)
	msgs := f.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ReminderTitle, msgs[0].Title)
	assert.Equal(t, "Lift up recent today.", msgs[0].Body)
	assert.Equal(t, ownerID, msgs[0].UserID)

	stamp, ok, err := f.device.Get(ctx, devicecache.KeyLastReminderDate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-05-06", stamp)

	f.clock.Set(at(8, 30))
	f.scheduler.Tick(ctx)
	assert.Len(t, f.notifier.Messages(), 1)

	f.clock.Set(time.Date(2024, 5, 7, 8, 1, 0, 0, time.UTC))
	f.scheduler.Tick(ctx)
	assert.Len(t, f.notifier.Messages(), 2)
}

func TestTickPicksFromStalenessRanking(t *testing.T) {
	f := newReminderFixture(t, sampleResidents(), at(8, 5))
	f.scheduler.pick = func(int) int { return 0 }
	f.scheduler.Tick(context.Background())
	require.Len(t, f.notifier.Messages(), 1)
	assert.Equal(t, "Lift up Ana today.", f.notifier.Messages()[0].Body)
}

func TestTickWithoutResidentsRetriesInsideWindow(t *testing.T) {
	f := newReminderFixture(t, nil, at(8, 10))
	assert.Equal(t, at(8, 11), f.scheduler.Tick(context.Background()))

	f.clock.Set(at(8, 59).Add(30 * time.Second))
	assert.Equal(t, time.Date(2024, 5, 7, 8, 0, 0, 0, time.UTC), f.scheduler.Tick(context.Background()))
	assert.Empty(t, f.notifier.Messages())
}

func TestTickDisabledDoesNothing(t *testing.T) {
	f := newReminderFixture(t, sampleResidents(), at(8, 10))
	f.enabled = false
	f.scheduler.Tick(context.Background())
	assert.Empty(t, f.notifier.Messages())
	_, ok, _ := f.device.Get(context.Background(), devicecache.KeyLastReminderDate)
	assert.False(t, ok)
}

func TestTickNotifyFailureStillMarksDay(t *testing.T) {
	f := newReminderFixture(t, sampleResidents(), at(8, 10))
	f.notifier.NotifyErr = errors.New("push service down")
	f.scheduler.Tick(context.Background())
	stamp, _, _ := f.device.Get(context.Background(), devicecache.KeyLastReminderDate)
	assert.Equal(t, "2024-05-06", stamp)
}

func TestSchedulerStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	f := newReminderFixture(t, sampleResidents(), at(8, 20))

	f.scheduler.Start()
	f.scheduler.Start()
	assert.True(t, f.scheduler.Running())

	msg, err := f.notifier.Next(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, ReminderTitle, msg.Title)

	f.scheduler.Stop()
	assert.False(t, f.scheduler.Running())
	f.scheduler.Stop()
	assert.Len(t, f.notifier.Messages(), 1)

	f.scheduler.Start()
	assert.True(t, f.scheduler.Running())
	f.scheduler.Stop()
	assert.Len(t, f.notifier.Messages(), 1, "already fired today")
}
