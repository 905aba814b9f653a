package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catmanduz/link-reminder/internal/alarm"
	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/index"
	"github.com/catmanduz/link-reminder/internal/links"
	"github.com/catmanduz/link-reminder/internal/logger"
)

var epoch = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store  *index.MemoryIndex
	repo   *links.Repository
	timers *alarm.Service
	sched  *Scheduler
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: index.NewMemoryIndex(), now: epoch}
	clock := func() time.Time { return f.now }

	f.repo = links.NewRepository(f.store, logger.NewNop(), links.WithClock(clock))
	f.timers = alarm.New(f.store, logger.NewNop(), alarm.WithClock(clock))
	f.sched = New(f.repo, f.timers, logger.NewNop(), WithClock(clock))
	f.repo.SetReminderCanceler(f.sched)
	return f
}

func (f *fixture) save(t *testing.T, url string) *domain.Link {
	t.Helper()
	link, err := f.repo.Upsert(context.Background(), domain.LinkInput{URL: url})
	require.NoError(t, err)
	return link
}

func (f *fixture) timer(t *testing.T, id string) (time.Time, bool) {
	t.Helper()
	when, ok, err := f.timers.Get(context.Background(), domain.TimerName(id))
	require.NoError(t, err)
	return when, ok
}

func ptr(t time.Time) *time.Time { return &t }

func TestArm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")

	at := epoch.Add(time.Hour)
	require.NoError(t, f.sched.Arm(ctx, link.ID, &at))

	got, err := f.repo.Get(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.True(t, got.ReminderAt.Equal(at))

	when, ok := f.timer(t, link.ID)
	require.True(t, ok)
	assert.True(t, when.Equal(at))
}

func TestArmReplacesPreviousTimer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")

	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))
	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(3*time.Hour))))

	all, err := f.timers.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.TimerName(link.ID), all[0].Name)
	assert.True(t, all[0].When.Equal(epoch.Add(3*time.Hour)))
}

func TestArmNilCancels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")

	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))
	require.NoError(t, f.sched.Arm(ctx, link.ID, nil))

	_, ok := f.timer(t, link.ID)
	assert.False(t, ok)
	got, _ := f.repo.Get(ctx, link.ID)
	assert.Nil(t, got.ReminderAt)
}

func TestArmInThePast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")
	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))

	tests := []struct {
		name string
		at   time.Time
	}{
		{"now", epoch},
		{"yesterday", epoch.Add(-24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.sched.Arm(ctx, link.ID, &tt.at)
			assert.ErrorIs(t, err, domain.ErrReminderInPast)

			_, ok := f.timer(t, link.ID)
			assert.False(t, ok)
			got, _ := f.repo.Get(ctx, link.ID)
			assert.Nil(t, got.ReminderAt)
		})
	}
}

func TestArmUnknownLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.sched.Arm(ctx, "ghost", ptr(epoch.Add(time.Hour))))

	all, err := f.timers.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDisarm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")

	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))
	require.NoError(t, f.sched.Disarm(ctx, link.ID))

	_, ok := f.timer(t, link.ID)
	assert.False(t, ok)
	got, _ := f.repo.Get(ctx, link.ID)
	assert.Nil(t, got.ReminderAt)

	// Unknown ids are a no-op
	require.NoError(t, f.sched.Disarm(ctx, "ghost"))
}

func TestDeleteCancelsTimer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")
	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))

	require.NoError(t, f.repo.Delete(ctx, link.ID))

	_, ok := f.timer(t, link.ID)
	assert.False(t, ok)
}

func TestClearAllCancelsTimers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.save(t, "https://example.com/a")
	b := f.save(t, "https://example.com/b")
	require.NoError(t, f.sched.Arm(ctx, a.ID, ptr(epoch.Add(time.Hour))))
	require.NoError(t, f.sched.Arm(ctx, b.ID, ptr(epoch.Add(2*time.Hour))))

	require.NoError(t, f.repo.ClearAll(ctx))

	all, err := f.timers.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRehydrate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	future := f.save(t, "https://example.com/future")
	past := f.save(t, "https://example.com/past")
	plain := f.save(t, "https://example.com/plain")

	require.NoError(t, f.sched.Arm(ctx, future.ID, ptr(epoch.Add(2*time.Hour))))
	require.NoError(t, f.sched.Arm(ctx, past.ID, ptr(epoch.Add(time.Hour))))

	// Simulate a restart: timers lost, an orphan left behind, clock moved on
	require.NoError(t, f.timers.Cancel(ctx, domain.TimerName(future.ID)))
	require.NoError(t, f.timers.Create(ctx, domain.TimerName(plain.ID), epoch.Add(5*time.Hour)))
	require.NoError(t, f.timers.Create(ctx, "other:job", epoch.Add(5*time.Hour)))
	f.now = epoch.Add(90 * time.Minute)

	report, err := f.sched.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, RehydrateReport{Rearmed: 1, Dropped: 1, Pruned: 1}, report)

	when, ok := f.timer(t, future.ID)
	require.True(t, ok)
	assert.True(t, when.Equal(epoch.Add(2*time.Hour)))

	_, ok = f.timer(t, past.ID)
	assert.False(t, ok)
	got, _ := f.repo.Get(ctx, past.ID)
	assert.Nil(t, got.ReminderAt)

	_, ok = f.timer(t, plain.ID)
	assert.False(t, ok)

	_, ok, err = f.timers.Get(ctx, "other:job")
	require.NoError(t, err)
	assert.True(t, ok, "registrations outside the reminder namespace are kept")
}

func TestRehydrateMissedReminderNeverFires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")
	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))

	var fired []string
	f.timers.OnFire(func(_ context.Context, name string) { fired = append(fired, name) })

	f.now = epoch.Add(2 * time.Hour)
	_, err := f.sched.Rehydrate(ctx)
	require.NoError(t, err)

	_, err = f.timers.FireDue(ctx)
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestPruneOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")
	require.NoError(t, f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour))))
	require.NoError(t, f.timers.Create(ctx, domain.TimerName("deleted"), epoch.Add(time.Hour)))

	n, err := f.sched.PruneOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := f.timer(t, link.ID)
	assert.True(t, ok)
}

type brokenTimers struct{}

func (brokenTimers) Create(context.Context, string, time.Time) error {
	return errors.New("store down")
}

func (brokenTimers) Cancel(context.Context, string) error { return nil }

func (brokenTimers) All(context.Context) ([]domain.Alarm, error) { return nil, nil }

func TestArmRollsBackWhenTimerCannotBeCreated(t *testing.T) {
	ctx := context.Background()
	store := index.NewMemoryIndex()
	clock := func() time.Time { return epoch }
	repo := links.NewRepository(store, logger.NewNop(), links.WithClock(clock))
	sched := New(repo, brokenTimers{}, logger.NewNop(), WithClock(clock))

	link, err := repo.Upsert(ctx, domain.LinkInput{URL: "https://example.com/a"})
	require.NoError(t, err)

	err = sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour)))
	require.Error(t, err)

	got, err := repo.Get(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReminderAt)
}

// gatedTimers holds the first Create until release is closed.
type gatedTimers struct {
	Timers
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTimers) Create(ctx context.Context, name string, when time.Time) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Timers.Create(ctx, name, when)
}

func TestOverlappingArmsKeepRecordAndTimerInStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gate := &gatedTimers{Timers: f.timers, entered: make(chan struct{}), release: make(chan struct{})}
	sched := New(f.repo, gate, logger.NewNop(), WithClock(func() time.Time { return f.now }))
	link := f.save(t, "https://example.com/a")

	t1 := epoch.Add(time.Hour)
	t2 := epoch.Add(2 * time.Hour)

	firstDone := make(chan error, 1)
	go func() { firstDone <- sched.Arm(ctx, link.ID, &t1) }()
	<-gate.entered

	secondDone := make(chan error, 1)
	go func() { secondDone <- sched.Arm(ctx, link.ID, &t2) }()

	select {
	case <-secondDone:
		t.Fatal("second arm ran while the first was still in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	got, err := f.repo.Get(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.True(t, got.ReminderAt.Equal(t2))

	when, ok := f.timer(t, link.ID)
	require.True(t, ok, "armed link has no timer")
	assert.True(t, when.Equal(t2))

	all, err := f.timers.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestArmWaitHonorsContext(t *testing.T) {
	f := newFixture(t)
	link := f.save(t, "https://example.com/a")

	release, err := f.sched.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = f.sched.Arm(ctx, link.ID, ptr(epoch.Add(time.Hour)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
