package registry

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-scheduler/internal/clock"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/notifier"
)

// oneMillisecond is one millisecond expressed in minutes.
const oneMillisecond = 1.0 / 60000

// epoch is the fake clock's starting time.
//
//nolint:gochecknoglobals // Shared test fixture.
var epoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// recordingNotifier captures every fired alarm.
type recordingNotifier struct {
	// mu protects fired.
	mu sync.Mutex
	// fired holds the snapshots in delivery order.
	fired []*domain.Alarm
	// onFire runs after recording, when set.
	onFire func(alarm *domain.Alarm)
}

// Fire records the alarm and runs the optional hook.
func (n *recordingNotifier) Fire(_ context.Context, alarm *domain.Alarm) {
	n.mu.Lock()
	n.fired = append(n.fired, alarm)
	hook := n.onFire
	n.mu.Unlock()

	if hook != nil {
		hook(alarm)
	}
}

// names returns the names of fired alarms in order.
func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	result := make([]string, 0, len(n.fired))
	for _, alarm := range n.fired {
		result = append(result, alarm.Name)
	}

	return result
}

// all returns a copy of the recorded alarms.
func (n *recordingNotifier) all() []*domain.Alarm {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]*domain.Alarm(nil), n.fired...)
}

// newTestRegistry builds a registry on a fake clock with a recording notifier.
func newTestRegistry() (*Registry, *clock.FakeClock, *recordingNotifier) {
	clk := clock.Fake(epoch)
	rec := new(recordingNotifier)

	return New(context.Background(), clk, rec), clk, rec
}

// TestCreate_DelayOnly fires a one-shot alarm once and removes it.
func TestCreate_DelayOnly(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "a", &domain.Info{DelayInMinutes: domain.Float(oneMillisecond)}))

	got, ok := r.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, "a", got.Name)
	require.Equal(t, epoch.Add(time.Millisecond), got.ScheduledTime)
	require.Nil(t, got.PeriodInMinutes)

	clk.Advance(time.Millisecond)

	fired := rec.all()
	require.Len(t, fired, 1)
	require.Equal(t, epoch.Add(time.Millisecond), fired[0].ScheduledTime)
	require.Nil(t, fired[0].PeriodInMinutes)

	_, ok = r.Get(ctx, "a")
	require.False(t, ok)
	require.Empty(t, r.GetAll(ctx))

	clk.Advance(time.Hour)
	require.Len(t, rec.all(), 1)
	require.Zero(t, clk.PendingCount())
}

// TestCreate_WhenOnly uses the absolute time as the scheduled time.
func TestCreate_WhenOnly(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()
	when := epoch.Add(100 * time.Millisecond)

	require.NoError(t, r.Create(ctx, "myalarm", &domain.Info{When: &when}))

	clk.Advance(99 * time.Millisecond)
	require.Empty(t, rec.all())

	clk.Advance(time.Millisecond)

	fired := rec.all()
	require.Len(t, fired, 1)
	require.Equal(t, "myalarm", fired[0].Name)
	require.Equal(t, when, fired[0].ScheduledTime)
	require.Nil(t, fired[0].PeriodInMinutes)
}

// TestCreate_WhenInPast fires on the next clock tick.
func TestCreate_WhenInPast(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	when := epoch.Add(-time.Minute)

	require.NoError(t, r.Create(context.Background(), "late", &domain.Info{When: &when}))

	clk.Advance(0)
	require.Equal(t, []string{"late"}, rec.names())
	require.Equal(t, when, rec.all()[0].ScheduledTime)
}

// TestCreate_PeriodOnly fires repeatedly with the period as the first delay.
func TestCreate_PeriodOnly(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "b", &domain.Info{PeriodInMinutes: domain.Float(oneMillisecond)}))

	for range 5 {
		clk.Advance(time.Millisecond)
	}

	fired := rec.all()
	require.Len(t, fired, 5)

	for i, alarm := range fired {
		require.Equal(t, "b", alarm.Name)
		require.NotNil(t, alarm.PeriodInMinutes)
		require.InDelta(t, oneMillisecond, *alarm.PeriodInMinutes, 0)
		require.Equal(t, epoch.Add(time.Duration(i+1)*time.Millisecond), alarm.ScheduledTime)
	}

	// The registry already holds the next due time.
	got, ok := r.Get(ctx, "b")
	require.True(t, ok)
	require.Equal(t, epoch.Add(6*time.Millisecond), got.ScheduledTime)
	require.Equal(t, 1, clk.PendingCount())
}

// TestCreate_DelayAndPeriod uses the delay first and the period afterwards.
func TestCreate_DelayAndPeriod(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()

	info := &domain.Info{
		DelayInMinutes:  domain.Float(0.0005),
		PeriodInMinutes: domain.Float(0.001),
	}
	require.NoError(t, r.Create(context.Background(), "myalarm", info))

	clk.Advance(30 * time.Millisecond)
	clk.Advance(60 * time.Millisecond)
	clk.Advance(60 * time.Millisecond)

	fired := rec.all()
	require.Len(t, fired, 3)
	require.Equal(t, epoch.Add(30*time.Millisecond), fired[0].ScheduledTime)
	require.Equal(t, epoch.Add(90*time.Millisecond), fired[1].ScheduledTime)
	require.Equal(t, epoch.Add(150*time.Millisecond), fired[2].ScheduledTime)

	for _, alarm := range fired {
		require.InDelta(t, 0.001, *alarm.PeriodInMinutes, 0)
	}
}

// TestCreate_Invalid rejects contradictory or empty options without touching existing alarms.
func TestCreate_Invalid(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "keep", &domain.Info{DelayInMinutes: domain.Float(1)}))

	before, ok := r.Get(ctx, "keep")
	require.True(t, ok)

	when := epoch.Add(time.Minute)
	err := r.Create(ctx, "keep", &domain.Info{When: &when, DelayInMinutes: domain.Float(2)})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.ErrorContains(t, err, "cannot set both")

	err = r.Create(ctx, "keep", new(domain.Info))
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = r.Create(ctx, "other", nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	after, ok := r.Get(ctx, "keep")
	require.True(t, ok)
	require.Equal(t, before, after)
	require.Equal(t, 1, r.Len())
	require.Equal(t, 1, clk.PendingCount())

	clk.Advance(time.Minute)
	require.Equal(t, []string{"keep"}, rec.names())
}

// TestCreate_ReplacesExisting cancels the previous schedule of the same name.
func TestCreate_ReplacesExisting(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "x", &domain.Info{PeriodInMinutes: domain.Float(1)}))
	require.NoError(t, r.Create(ctx, "x", &domain.Info{DelayInMinutes: domain.Float(2)}))
	require.Equal(t, 1, clk.PendingCount())

	got, ok := r.Get(ctx, "x")
	require.True(t, ok)
	require.Nil(t, got.PeriodInMinutes)
	require.Equal(t, epoch.Add(2*time.Minute), got.ScheduledTime)

	clk.Advance(time.Minute)
	require.Empty(t, rec.all())

	clk.Advance(time.Minute)
	require.Equal(t, []string{"x"}, rec.names())

	clk.Advance(time.Hour)
	require.Len(t, rec.all(), 1)
}

// TestDefaultName treats the empty string as a regular name.
func TestDefaultName(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "", &domain.Info{DelayInMinutes: domain.Float(1)}))

	got, ok := r.Get(ctx, "")
	require.True(t, ok)
	require.Empty(t, got.Name)

	require.True(t, r.Clear(ctx, ""))
	require.Zero(t, r.Len())
}

// TestGet_Snapshots returns copies that cannot change the registry.
func TestGet_Snapshots(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "alarm3", &domain.Info{PeriodInMinutes: domain.Float(3)}))

	got, ok := r.Get(ctx, "alarm3")
	require.True(t, ok)

	*got.PeriodInMinutes = 100
	got.ScheduledTime = time.Time{}

	again, ok := r.Get(ctx, "alarm3")
	require.True(t, ok)
	require.InDelta(t, 3, *again.PeriodInMinutes, 0)
	require.Equal(t, epoch.Add(3*time.Minute), again.ScheduledTime)

	_, ok = r.Get(ctx, "missing")
	require.False(t, ok)
}

// TestGetAll lists every alarm exactly once.
func TestGetAll(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry()
	ctx := context.Background()
	future := epoch.Add(100 * time.Second)

	require.NoError(t, r.Create(ctx, "alarm1", &domain.Info{When: &future}))
	require.NoError(t, r.Create(ctx, "alarm2", &domain.Info{DelayInMinutes: domain.Float(2)}))
	require.NoError(t, r.Create(ctx, "alarm3", &domain.Info{PeriodInMinutes: domain.Float(3)}))

	want := map[string]*domain.Alarm{
		"alarm1": {Name: "alarm1", ScheduledTime: future},
		"alarm2": {Name: "alarm2", ScheduledTime: epoch.Add(2 * time.Minute)},
		"alarm3": {Name: "alarm3", ScheduledTime: epoch.Add(3 * time.Minute), PeriodInMinutes: domain.Float(3)},
	}

	all := r.GetAll(ctx)
	require.Len(t, all, len(want))

	seen := make(map[string]bool, len(all))
	for _, alarm := range all {
		require.False(t, seen[alarm.Name], "duplicate alarm %q", alarm.Name)
		seen[alarm.Name] = true
		require.Equal(t, want[alarm.Name], alarm)
	}
}

// TestClear stops only the cleared alarm.
func TestClear(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()
	when := epoch.Add(200 * time.Millisecond)

	require.NoError(t, r.Create(ctx, "alarm1", &domain.Info{When: &when}))
	require.NoError(t, r.Create(ctx, "alarm2", &domain.Info{DelayInMinutes: domain.Float(0.0001)}))
	require.NoError(t, r.Create(ctx, "alarm3", &domain.Info{PeriodInMinutes: domain.Float(0.0002)}))

	require.True(t, r.Clear(ctx, "alarm3"))
	require.False(t, r.Clear(ctx, "alarm3"))
	require.False(t, r.Clear(ctx, "never-created"))

	clk.Advance(210 * time.Millisecond)

	require.ElementsMatch(t, []string{"alarm1", "alarm2"}, rec.names())
	require.Empty(t, r.GetAll(ctx))
}

// TestClearAll stops every alarm and is safe on an empty registry.
func TestClearAll(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.Zero(t, r.ClearAll(ctx))

	require.NoError(t, r.Create(ctx, "alarm1", &domain.Info{DelayInMinutes: domain.Float(0.001)}))
	require.NoError(t, r.Create(ctx, "alarm2", &domain.Info{PeriodInMinutes: domain.Float(0.001)}))

	require.Equal(t, 2, r.ClearAll(ctx))
	require.Empty(t, r.GetAll(ctx))
	require.Zero(t, clk.PendingCount())

	clk.Advance(time.Minute)
	require.Empty(t, rec.all())
	require.Zero(t, r.ClearAll(ctx))
}

// TestMultipleAlarms fires independent one-shot alarms in due order.
func TestMultipleAlarms(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	for i, name := range []string{"alarm3", "alarm1", "alarm2"} {
		when := epoch.Add(time.Duration(90-30*i) * time.Millisecond)
		require.NoError(t, r.Create(ctx, name, &domain.Info{When: &when}))
	}

	clk.Advance(100 * time.Millisecond)
	require.Equal(t, []string{"alarm2", "alarm1", "alarm3"}, rec.names())
	require.Empty(t, r.GetAll(ctx))
}

// TestFire_StaleCallback ignores callbacks for entries that were cleared or replaced.
func TestFire_StaleCallback(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "x", &domain.Info{DelayInMinutes: domain.Float(1)}))

	r.mu.Lock()
	stale := r.alarms["x"]
	r.mu.Unlock()

	// Cleared while the callback was in flight.
	require.True(t, r.Clear(ctx, "x"))
	r.fire(stale)
	require.Empty(t, rec.all())

	// Replaced while the callback was in flight.
	require.NoError(t, r.Create(ctx, "x", &domain.Info{DelayInMinutes: domain.Float(1)}))

	r.mu.Lock()
	replaced := r.alarms["x"]
	r.mu.Unlock()

	require.NoError(t, r.Create(ctx, "x", &domain.Info{DelayInMinutes: domain.Float(5)}))
	r.fire(replaced)
	require.Empty(t, rec.all())

	got, ok := r.Get(ctx, "x")
	require.True(t, ok)
	require.Equal(t, epoch.Add(5*time.Minute), got.ScheduledTime)

	clk.Advance(5 * time.Minute)
	require.Equal(t, []string{"x"}, rec.names())
}

// TestFire_ListenerClearsPeriodicAlarm lets a listener stop its own periodic alarm.
func TestFire_ListenerClearsPeriodicAlarm(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	rec.onFire = func(alarm *domain.Alarm) {
		r.Clear(ctx, alarm.Name)
	}

	require.NoError(t, r.Create(ctx, "p", &domain.Info{PeriodInMinutes: domain.Float(oneMillisecond)}))

	clk.Advance(time.Millisecond)
	clk.Advance(time.Millisecond)

	require.Equal(t, []string{"p"}, rec.names())
	require.Zero(t, r.Len())
	require.Zero(t, clk.PendingCount())
}

// TestFire_ListenerPanicKeepsPeriodicAlarm re-arms the alarm even when a listener panics.
func TestFire_ListenerPanicKeepsPeriodicAlarm(t *testing.T) {
	t.Parallel()

	clk := clock.Fake(epoch)
	events := notifier.New()
	r := New(context.Background(), clk, events)
	ctx := context.Background()

	calls := 0

	events.AddListener("broken", func(context.Context, *domain.Alarm) {
		calls++

		panic("listener failure")
	})

	require.NoError(t, r.Create(ctx, "p", &domain.Info{PeriodInMinutes: domain.Float(oneMillisecond)}))

	clk.Advance(time.Millisecond)
	clk.Advance(time.Millisecond)
	clk.Advance(time.Millisecond)

	require.Equal(t, 3, calls)

	got, ok := r.Get(ctx, "p")
	require.True(t, ok)
	require.Equal(t, epoch.Add(4*time.Millisecond), got.ScheduledTime)
}

// TestFire_NilNotifier still reschedules without anybody listening.
func TestFire_NilNotifier(t *testing.T) {
	t.Parallel()

	clk := clock.Fake(epoch)
	r := New(context.Background(), clk, nil)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "once", &domain.Info{DelayInMinutes: domain.Float(oneMillisecond)}))
	require.NoError(t, r.Create(ctx, "every", &domain.Info{PeriodInMinutes: domain.Float(oneMillisecond)}))

	clk.Advance(time.Millisecond)

	_, ok := r.Get(ctx, "once")
	require.False(t, ok)

	_, ok = r.Get(ctx, "every")
	require.True(t, ok)
}

// TestCreate_HugeValuesStayInTheFuture keeps periods and delays beyond the
// duration range from wrapping into the past.
func TestCreate_HugeValuesStayInTheFuture(t *testing.T) {
	t.Parallel()

	r, clk, rec := newTestRegistry()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, "period", &domain.Info{PeriodInMinutes: domain.Float(1e9)}))
	require.NoError(t, r.Create(ctx, "delay", &domain.Info{DelayInMinutes: domain.Float(1e12)}))

	clk.Advance(0)
	clk.Advance(24 * time.Hour)
	require.Empty(t, rec.all())
	require.Equal(t, 2, clk.PendingCount())

	for _, alarm := range r.GetAll(ctx) {
		require.True(t, alarm.ScheduledTime.After(clk.Now()), alarm.Name)
		require.Equal(t, epoch.Add(math.MaxInt64), alarm.ScheduledTime, alarm.Name)
	}
}
