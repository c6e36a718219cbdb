package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubConn) TrySend(core.Frame) error { return nil }

func (c *stubConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func TestRegistryMembership(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{}
	reg.Bind("c1", conn, nil)

	_, ok := reg.RoomOf("c1")
	assert.False(t, ok)

	require.True(t, reg.UpdateRoom("c1", "ROOM", true))
	ms, ok := reg.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, Membership{Room: "ROOM", Pending: true}, ms)

	reg.RemoveRoom("c1", "OTHER")
	_, ok = reg.RoomOf("c1")
	assert.True(t, ok, "teardown of another room must not detach")

	reg.RemoveRoom("c1", "ROOM")
	_, ok = reg.RoomOf("c1")
	assert.False(t, ok)

	assert.False(t, reg.UpdateRoom("ghost", "ROOM", false))
	assert.Equal(t, 1, reg.Count())
	reg.Unbind("c1")
	assert.Equal(t, 0, reg.Count())
}

func TestRegistryCancelClosesTransport(t *testing.T) {
	reg := NewRegistry()
	conn := &stubConn{}
	ctx, cancel := context.WithCancel(context.Background())
	reg.Bind("c1", conn, cancel)

	assert.True(t, reg.Cancel("c1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, conn.closed)
	assert.False(t, reg.Cancel("nobody"))
}

func TestKeyPolicy(t *testing.T) {
	p := KeyPolicy{Min: 6, Max: 8}
	assert.NoError(t, p.Check("abcdef"))
	assert.NoError(t, p.Check("ключ-из8"))

	err := p.Check("abc")
	assert.ErrorIs(t, err, domain.ErrInvalidKeyLength)
	assert.Equal(t, "ENCRYPTION KEY MUST BE BETWEEN 6 AND 8 CHARACTERS.", err.Error())
	assert.ErrorIs(t, p.Check("abcdefghi"), domain.ErrInvalidKeyLength)
}

func TestSchedulerFiresAfterDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var fired atomic.Int32
	s.Schedule("ROOM", "m1", 5*time.Second, func() { fired.Add(1) })
	assert.Equal(t, 1, s.Pending())

	clock.Advance(4 * time.Second)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var fired atomic.Int32
	s.Schedule("ROOM", "m1", time.Second, func() { fired.Add(1) })
	s.Schedule("ROOM", "m2", time.Second, func() { fired.Add(1) })
	s.Schedule("OTHER", "m3", time.Second, func() { fired.Add(10) })

	assert.True(t, s.Cancel("ROOM", "m1"))
	assert.False(t, s.Cancel("ROOM", "m1"))
	assert.Equal(t, 1, s.CancelRoom("ROOM"))

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 10 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() != 10 }, 50*time.Millisecond, 5*time.Millisecond)
}

type countingSweeper struct{ n atomic.Int32 }

func (s *countingSweeper) Sweep() int {
	s.n.Add(1)
	return 0
}

func TestReaperSweepsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sweeper := &countingSweeper{}
	r := &Reaper{Sweeper: sweeper, Clock: clock, Interval: 15 * time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(15 * time.Minute)
	require.Eventually(t, func() bool { return sweeper.n.Load() == 1 }, time.Second, 5*time.Millisecond)
	clock.Advance(15 * time.Minute)
	require.Eventually(t, func() bool { return sweeper.n.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
