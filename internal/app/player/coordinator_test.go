package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// fakeSession records plays and lets tests drive completion by hand.
// With autoFinish set it signals completion right after each Play,
// from its own goroutine, like a real transport callback.
type fakeSession struct {
	mu          sync.Mutex
	channelID   string
	autoFinish  bool
	playErr     error
	played      []string
	overlapped  bool
	inFlight    bool
	onDone      func(error)
	moves       int
	stops       int
	disconnects int

	started chan string
}

func newFakeSession(channelID string, autoFinish bool) *fakeSession {
	return &fakeSession{
		channelID:  channelID,
		autoFinish: autoFinish,
		started:    make(chan string, 32),
	}
}

func (s *fakeSession) Play(t track.Track, onDone func(error)) error {
	s.mu.Lock()
	if s.playErr != nil {
		err := s.playErr
		s.mu.Unlock()
		return err
	}
	if s.inFlight {
		s.overlapped = true
	}
	s.inFlight = true
	s.played = append(s.played, t.DisplayTitle())
	s.onDone = onDone
	auto := s.autoFinish
	s.mu.Unlock()

	s.started <- t.DisplayTitle()
	if auto {
		s.finish(nil)
	}
	return nil
}

// finish fires the outstanding completion callback at most once.
func (s *fakeSession) finish(err error) {
	s.mu.Lock()
	done := s.onDone
	s.onDone = nil
	s.inFlight = false
	s.mu.Unlock()

	if done != nil {
		go done(err)
	}
}

func (s *fakeSession) StopCurrent() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.finish(nil)
}

func (s *fakeSession) Move(_ context.Context, channelID string) error {
	s.mu.Lock()
	s.channelID = channelID
	s.moves++
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

func (s *fakeSession) Disconnect() error {
	s.mu.Lock()
	s.disconnects++
	s.inFlight = false
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) playedTracks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.played))
	copy(out, s.played)
	return out
}

func (s *fakeSession) disconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

func (s *fakeSession) waitStarted(t *testing.T) string {
	t.Helper()
	select {
	case title := <-s.started:
		return title
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback to start")
		return ""
	}
}

type fakeTransport struct {
	mu         sync.Mutex
	autoFinish bool
	connectErr error
	sessions   []*fakeSession
}

func (f *fakeTransport) Connect(_ context.Context, _, channelID string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	s := newFakeSession(channelID, f.autoFinish)
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeTransport) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeTransport) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

func named(title string) track.Track {
	return track.Track{Locator: "locator:" + title, StreamURL: "stream:" + title, Title: title}
}

func connected(t *testing.T, reg *Registry, tr *fakeTransport, guildID string) *Coordinator {
	t.Helper()
	c := reg.GetOrCreate(guildID, func() *Coordinator {
		return NewCoordinator(guildID, tr)
	})
	require.NoError(t, c.Connect(context.Background(), "voice-1"))
	return c
}

func TestCoordinator_PlaysInEnqueueOrder(t *testing.T) {
	tr := &fakeTransport{autoFinish: true}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	c.Enqueue(named("A"))
	c.Enqueue(named("B"))
	c.Enqueue(named("C"))

	sess := tr.last()
	require.Eventually(t, func() bool {
		return len(sess.playedTracks()) == 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"A", "B", "C"}, sess.playedTracks())

	// Queue drained, loop parked and awaiting further enqueues.
	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.Queued == 0 && st.Current == "" && st.State == StateIdle
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := reg.Get("g1")
	assert.True(t, ok, "idle coordinator must stay registered")

	// The parked loop picks up late arrivals.
	c.Enqueue(named("D"))
	require.Eventually(t, func() bool {
		return len(sess.playedTracks()) == 4
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCoordinator_SkipAdvancesWithoutReplaying(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	c.Enqueue(named("A"))
	c.Enqueue(named("B"))

	sess := tr.last()
	require.Equal(t, "A", sess.waitStarted(t))

	require.NoError(t, c.Skip())

	require.Equal(t, "B", sess.waitStarted(t))
	st := c.Status()
	assert.Equal(t, "B", st.Current)
	assert.Equal(t, 0, st.Queued)
	assert.Equal(t, []string{"A", "B"}, sess.playedTracks())
}

func TestCoordinator_SkipWithNothingPlaying(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	err := c.Skip()
	assert.True(t, errors.Is(err, ErrNothingPlaying))
}

func TestCoordinator_StopBeforePlaybackStarts(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")
	sess := tr.last()

	c.Stop()

	// Tracks enqueued after stop are accepted but never play.
	c.Enqueue(named("A"))
	c.Enqueue(named("B"))

	assert.Empty(t, sess.playedTracks())
	assert.Equal(t, 1, sess.disconnectCount())
	_, ok := reg.Get("g1")
	assert.False(t, ok)
	assert.Equal(t, StateStopped, c.Status().State)
}

func TestCoordinator_StopDuringPlayback(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	c.Enqueue(named("A"))
	c.Enqueue(named("B"))

	sess := tr.last()
	require.Equal(t, "A", sess.waitStarted(t))

	c.Stop()

	require.Eventually(t, func() bool {
		return sess.disconnectCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"A"}, sess.playedTracks(), "B must never play")
	_, ok := reg.Get("g1")
	assert.False(t, ok)

	// A fresh play for the same guild gets a brand new coordinator.
	c2 := reg.GetOrCreate("g1", func() *Coordinator {
		return NewCoordinator("g1", tr)
	})
	assert.NotSame(t, c, c2)
	assert.Equal(t, 0, c2.Status().Queued)
}

func TestCoordinator_StopIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")
	sess := tr.last()

	c.Stop()
	c.Stop()
	c.Stop()

	assert.Equal(t, 1, sess.disconnectCount())
}

func TestCoordinator_SingleLoopUnderConcurrentEnqueue(t *testing.T) {
	tr := &fakeTransport{autoFinish: true}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")
	sess := tr.last()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Enqueue(named(fmt.Sprintf("t%02d", i)))
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(sess.playedTracks()) == n
	}, 5*time.Second, 5*time.Millisecond)

	sess.mu.Lock()
	overlapped := sess.overlapped
	sess.mu.Unlock()
	assert.False(t, overlapped, "two consumption loops played concurrently")
}

func TestCoordinator_PlaybackErrorAdvances(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	c.Enqueue(named("A"))
	c.Enqueue(named("B"))

	sess := tr.last()
	require.Equal(t, "A", sess.waitStarted(t))

	sess.finish(errors.New("stream reset by peer"))

	require.Equal(t, "B", sess.waitStarted(t))
	sess.finish(nil)

	assert.Eventually(t, func() bool {
		return c.Status().State == StateIdle
	}, 2*time.Second, 5*time.Millisecond)
	_, ok := reg.Get("g1")
	assert.True(t, ok, "playback errors must not tear the player down")
}

func TestCoordinator_EnqueueWithoutSessionTearsDown(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := reg.GetOrCreate("g1", func() *Coordinator {
		return NewCoordinator("g1", tr)
	})

	// No Connect: the loop has a queue but no destination.
	c.Enqueue(named("A"))

	require.Eventually(t, func() bool {
		_, ok := reg.Get("g1")
		return !ok
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, StateStopped, c.Status().State)
}

func TestCoordinator_ConnectIdempotentAndMove(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := reg.GetOrCreate("g1", func() *Coordinator {
		return NewCoordinator("g1", tr)
	})
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, "voice-1"))
	require.NoError(t, c.Connect(ctx, "voice-1"))
	assert.Equal(t, 1, tr.sessionCount())
	assert.Equal(t, 0, tr.last().moves)

	// Different destination relocates the same session.
	require.NoError(t, c.Connect(ctx, "voice-2"))
	assert.Equal(t, 1, tr.sessionCount())
	assert.Equal(t, 1, tr.last().moves)
	assert.Equal(t, "voice-2", tr.last().ChannelID())
}

func TestCoordinator_ConnectUnreachable(t *testing.T) {
	tr := &fakeTransport{connectErr: errors.New("no route to gateway")}
	reg := NewRegistry()
	c := reg.GetOrCreate("g1", func() *Coordinator {
		return NewCoordinator("g1", tr)
	})

	err := c.Connect(context.Background(), "voice-1")
	require.Error(t, err)

	// The coordinator is left as-is, not torn down.
	_, ok := reg.Get("g1")
	assert.True(t, ok)
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestCoordinator_StatusSnapshot(t *testing.T) {
	tr := &fakeTransport{}
	reg := NewRegistry()
	c := connected(t, reg, tr, "g1")

	assert.Equal(t, Status{State: StateIdle}, c.Status())

	c.Enqueue(named("A"))
	c.Enqueue(named("B"))

	sess := tr.last()
	require.Equal(t, "A", sess.waitStarted(t))

	st := c.Status()
	assert.Equal(t, "A", st.Current)
	assert.Equal(t, 1, st.Queued)
	assert.Equal(t, StatePlaying, st.State)
}
