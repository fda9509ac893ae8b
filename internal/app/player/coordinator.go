package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// Status is a read-only snapshot of a coordinator. Taking one never
// pauses the consumption loop.
type Status struct {
	Queued  int    // Tracks waiting in the queue
	Current string // Display title of the in-flight track, empty when idle
	State   State
}

// Coordinator owns one guild's queue, voice session and consumption
// loop. At most one loop runs per coordinator at any instant. Stop is
// terminal: a stopped coordinator removes itself from its registry and
// is never reused.
type Coordinator struct {
	guildID   string
	queue     *Queue
	transport Transport

	mu      sync.Mutex
	session Session
	current *track.Track
	running bool
	stopped bool

	// stopCh is closed exactly once by Stop; the loop selects on it at
	// both suspension points (empty queue, in-flight track).
	stopCh chan struct{}

	// onExit removes the coordinator from its registry once the loop
	// has wound down. Set by the registry at construction.
	onExit func()

	log zerolog.Logger
}

// NewCoordinator creates a coordinator for one guild. The transport is
// not dialed until Connect.
func NewCoordinator(guildID string, transport Transport) *Coordinator {
	return &Coordinator{
		guildID:   guildID,
		queue:     NewQueue(),
		transport: transport,
		stopCh:    make(chan struct{}),
		log:       zlog.With().Str("guild", guildID).Logger(),
	}
}

// GuildID returns the guild this coordinator belongs to.
func (c *Coordinator) GuildID() string {
	return c.guildID
}

// Connect establishes the voice session, or relocates it when already
// connected to a different channel. Connecting to the current channel
// is a no-op. Queue and current-track state survive a relocation.
func (c *Coordinator) Connect(ctx context.Context, channelID string) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	sess := c.session
	c.mu.Unlock()

	if sess != nil {
		if sess.ChannelID() == channelID {
			return nil
		}
		c.log.Info().Str("channel", channelID).Msg("relocating voice session")
		return sess.Move(ctx, channelID)
	}

	// Dial outside the lock; skip/status must not block on the join.
	newSess, err := c.transport.Connect(ctx, c.guildID, channelID)
	if err != nil {
		return errors.Wrapf(err, "connect to channel %s", channelID)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		_ = newSess.Disconnect()
		return ErrStopped
	}
	if c.session != nil {
		// Lost the race to a concurrent Connect; keep the winner.
		c.mu.Unlock()
		_ = newSess.Disconnect()
		return nil
	}
	c.session = newSess
	c.mu.Unlock()

	c.log.Info().Str("channel", channelID).Msg("voice session established")
	return nil
}

// Enqueue appends t to the queue and makes sure exactly one consumption
// loop is running. The append and the loop check happen under one lock
// so two concurrent callers cannot both launch a loop. Tracks enqueued
// after Stop are accepted but will never play.
func (c *Coordinator) Enqueue(t track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.Enqueue(t)
	if c.stopped || c.running {
		return
	}
	c.running = true
	go c.run()
}

// Skip cuts the in-flight track. Completion flows through the same
// signal path as a natural end, so the loop advances to the next
// queued track. Pending tracks are never reordered.
func (c *Coordinator) Skip() error {
	c.mu.Lock()
	sess := c.session
	playing := c.current != nil
	c.mu.Unlock()

	if !playing || sess == nil {
		return ErrNothingPlaying
	}
	sess.StopCurrent()
	return nil
}

// Stop terminates the coordinator: the queue is emptied, the in-flight
// track is cut, and once the loop observes the stop it disconnects the
// voice session and removes itself from the registry. Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	close(c.stopCh)
	sess := c.session
	running := c.running
	c.mu.Unlock()

	c.log.Info().Msg("stopping player")
	c.queue.Clear()
	if sess != nil {
		sess.StopCurrent()
	}
	if !running {
		// No loop alive to observe the stop; tear down here.
		c.teardown()
	}
}

// Status returns a snapshot of the queue depth and current track.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{Queued: c.queue.Len(), State: StateIdle}
	if c.stopped {
		s.State = StateStopped
	}
	if c.current != nil {
		s.Current = c.current.DisplayTitle()
		s.State = StatePlaying
	}
	return s
}

// run is the consumption loop: dequeue, play, wait for the completion
// handoff, repeat. It exits when Stop is observed or when playback is
// attempted without a session, and tears the coordinator down on the
// way out.
func (c *Coordinator) run() {
	c.log.Debug().Msg("consumption loop started")

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.teardown()
		c.log.Debug().Msg("consumption loop finished")
	}()

	for {
		t, ok := c.queue.TryDequeue()
		if !ok {
			select {
			case <-c.queue.Wake():
				continue
			case <-c.stopCh:
				return
			}
		}

		c.mu.Lock()
		if c.stopped {
			c.mu.Unlock()
			return
		}
		sess := c.session
		cur := t
		c.current = &cur
		c.mu.Unlock()

		if sess == nil {
			c.log.Error().Str("track", t.DisplayTitle()).
				Msg("queued track with no voice session, shutting player down")
			c.clearCurrent()
			return
		}

		// One handoff per playback attempt. The transport's after-play
		// hook fires from its own goroutine; the buffered channel makes
		// the signal safe and single-shot.
		done := make(chan error, 1)
		err := sess.Play(cur, func(playErr error) {
			done <- playErr
		})
		if err != nil {
			c.clearCurrent()
			if errors.Is(err, ErrNotConnected) {
				c.log.Error().Err(err).Str("track", t.DisplayTitle()).
					Msg("voice session lost, shutting player down")
				return
			}
			c.log.Warn().Err(err).Str("track", t.DisplayTitle()).
				Msg("track failed to start, moving on")
			continue
		}

		c.log.Info().Str("track", t.DisplayTitle()).Msg("now playing")

		select {
		case playErr := <-done:
			if playErr != nil {
				// Mid-track failures are not fatal; the player keeps moving.
				c.log.Warn().Err(playErr).Str("track", t.DisplayTitle()).
					Msg("playback ended with error")
			}
		case <-c.stopCh:
			sess.StopCurrent()
			<-done
		}

		c.clearCurrent()
	}
}

func (c *Coordinator) clearCurrent() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// teardown disconnects the voice session and deregisters the
// coordinator. Runs exactly once per coordinator lifetime: either from
// the loop's exit path or from Stop when no loop was running.
func (c *Coordinator) teardown() {
	c.mu.Lock()
	c.stopped = true
	sess := c.session
	c.session = nil
	c.current = nil
	c.mu.Unlock()

	if sess != nil {
		if err := sess.Disconnect(); err != nil {
			c.log.Warn().Err(err).Msg("voice disconnect failed")
		}
	}
	if c.onExit != nil {
		c.onExit()
	}
}
