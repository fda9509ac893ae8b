// Package broadcast delivers direct messages to guild members at a
// bounded rate, with cancellable per-guild bulk runs.
package broadcast

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrRunActive is returned when a guild already has a broadcast running.
var ErrRunActive = errors.New("a broadcast is already running for this guild")

// Member is one recipient candidate. Bots are skipped.
type Member struct {
	ID    string
	IsBot bool
}

// SendFunc delivers one direct message. A failed send skips the
// recipient without aborting the run (users can block DMs).
type SendFunc func(userID, content string) error

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns all broadcast runs. All sends, bulk or single, share
// one rate limiter so the bot stays inside the platform's DM budget.
type Manager struct {
	limiter *rate.Limiter
	send    SendFunc

	mu   sync.Mutex
	runs map[string]*run // guildID -> active run
}

// NewManager creates a manager sending at most messagesPerSecond with
// the given burst.
func NewManager(messagesPerSecond float64, burst int, send SendFunc) *Manager {
	return &Manager{
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
		send:    send,
		runs:    make(map[string]*run),
	}
}

// Direct sends a single direct message, subject to the shared rate
// limit.
func (m *Manager) Direct(ctx context.Context, userID, content string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait")
	}
	if err := m.send(userID, content); err != nil {
		return errors.Wrap(err, "send direct message")
	}
	return nil
}

// Start begins messaging every non-bot member of a guild in the
// background and returns the run ID. At most one run per guild is
// allowed; ErrRunActive is returned while one is in flight.
func (m *Manager) Start(guildID string, members []Member, content string) (string, error) {
	m.mu.Lock()
	if _, exists := m.runs[guildID]; exists {
		m.mu.Unlock()
		return "", ErrRunActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.runs[guildID] = r
	m.mu.Unlock()

	log := zlog.With().Str("guild", guildID).Str("run", r.id).Logger()
	log.Info().Int("members", len(members)).Msg("broadcast started")

	go m.deliver(ctx, r, guildID, members, content, log)
	return r.id, nil
}

func (m *Manager) deliver(ctx context.Context, r *run, guildID string, members []Member, content string, log zerolog.Logger) {
	defer func() {
		m.mu.Lock()
		if m.runs[guildID] == r {
			delete(m.runs, guildID)
		}
		m.mu.Unlock()
		close(r.done)
	}()

	sent, skipped := 0, 0
	for _, member := range members {
		if member.IsBot {
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			log.Info().Int("sent", sent).Msg("broadcast cancelled")
			return
		}
		if err := m.send(member.ID, content); err != nil {
			skipped++
			log.Debug().Err(err).Str("user", member.ID).Msg("recipient skipped")
			continue
		}
		sent++
	}
	log.Info().Int("sent", sent).Int("skipped", skipped).Msg("broadcast finished")
}

// Stop cancels the guild's active run, if any, and reports whether one
// was running. It does not wait for the run goroutine to exit.
func (m *Manager) Stop(guildID string) bool {
	m.mu.Lock()
	r, ok := m.runs[guildID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	r.cancel()
	return true
}

// Active reports whether the guild has a broadcast in flight.
func (m *Manager) Active(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runs[guildID]
	return ok
}

// Shutdown cancels every run and waits for all of them to finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runs := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.Unlock()

	for _, r := range runs {
		r.cancel()
	}
	for _, r := range runs {
		<-r.done
	}
}
