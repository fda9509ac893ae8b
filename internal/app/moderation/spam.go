package moderation

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

const spamName = "anti_spam"

func init() {
	Register(spamName, func() Detector { return NewSpamDetector() })
}

// SpamSettings configures the anti-spam detector.
type SpamSettings struct {
	RepeatThreshold int `mapstructure:"repeat_threshold"`
	HistorySize     int `mapstructure:"history_size"`
	TimeoutMinutes  int `mapstructure:"timeout_minutes"`
}

// SpamDetector flags a user posting the same message RepeatThreshold
// times in a row in one guild. History is kept in memory only.
type SpamDetector struct {
	settings SpamSettings

	mu      sync.Mutex
	history map[string][]string // guildID:userID -> recent message contents
}

// NewSpamDetector creates the detector with default settings applied.
func NewSpamDetector() *SpamDetector {
	d := &SpamDetector{history: make(map[string][]string)}
	_ = d.Configure(nil)
	return d
}

func (d *SpamDetector) Name() string { return spamName }

func (d *SpamDetector) Description() string {
	return "Times out users posting the same message several times in a row"
}

// Configure decodes settings.
func (d *SpamDetector) Configure(settings map[string]any) error {
	s := SpamSettings{
		RepeatThreshold: 3,
		HistorySize:     5,
		TimeoutMinutes:  3,
	}
	if settings != nil {
		if err := mapstructure.Decode(settings, &s); err != nil {
			return errors.Wrap(err, "decode anti_spam settings")
		}
	}
	if s.RepeatThreshold < 2 {
		return errors.Newf("anti_spam repeat_threshold must be at least 2, got %d", s.RepeatThreshold)
	}
	if s.HistorySize < s.RepeatThreshold {
		return errors.Newf("anti_spam history_size (%d) must be >= repeat_threshold (%d)",
			s.HistorySize, s.RepeatThreshold)
	}
	if s.TimeoutMinutes <= 0 {
		return errors.Newf("anti_spam timeout_minutes must be positive, got %d", s.TimeoutMinutes)
	}

	d.settings = s
	return nil
}

// Check records the message and flags once the author's last
// RepeatThreshold messages are identical. Flagging resets the author's
// history so a fourth repeat starts a fresh count.
func (d *SpamDetector) Check(msg Message) Verdict {
	key := msg.GuildID + ":" + msg.UserID

	d.mu.Lock()
	hist := append(d.history[key], msg.Content)
	if len(hist) > d.settings.HistorySize {
		hist = hist[len(hist)-d.settings.HistorySize:]
	}

	n := d.settings.RepeatThreshold
	repeated := len(hist) >= n
	if repeated {
		last := hist[len(hist)-1]
		for _, m := range hist[len(hist)-n:] {
			if m != last {
				repeated = false
				break
			}
		}
	}

	if repeated {
		delete(d.history, key)
	} else {
		d.history[key] = hist
	}
	d.mu.Unlock()

	if !repeated {
		return Pass()
	}
	mins := d.settings.TimeoutMinutes
	return Flag(
		spamName,
		fmt.Sprintf("automatically timed out for %d minutes (anti-spam)", mins),
		time.Duration(mins)*time.Minute,
		true,
	)
}
