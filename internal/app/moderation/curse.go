package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

const curseName = "anti_cursing"

func init() {
	Register(curseName, func() Detector { return NewCurseDetector() })
}

// defaultCurseWords is the stock word list; guilds override it in config.
var defaultCurseWords = []string{
	"fuck", "shit", "bitch", "asshole", "bastard", "damn", "cunt", "motherfucker",
}

// CurseSettings configures the anti-cursing detector.
type CurseSettings struct {
	Words          []string `mapstructure:"words"`
	TimeoutMinutes int      `mapstructure:"timeout_minutes"`
	DeleteMessage  bool     `mapstructure:"delete_message"`
}

// CurseDetector flags messages containing any listed word as a whole
// word, case-insensitively.
type CurseDetector struct {
	settings CurseSettings
	pattern  *regexp.Regexp
}

// NewCurseDetector creates the detector with default settings applied.
func NewCurseDetector() *CurseDetector {
	d := &CurseDetector{}
	_ = d.Configure(nil)
	return d
}

func (d *CurseDetector) Name() string { return curseName }

func (d *CurseDetector) Description() string {
	return "Times out authors of messages containing listed curse words"
}

// Configure decodes settings and compiles the word pattern.
func (d *CurseDetector) Configure(settings map[string]any) error {
	s := CurseSettings{
		Words:          defaultCurseWords,
		TimeoutMinutes: 5,
		DeleteMessage:  true,
	}
	if settings != nil {
		if err := mapstructure.Decode(settings, &s); err != nil {
			return errors.Wrap(err, "decode anti_cursing settings")
		}
	}
	if len(s.Words) == 0 {
		return errors.New("anti_cursing requires a non-empty word list")
	}
	if s.TimeoutMinutes <= 0 {
		return errors.Newf("anti_cursing timeout_minutes must be positive, got %d", s.TimeoutMinutes)
	}

	quoted := make([]string, len(s.Words))
	for i, w := range s.Words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(w)))
	}
	pattern, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return errors.Wrap(err, "compile curse pattern")
	}

	d.settings = s
	d.pattern = pattern
	return nil
}

// Check flags the message when it contains a listed word.
func (d *CurseDetector) Check(msg Message) Verdict {
	if !d.pattern.MatchString(msg.Content) {
		return Pass()
	}
	mins := d.settings.TimeoutMinutes
	return Flag(
		curseName,
		fmt.Sprintf("automatically timed out for %d minutes (anti-cursing)", mins),
		time.Duration(mins)*time.Minute,
		d.settings.DeleteMessage,
	)
}
