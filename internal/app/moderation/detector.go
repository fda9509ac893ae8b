// Package moderation provides the detector chain for message automation.
package moderation

import "time"

// Message is the slice of a chat message the detectors care about.
type Message struct {
	GuildID   string
	UserID    string
	ChannelID string
	Content   string
}

// Verdict is the outcome of checking one message.
type Verdict struct {
	Flagged bool
	Rule    string        // Detector name that flagged the message
	Reason  string        // Human-readable reason, shown in the channel
	Timeout time.Duration // Timeout to apply to the author, zero for none
	Delete  bool          // Whether the offending message should be deleted
}

// Pass returns a verdict that takes no action.
func Pass() Verdict {
	return Verdict{}
}

// Flag returns a verdict that takes action.
func Flag(rule, reason string, timeout time.Duration, deleteMsg bool) Verdict {
	return Verdict{Flagged: true, Rule: rule, Reason: reason, Timeout: timeout, Delete: deleteMsg}
}

// Detector is the interface for message automation rules.
type Detector interface {
	// Name returns the detector name (used in config and feature toggles).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Configure applies decoded settings. Called once at startup.
	Configure(settings map[string]any) error
	// Check inspects one message.
	Check(msg Message) Verdict
}

// registry holds registered detector factories.
var registry = make(map[string]func() Detector)

// Register registers a detector factory.
func Register(name string, factory func() Detector) {
	registry[name] = factory
}

// GetRegistered returns all registered detector factories.
func GetRegistered() map[string]func() Detector {
	return registry
}
