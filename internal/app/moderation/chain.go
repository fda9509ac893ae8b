package moderation

// Chain executes detectors in sequence.
type Chain struct {
	detectors []Detector
}

// NewChain creates an empty detector chain.
func NewChain() *Chain {
	return &Chain{detectors: make([]Detector, 0)}
}

// Add appends a detector to the chain.
func (c *Chain) Add(d Detector) {
	c.detectors = append(c.detectors, d)
}

// Check runs the chain against one message and returns the first
// flagged verdict. Detectors whose name is mapped to false in enabled
// are skipped; absent names run (the per-guild toggle only overrides
// detectors explicitly turned off).
func (c *Chain) Check(msg Message, enabled map[string]bool) Verdict {
	for _, d := range c.detectors {
		if on, ok := enabled[d.Name()]; ok && !on {
			continue
		}
		if v := d.Check(msg); v.Flagged {
			return v
		}
	}
	return Pass()
}

// Detectors returns the detectors in the chain.
func (c *Chain) Detectors() []Detector {
	return c.detectors
}
