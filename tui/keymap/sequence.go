package keymap

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SequenceState buffers keys for multi-key bindings such as gg. The buffer
// clears itself when the gap between keys exceeds the timeout.
type SequenceState struct {
	buffer     string
	lastUpdate time.Time
	timeout    time.Duration
	now        func() time.Time
}

// NewSequenceState creates a sequence buffer with a one second timeout.
func NewSequenceState() *SequenceState {
	return &SequenceState{timeout: time.Second, now: time.Now}
}

// SequenceResult is the outcome of feeding one key to a SequenceState.
type SequenceResult int

const (
	// SequenceNone means the buffer matches nothing and was cleared.
	SequenceNone SequenceResult = iota
	// SequencePending means the buffer is a prefix of a binding.
	SequencePending
	// SequenceMatch means the buffer completed a binding and was cleared.
	SequenceMatch
)

// Process appends msg to the buffer and matches it against bindings. On a
// match it returns the index of the binding.
func (s *SequenceState) Process(msg tea.KeyMsg, bindings ...key.Binding) (SequenceResult, int) {
	now := s.now()
	if s.timeout > 0 && now.Sub(s.lastUpdate) > s.timeout {
		s.buffer = ""
	}
	s.lastUpdate = now
	s.buffer += msg.String()

	for i, b := range bindings {
		for _, k := range b.Keys() {
			if k == s.buffer {
				s.buffer = ""
				return SequenceMatch, i
			}
		}
	}
	for _, b := range bindings {
		for _, k := range b.Keys() {
			if len(k) > len(s.buffer) && strings.HasPrefix(k, s.buffer) {
				return SequencePending, -1
			}
		}
	}
	s.buffer = ""
	return SequenceNone, -1
}

// Pending reports whether a partial sequence is buffered.
func (s *SequenceState) Pending() bool {
	return s.buffer != ""
}

// Clear drops any buffered keys.
func (s *SequenceState) Clear() {
	s.buffer = ""
}
