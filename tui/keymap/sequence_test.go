package keymap

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSequenceProcess(t *testing.T) {
	km := Default()
	s := NewSequenceState()

	res, _ := s.Process(runeKey('g'), km.Sequences()...)
	assert.Equal(t, SequencePending, res)
	assert.True(t, s.Pending())

	res, idx := s.Process(runeKey('g'), km.Sequences()...)
	assert.Equal(t, SequenceMatch, res)
	assert.Equal(t, 0, idx)
	assert.False(t, s.Pending())
}

func TestSequenceNoMatchClears(t *testing.T) {
	s := NewSequenceState()
	res, idx := s.Process(runeKey('q'), Default().Sequences()...)
	assert.Equal(t, SequenceNone, res)
	assert.Equal(t, -1, idx)
	assert.False(t, s.Pending())
}

func TestSequenceTimeout(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewSequenceState()
	s.now = func() time.Time { return now }

	res, _ := s.Process(runeKey('g'), Default().Sequences()...)
	assert.Equal(t, SequencePending, res)

	now = now.Add(2 * time.Second)
	res, _ = s.Process(runeKey('g'), Default().Sequences()...)
	assert.Equal(t, SequencePending, res, "stale prefix is dropped, so the second g starts over")
}

func TestSequenceClear(t *testing.T) {
	s := NewSequenceState()
	s.Process(runeKey('g'), Default().Sequences()...)
	s.Clear()
	assert.False(t, s.Pending())
}
