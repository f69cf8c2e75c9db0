package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewPrompter(strings.NewReader(input), out, "exit"), out
}

func TestAsk_TrimsAndDetectsSentinel(t *testing.T) {
	p, out := newTestPrompter("  hello \nEXIT\n")

	line, err := p.Ask("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
	assert.Contains(t, out.String(), "Name: ")

	_, err = p.Ask("Again: ")
	assert.ErrorIs(t, err, ErrExitRequested)
}

func TestAsk_EOFIsExit(t *testing.T) {
	p, _ := newTestPrompter("last line without newline")
	line, err := p.Ask("> ")
	require.NoError(t, err)
	assert.Equal(t, "last line without newline", line)

	_, err = p.Ask("> ")
	assert.ErrorIs(t, err, ErrExitRequested)
}

func TestAskValid_RetriesUntilAccepted(t *testing.T) {
	p, out := newTestPrompter("abc\n12\n")
	line, err := p.AskValid("Code: ", func(s string) error {
		if s != "12" {
			return errors.New("must be 12")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "12", line)
	assert.Contains(t, out.String(), "Invalid input: must be 12")
}

func TestAskInt_Range(t *testing.T) {
	p, _ := newTestPrompter("x\n99\n3\n")
	n, err := p.AskInt("> ", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAskFloat_AcceptsThousandsSeparators(t *testing.T) {
	p, _ := newTestPrompter("-5\n1,200,000.50\n")
	f, err := p.AskFloat("> ", func(v float64) error {
		if v < 0 {
			return errors.New("negative")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1200000.5, f)
}

func TestConfirm(t *testing.T) {
	p, _ := newTestPrompter("maybe\nY\nno\n")
	yes, err := p.Confirm("Continue?")
	require.NoError(t, err)
	assert.True(t, yes)

	yes, err = p.Confirm("Continue?")
	require.NoError(t, err)
	assert.False(t, yes)
}

func TestChoose(t *testing.T) {
	p, out := newTestPrompter("2\n")
	idx, err := p.Choose("Pick a loan type:", []string{"home", "car"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "  2) car")

	_, err = p.Choose("empty", nil)
	assert.Error(t, err)
}
