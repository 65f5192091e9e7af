package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_PlainOnBuffer(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[", "a buffer is not a terminal")
}

func TestStateLabel(t *testing.T) {
	var buf bytes.Buffer
	plain := termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii))
	assert.Equal(t, "thinking", StateLabel(plain, domain.StateThinking))

	color := termenv.NewOutput(&buf, termenv.WithProfile(termenv.TrueColor))
	assert.Contains(t, StateLabel(color, domain.StateError), "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(40)
	out, err := render("**hello**")
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(out), "hello")
}
