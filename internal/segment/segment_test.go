package segment

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	assert.Equal(t, "GOOD", Fit("GOOD"))
	assert.Equal(t, "12k ", Fit("12k"))
	assert.Equal(t, "    ", Fit(""))
	assert.Equal(t, "1000", Fit("1000k"))
}

func TestFitInt(t *testing.T) {
	assert.Equal(t, "  42", FitInt(42))
	assert.Equal(t, "9999", FitInt(9999))
	assert.Equal(t, "   0", FitInt(0))
}

func TestSimShowsOnlyWhenEnabled(t *testing.T) {
	var seen []string
	s := NewSim(func(text string) { seen = append(seen, text) })

	require.NoError(t, s.DisplayString("GOOD"))
	assert.Equal(t, "", s.Text())

	require.NoError(t, s.SetEnabled(true))
	assert.Equal(t, "GOOD", s.Text())

	require.NoError(t, s.DisplayInt(42))
	assert.Equal(t, "  42", s.Text())

	require.NoError(t, s.Clear())
	assert.Equal(t, "    ", s.Text())

	assert.Equal(t, []string{"", "GOOD", "  42", "    "}, seen)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.DisplayString("x"), ErrClosed)
	assert.ErrorIs(t, s.SetEnabled(false), ErrClosed)
}

func TestConsoleClosed(t *testing.T) {
	c := NewConsole(zerolog.Nop())
	require.NoError(t, c.SetEnabled(true))
	require.NoError(t, c.DisplayString("GOOD"))
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Clear(), ErrClosed)
}
