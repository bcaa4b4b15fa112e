package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration_ISOAndHumanAgree(t *testing.T) {
	cases := []struct {
		iso   string
		human string
	}{
		{"P1Y", "1 year"},
		{"P6M", "6 months"},
		{"P90D", "90 days"},
	}
	for _, c := range cases {
		iso, err := ParseDuration(c.iso)
		require.NoError(t, err)
		human, err := ParseDuration(c.human)
		require.NoError(t, err)
		assert.Equal(t, iso, human, "%s vs %s", c.iso, c.human)
	}
}

func TestParseDuration_YearIsNotCalendarYear(t *testing.T) {
	d, err := ParseDuration("1 year")
	require.NoError(t, err)
	assert.Equal(t, 365*24*time.Hour, d)
	assert.NotEqual(t, time.Duration(365.25*24*float64(time.Hour)), d)
}

func TestParseDuration_PT6H(t *testing.T) {
	d, err := ParseDuration("PT6H")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d)

	d2, err := ParseDuration("6 hours")
	require.NoError(t, err)
	assert.Equal(t, d, d2)
}

func TestParseDuration_S1Literal(t *testing.T) {
	d, err := ParseDuration("12 months")
	require.NoError(t, err)
	assert.Equal(t, int64(31_536_000_000), d.Milliseconds())
}

func TestParseDuration_S2Literal(t *testing.T) {
	d, err := ParseDuration("6 months")
	require.NoError(t, err)
	assert.Equal(t, int64(15_552_000_000), d.Milliseconds())

	iso, err := ParseDuration("P6M")
	require.NoError(t, err)
	assert.Equal(t, d, iso)
}

func TestParseDuration_Invalid(t *testing.T) {
	_, err := ParseDuration("")
	assert.Error(t, err)

	_, err = ParseDuration("banana")
	assert.Error(t, err)

	_, err = ParseDuration("P")
	assert.Error(t, err)
}

func TestSerialGenerator_Unique(t *testing.T) {
	g := NewSerialGenerator()
	now := time.Now().UnixMilli()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		s := g.Next(now)
		require.False(t, seen[s], "duplicate serial %s", s)
		seen[s] = true
	}
}
