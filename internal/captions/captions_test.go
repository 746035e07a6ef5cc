package captions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMFAOutput = `{
	"start": 0.0,
	"end": 3.2,
	"tiers": {
		"words": {
			"type": "interval",
			"entries": [
				[0.12, 0.45, "once"],
				[0.45, 0.80, "upon"],
				[0.80, 0.95, ""],
				[0.95, 1.40, "a"],
				[1.40, 2.10, "midnight"]
			]
		},
		"phones": {
			"type": "interval",
			"entries": [[0.12, 0.2, "W"]]
		}
	}
}`

func TestParseMFAOutput(t *testing.T) {
	t.Parallel()

	cues, err := parseMFAOutput([]byte(sampleMFAOutput))
	require.NoError(t, err)
	require.Len(t, cues, 5) // empty-word entry still present before finalize

	require.Equal(t, "once", cues[0].Word)
	require.InDelta(t, 0.12, cues[0].Start, 1e-9)
	require.InDelta(t, 0.45, cues[0].End, 1e-9)
}

func TestParseMFAOutputMalformed(t *testing.T) {
	t.Parallel()

	_, err := parseMFAOutput([]byte("not json at all"))
	require.ErrorIs(t, err, ErrAlignmentFailed)
}

func TestFinalizeCuesDropsEmptyWords(t *testing.T) {
	t.Parallel()

	cues, err := parseMFAOutput([]byte(sampleMFAOutput))
	require.NoError(t, err)

	final := finalizeCues(cues, 0)
	require.Len(t, final, 4)
	for _, c := range final {
		require.NotEmpty(t, c.Word)
	}
}

func TestFinalizeCuesAppliesOffsetAndClamps(t *testing.T) {
	t.Parallel()

	raw := []Cue{
		{Word: "late", Start: 0.2, End: 0.6},
		{Word: "start", Start: 1.0, End: 1.5},
	}

	shifted := finalizeCues(raw, 2)
	require.InDelta(t, 2.2, shifted[0].Start, 1e-9)
	require.InDelta(t, 2.6, shifted[0].End, 1e-9)

	// A negative offset never produces negative timestamps.
	clamped := finalizeCues(raw, -0.5)
	require.InDelta(t, 0.0, clamped[0].Start, 1e-9)
	require.InDelta(t, 0.1, clamped[0].End, 1e-9)
	require.InDelta(t, 0.5, clamped[1].Start, 1e-9)
}

func TestFinalizeCuesKeepsOrderAndGaps(t *testing.T) {
	t.Parallel()

	raw := []Cue{
		{Word: "a", Start: 0, End: 0.3},
		{Word: "b", Start: 0.9, End: 1.1}, // gap after "a" is fine
	}

	final := finalizeCues(raw, 0)
	require.Len(t, final, 2)
	require.Less(t, final[0].Start, final[1].Start)
}
