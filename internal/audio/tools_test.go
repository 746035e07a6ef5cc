package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func brokenProcessor() *Processor {
	return NewProcessor("/nonexistent/ffmpeg", "/nonexistent/soundstretch")
}

func TestSanitizeMissingInput(t *testing.T) {
	t.Parallel()

	p := brokenProcessor()
	missing := filepath.Join(t.TempDir(), "missing.wav")
	err := p.Sanitize(context.Background(), missing, filepath.Join(t.TempDir(), "out.wav"))
	require.ErrorIs(t, err, ErrSanitizeFailed)
	require.Contains(t, err.Error(), missing)
}

func TestTimeStretchFailureReturnsFalse(t *testing.T) {
	t.Parallel()

	p := brokenProcessor()
	in := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(in, []byte("wav"), 0644))

	ok := p.TimeStretch(context.Background(), in, filepath.Join(t.TempDir(), "out.wav"), -8)
	require.False(t, ok)
}

func TestEqualizeFailureLeavesOutputUnwritten(t *testing.T) {
	t.Parallel()

	p := brokenProcessor()
	in := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, os.WriteFile(in, []byte("wav"), 0644))

	out := filepath.Join(t.TempDir(), "out.wav")
	p.Equalize(context.Background(), in, out)
	require.NoFileExists(t, out)
}
