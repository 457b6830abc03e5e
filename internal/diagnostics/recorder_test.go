package diagnostics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShot struct {
	data []byte
	err  error
}

func (f fakeShot) Screenshot(ctx context.Context) ([]byte, error) { return f.data, f.err }

func TestRecorder_Capture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	r := NewRecorder(dir, logger.NewTestLogger())
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	path := r.Capture(context.Background(), fakeShot{data: []byte("png")}, "AB/12 34", "no otp")

	assert.Equal(t, filepath.Join(dir, "no_otp_AB_12_34_1700000000.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestRecorder_CaptureFailure(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewRecorder(t.TempDir(), log)

	path := r.Capture(context.Background(), fakeShot{err: errors.New("target closed")}, "U1", "exception")

	assert.Empty(t, path)
	assert.True(t, log.HasMessage("warn", "failed to capture screenshot"))
}
