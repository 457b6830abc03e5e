// Package diagnostics saves screenshots of failed login attempts.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sabarim/kitelogin/internal/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Screenshotter is the part of a browser agent the recorder needs.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Recorder writes screenshots into a diagnostics directory.
type Recorder struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing into dir.
func NewRecorder(dir string, log logger.Logger) *Recorder {
	return &Recorder{dir: dir, logger: log, now: time.Now}
}

// Capture saves a screenshot named <reason>_<account>_<unix>.png and returns
// its path. A failed capture is logged and yields an empty path.
func (r *Recorder) Capture(ctx context.Context, s Screenshotter, accountID, reason string) string {
	data, err := s.Screenshot(ctx)
	if err != nil {
		r.logger.Warn(ctx, "failed to capture screenshot", map[string]interface{}{
			"account_id": accountID,
			"reason":     reason,
			"error":      err.Error(),
		})
		return ""
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		r.logger.Warn(ctx, "failed to create diagnostics directory", map[string]interface{}{
			"dir":   r.dir,
			"error": err.Error(),
		})
		return ""
	}

	name := fmt.Sprintf("%s_%s_%d.png", sanitize(reason), sanitize(accountID), r.now().Unix())
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warn(ctx, "failed to save screenshot", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}

	r.logger.Info(ctx, "screenshot saved", map[string]interface{}{
		"account_id": accountID,
		"path":       path,
	})
	return path
}

func sanitize(s string) string {
	s = unsafeName.ReplaceAllString(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}
