package accounts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sabarim/kitelogin/internal/logger"
)

// Loader reads account credentials from a delimited text file
type Loader struct {
	path   string
	logger logger.Logger
}

// NewLoader creates a new account loader
func NewLoader(path string, log logger.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: log,
	}
}

// Load reads every complete account row in file order
func (l *Loader) Load(ctx context.Context) ([]Credential, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer file.Close()

	creds, err := l.Parse(ctx, file)
	if err != nil {
		return nil, err
	}

	l.logger.Info(ctx, "loaded accounts", map[string]interface{}{
		"path":  l.path,
		"count": len(creds),
	})
	return creds, nil
}

// Parse reads account rows from r. Rows missing any required field are
// skipped with a warning.
func (l *Loader) Parse(ctx context.Context, r io.Reader) ([]Credential, error) {
	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts CSV: %w", err)
	}

	var creds []Credential
	for i, raw := range rows {
		row := normalizeRow(raw)

		cred := Credential{
			UserID:     lookup(row, userIDColumns),
			Password:   lookup(row, passwordColumns),
			TOTPSecret: lookup(row, totpColumns),
		}

		if cred.UserID == "" || cred.Password == "" || cred.TOTPSecret == "" {
			l.logger.Warn(ctx, "skipping incomplete account row", map[string]interface{}{
				"row":     i + 2, // header is line 1
				"user_id": cred.UserID,
			})
			continue
		}

		creds = append(creds, cred)
	}

	return creds, nil
}

// normalizeRow lowercases and trims header names so aliases match
func normalizeRow(raw map[string]string) map[string]string {
	row := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(k, "\ufeff")))
		row[key] = strings.TrimSpace(v)
	}
	return row
}

func lookup(row map[string]string, names []string) string {
	for _, name := range names {
		if v := row[name]; v != "" {
			return v
		}
	}
	return ""
}
