package accounts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Parse(t *testing.T) {
	tests := []struct {
		name      string
		csv       string
		want      []Credential
		wantWarns int
	}{
		{
			name: "canonical header",
			csv:  "user_id,password,totp_secret\nAB1234,pw1,SEED1\nCD5678,pw2,SEED2\n",
			want: []Credential{
				{UserID: "AB1234", Password: "pw1", TOTPSecret: "SEED1"},
				{UserID: "CD5678", Password: "pw2", TOTPSecret: "SEED2"},
			},
		},
		{
			name: "alternate spellings and whitespace",
			csv:  "UserID , Password , Secret\n AB1234 , pw1 , SEED1 \n",
			want: []Credential{
				{UserID: "AB1234", Password: "pw1", TOTPSecret: "SEED1"},
			},
		},
		{
			name: "user and totp aliases",
			csv:  "user,password,totp\nU1,p,S\n",
			want: []Credential{
				{UserID: "U1", Password: "p", TOTPSecret: "S"},
			},
		},
		{
			name: "incomplete rows skipped",
			csv:  "user_id,password,totp_secret\nAB1234,,SEED1\n,pw,SEED\nEF9012,pw3,SEED3\n",
			want: []Credential{
				{UserID: "EF9012", Password: "pw3", TOTPSecret: "SEED3"},
			},
			wantWarns: 2,
		},
		{
			name: "duplicates kept",
			csv:  "user_id,password,totp_secret\nU1,a,S\nU1,b,S\n",
			want: []Credential{
				{UserID: "U1", Password: "a", TOTPSecret: "S"},
				{UserID: "U1", Password: "b", TOTPSecret: "S"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewTestLogger()
			l := NewLoader("", log)

			got, err := l.Parse(context.Background(), strings.NewReader(tt.csv))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			warns := 0
			for _, e := range log.Entries() {
				if e.Level == "warn" {
					warns++
				}
			}
			assert.Equal(t, tt.wantWarns, warns)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte("user_id,password,totp_secret\nAB1234,pw,SEED\n"), 0600))

	l := NewLoader(path, logger.NewTestLogger())
	creds, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "AB1234", creds[0].UserID)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "nope.csv"), logger.NewTestLogger())
	_, err := l.Load(context.Background())
	assert.Error(t, err)
}
