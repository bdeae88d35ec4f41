package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"http_addr":        ":9000",
		"store":            "mongo",
		"mongo_uri":        "mongodb://mongo:27017",
		"mongo_database":   "fg",
		"database_dsn":     "postgres://db",
		"bcrypt_cost":      12,
		"google_client_id": "client-id",
		"google_certs_url": "http://certs",
		"smtp_host":        "smtp.example.com",
		"smtp_port":        587,
		"smtp_username":    "mailer",
		"smtp_password":    "secret",
		"mail_from":        "alerts@example.com",
		"external_timeout": "1500ms",
		"log_level":        "debug",
		"environment":      "production",
		"allowed_origins":  []string{"http://localhost:3000"},
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, &Config{
			HTTPAddr:        ":9000",
			Store:           StoreMongo,
			MongoURI:        "mongodb://mongo:27017",
			MongoDatabase:   "fg",
			DatabaseDSN:     "postgres://db",
			BcryptCost:      12,
			GoogleClientID:  "client-id",
			GoogleCertsURL:  "http://certs",
			SMTPHost:        "smtp.example.com",
			SMTPPort:        587,
			SMTPUsername:    "mailer",
			SMTPPassword:    "secret",
			MailFrom:        "alerts@example.com",
			ExternalTimeout: 1500 * time.Millisecond,
			LogLevel:        "debug",
			Environment:     "production",
			AllowedOrigins:  []string{"http://localhost:3000"},
		}, cfg)
	})

	t.Run("partial file keeps other fields", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"smtp_port": 2525, "external_timeout": 3000000000})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, 3*time.Second, cfg.ExternalTimeout)
		assert.Equal(t, ":5000", cfg.HTTPAddr)
	})

	t.Run("no config flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: ":1234"}
		parseJson(cfg)

		assert.Equal(t, &Config{HTTPAddr: ":1234"}, cfg)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(t.TempDir(), "missing.json")}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: `"10s"`, want: 10 * time.Second},
		{in: `1000`, want: time.Microsecond},
		{in: `"soon"`, wantErr: true},
		{in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		var d Duration
		err := json.Unmarshal([]byte(tt.in), &d)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d.Duration)
	}
}
