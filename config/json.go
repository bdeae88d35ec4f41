package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Duration accepts either a Go duration string ("10s") or integer nanoseconds in JSON.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// JsonConfig is the on-disk shape of the configuration file. Only fields
// present in the file override the current Config.
type JsonConfig struct {
	HTTPAddr        *string   `json:"http_addr"`
	Store           *string   `json:"store"`
	MongoURI        *string   `json:"mongo_uri"`
	MongoDatabase   *string   `json:"mongo_database"`
	DatabaseDSN     *string   `json:"database_dsn"`
	BcryptCost      *int      `json:"bcrypt_cost"`
	GoogleClientID  *string   `json:"google_client_id"`
	GoogleCertsURL  *string   `json:"google_certs_url"`
	SMTPHost        *string   `json:"smtp_host"`
	SMTPPort        *int      `json:"smtp_port"`
	SMTPUsername    *string   `json:"smtp_username"`
	SMTPPassword    *string   `json:"smtp_password"`
	MailFrom        *string   `json:"mail_from"`
	ExternalTimeout *Duration `json:"external_timeout"`
	LogLevel        *string   `json:"log_level"`
	Environment     *string   `json:"environment"`
	AllowedOrigins  []string  `json:"allowed_origins"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Without the flag nothing is loaded; an unreadable or invalid file panics.
func parseJson(config *Config) {
	path := jsonConfigFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.Store, c.Store)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleCertsURL, c.GoogleCertsURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	if c.ExternalTimeout != nil {
		config.ExternalTimeout = c.ExternalTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.Environment, c.Environment)
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
