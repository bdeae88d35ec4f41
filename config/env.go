package config

import "os"

// secrets that should not sit in a config file or in the process arguments
var envVars = map[string]func(*Config, string){
	"FLOODGUARD_SMTP_PASSWORD":    func(c *Config, v string) { c.SMTPPassword = v },
	"FLOODGUARD_GOOGLE_CLIENT_ID": func(c *Config, v string) { c.GoogleClientID = v },
	"FLOODGUARD_DATABASE_DSN":     func(c *Config, v string) { c.DatabaseDSN = v },
	"FLOODGUARD_MONGO_URI":        func(c *Config, v string) { c.MongoURI = v },
}

func parseEnv(config *Config) {
	for name, set := range envVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			set(config, v)
		}
	}
}
