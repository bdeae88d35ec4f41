package config

import (
	"flag"
	"os"
	"strings"
	"time"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-s string   account store: memory, mongo or postgres
//	-m string   MongoDB URI
//	-d string   PostgreSQL DSN
//	-k int      bcrypt cost
//	-g string   Google OAuth client ID
//	-h string   SMTP host
//	-p int      SMTP port
//	-u string   SMTP username
//	-f string   sender address for outgoing mail
//	-t int      external call timeout, seconds
//	-l string   log level
//	-o string   comma-separated allowed CORS origins
func parseFlags(config *Config) {
	args := filterArgs(os.Args[1:], []string{"-a", "-s", "-m", "-d", "-k", "-g", "-h", "-p", "-u", "-f", "-t", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.Store, "s", config.Store, "account store (memory, mongo, postgres)")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.GoogleClientID, "g", config.GoogleClientID, "Google OAuth client ID")
	fs.StringVar(&config.SMTPHost, "h", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "p", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUsername, "u", config.SMTPUsername, "SMTP username")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "mail sender address")

	timeout := fs.Int("t", int(config.ExternalTimeout.Seconds()), "external call timeout (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only explicit flags override, so a sub-second timeout from JSON survives
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.ExternalTimeout = time.Duration(*timeout) * time.Second
		case "o":
			config.AllowedOrigins = splitOrigins(*origins)
		}
	})
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
