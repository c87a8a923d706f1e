package config

import (
	"errors"
	"flag"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	CookieName    string
	AdminUser     string
	AdminPassword string
	Debug         bool
}

// ParseFlags reads the command line. Every flag defaults to its SURVEY_*
// environment variable, which may in turn come from a .env file.
func ParseFlags() (cfg Config, err error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

func Parse(fset *flag.FlagSet, args []string) (cfg Config, err error) {
	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return
	}
	err = nil

	var host string
	fset.StringVar(&host, "host", env("SURVEY_HOST", "0.0.0.0"), "listen host name")
	var port uint
	fset.UintVar(&port, "port", envUint("SURVEY_PORT", 80), "listen port number")
	fset.StringVar(&cfg.DBUrl, "db-url", env("SURVEY_DB_URL", "survey.sqlite"), "path to SQLite3 DB file")
	fset.StringVar(&cfg.TokenSecret, "token-secret", env("SURVEY_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	fset.UintVar(&ttl, "token-ttl", envUint("SURVEY_TOKEN_TTL", 120), "token TTL in seconds")
	fset.StringVar(&cfg.CookieName, "cookie-name", env("SURVEY_COOKIE_NAME", "user_id"), "cookie holding the respondent identifier")
	fset.StringVar(&cfg.AdminUser, "admin-user", env("SURVEY_ADMIN_USER", ""), "administrator account to create or update at startup")
	fset.StringVar(&cfg.AdminPassword, "admin-password", env("SURVEY_ADMIN_PASSWORD", ""), "password for -admin-user")
	fset.BoolVar(&cfg.Debug, "debug", env("SURVEY_DEBUG", "") != "", "log at DEBUG level")
	if err = fset.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.AdminUser != "" && cfg.AdminPassword == "":
		err = errors.New("missing parameter -admin-password for -admin-user")
	case cfg.CookieName == "":
		err = errors.New("parameter -cookie-name must not be empty")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(n)
}
