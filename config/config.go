package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "QSURVEY_"

type Config struct {
	Addr        string        `yaml:"-"`
	Host        string        `yaml:"host"`
	Port        uint          `yaml:"port"`
	DBUrl       string        `yaml:"db_url"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	Debug       bool          `yaml:"debug"`
	LogFile     string        `yaml:"log_file"`
	UploadDir   string        `yaml:"upload_dir"`
	MaxUploadMB int           `yaml:"max_upload_mb"`

	// AdminUser is created or reset with AdminPassword at startup when both
	// are set.
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
}

func defaults() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        80,
		DBUrl:       "qsurvey.sqlite",
		TokenTTL:    120 * time.Second,
		UploadDir:   "uploads",
		MaxUploadMB: 25,
	}
}

// ParseFlags builds the configuration from, in increasing priority: built-in
// defaults, the YAML file named by -config, QSURVEY_* environment variables
// (a .env file in the working directory is loaded first when present) and
// command line flags.
func ParseFlags(args []string) (cfg Config, err error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("qsurvey", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv(envPrefix+"CONFIG"), "path to a YAML config file")
	host := fs.String("host", "", "listen host name (default 0.0.0.0)")
	port := fs.Uint("port", 0, "listen port number (default 80)")
	dbUrl := fs.String("db-url", "", "path to SQLite3 DB file (default qsurvey.sqlite)")
	secret := fs.String("token-secret", "", "secret key for token encryption and decryption")
	ttl := fs.Uint("token-ttl", 0, "token TTL in seconds (default 120)")
	debug := fs.Bool("debug", false, "log at DEBUG level")
	logFile := fs.String("log-file", "", "also write logs to this rotated file")
	uploadDir := fs.String("upload-dir", "", "directory for uploaded files (default uploads)")
	maxUpload := fs.Int("max-upload-mb", 0, "upload request size limit in MB (default 25)")
	adminUser := fs.String("admin-user", "", "bootstrap admin username")
	adminPassword := fs.String("admin-password", "", "bootstrap admin password")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg = defaults()
	if *configFile != "" {
		if err = loadFile(*configFile, &cfg); err != nil {
			return
		}
	}
	if err = loadEnv(&cfg); err != nil {
		return
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "db-url":
			cfg.DBUrl = *dbUrl
		case "token-secret":
			cfg.TokenSecret = *secret
		case "token-ttl":
			cfg.TokenTTL = time.Duration(*ttl) * time.Second
		case "debug":
			cfg.Debug = *debug
		case "log-file":
			cfg.LogFile = *logFile
		case "upload-dir":
			cfg.UploadDir = *uploadDir
		case "max-upload-mb":
			cfg.MaxUploadMB = *maxUpload
		case "admin-user":
			cfg.AdminUser = *adminUser
		case "admin-password":
			cfg.AdminPassword = *adminPassword
		}
	})

	cfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	return
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	lookup := func(name string) (string, bool) {
		v, ok := os.LookupEnv(envPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := lookup("HOST"); ok {
		cfg.Host = v
	}
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", envPrefix, err)
		}
		cfg.Port = uint(port)
	}
	if v, ok := lookup("DB_URL"); ok {
		cfg.DBUrl = v
	}
	if v, ok := lookup("TOKEN_SECRET"); ok {
		cfg.TokenSecret = v
	}
	if v, ok := lookup("TOKEN_TTL"); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sTOKEN_TTL: %w", envPrefix, err)
		}
		cfg.TokenTTL = time.Duration(secs) * time.Second
	}
	if v, ok := lookup("DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", envPrefix, err)
		}
		cfg.Debug = debug
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := lookup("UPLOAD_DIR"); ok {
		cfg.UploadDir = v
	}
	if v, ok := lookup("MAX_UPLOAD_MB"); ok {
		mb, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_MB: %w", envPrefix, err)
		}
		cfg.MaxUploadMB = mb
	}
	if v, ok := lookup("ADMIN_USER"); ok {
		cfg.AdminUser = v
	}
	if v, ok := lookup("ADMIN_PASSWORD"); ok {
		cfg.AdminPassword = v
	}
	return nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
