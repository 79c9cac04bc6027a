package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"` // sqlite|postgres|memory
	DBDSN    string `yaml:"db_dsn"`

	BlobDriver   string `yaml:"blob_driver"`    // none|fs|s3
	BlobBasePath string `yaml:"blob_base_path"` // for fs
	S3Bucket     string `yaml:"s3_bucket"`
	S3Region     string `yaml:"s3_region"`
	S3Endpoint   string `yaml:"s3_endpoint"`
	S3Prefix     string `yaml:"s3_prefix"`
	S3PathStyle  bool   `yaml:"s3_path_style"`

	NATSURL     string `yaml:"nats_url"` // empty disables notifications
	NATSSubject string `yaml:"nats_subject"`

	CORSOrigins     []string `yaml:"cors_origins"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	EnableImportLog bool     `yaml:"enable_import_log"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text|json
}

func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		DBDriver:        "sqlite",
		BlobDriver:      "none",
		BlobBasePath:    "./data",
		S3Region:        "us-east-1",
		NATSSubject:     "markr.imports",
		MaxBodyBytes:    5 << 20,
		EnableImportLog: true,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// FromEnv applies the process environment over the defaults.
func FromEnv() Config {
	c := Defaults()
	c.applyEnv()
	return c
}

// Load layers defaults, the optional YAML file, the dotenv files (".env" when
// none are given; missing files are skipped) and finally the environment.
// Dotenv values never override variables already set in the environment.
func Load(yamlPath string, dotenv ...string) (Config, error) {
	c := Defaults()
	if yamlPath != "" {
		b, err := os.ReadFile(yamlPath)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", yamlPath, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", yamlPath, err)
		}
	}
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, p := range dotenv {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	c.applyEnv()
	return c, c.Validate()
}

func (c *Config) applyEnv() {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	if os.Getenv("HTTP_ADDR") == "" && os.Getenv("PORT") != "" {
		c.HTTPAddr = ":" + os.Getenv("PORT")
	}

	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	// DATABASE_URL is what most hosting platforms inject
	if u := os.Getenv("DATABASE_URL"); u != "" && os.Getenv("DB_DSN") == "" {
		c.DBDSN = u
		if os.Getenv("DB_DRIVER") == "" && (strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")) {
			c.DBDriver = "postgres"
		}
	}

	c.BlobDriver = envOr("BLOB_DRIVER", c.BlobDriver)
	c.BlobBasePath = envOr("BLOB_BASE_PATH", c.BlobBasePath)
	c.S3Bucket = envOr("S3_BUCKET", c.S3Bucket)
	c.S3Region = envOr("S3_REGION", c.S3Region)
	c.S3Endpoint = envOr("S3_ENDPOINT", c.S3Endpoint)
	c.S3Prefix = envOr("S3_PREFIX", c.S3Prefix)
	c.S3PathStyle = envBool("S3_PATH_STYLE", c.S3PathStyle)

	c.NATSURL = envOr("NATS_URL", c.NATSURL)
	c.NATSSubject = envOr("NATS_SUBJECT", c.NATSSubject)

	if os.Getenv("CORS_ORIGINS") != "" {
		c.CORSOrigins = csvOr("CORS_ORIGINS", "")
	}
	c.MaxBodyBytes = envInt64("MAX_BODY_BYTES", c.MaxBodyBytes)
	c.EnableImportLog = envBool("ENABLE_IMPORT_LOG", c.EnableImportLog)

	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
}

func (c Config) Validate() error {
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt64(k string, def int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(k)), 10, 64)
	if err != nil {
		return def
	}
	return v
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
