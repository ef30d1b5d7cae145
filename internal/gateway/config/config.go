package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	Template TemplateConfig
	LLM      LLMConfig
	Export   ExportConfig
	Session  SessionConfig
	HTTP     HTTPConfig
}

type TemplateConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
	URLExpiry time.Duration
	LocalDir  string
}

// S3Ready reports whether enough is configured to reach a bucket.
func (c TemplateConfig) S3Ready() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

type LLMConfig struct {
	APIKey string
	Model  string
}

type ExportConfig struct {
	FileName string
	Dir      string
}

type SessionConfig struct {
	Max int
	TTL time.Duration
}

// HTTPConfig tunes the gateway listener. An empty AllowedOrigins list
// admits every origin.
type HTTPConfig struct {
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	if !flag.Parsed() {
		flag.Parse()
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	return FromEnv(*port), nil
}

// FromEnv builds a Config from the process environment alone.
func FromEnv(port string) *Config {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}
	return &Config{
		Port:     firstNonEmpty(port, ":8081"),
		Env:      env,
		Template: loadTemplateConfig(env),
		LLM: LLMConfig{
			APIKey: firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY")),
			Model:  firstNonEmpty(getenv("LLM_MODEL"), "gemini-2.5-flash"),
		},
		Export: ExportConfig{
			FileName: firstNonEmpty(getenv("EXPORT_FILE_NAME"), "generated_document.docx"),
			Dir:      firstNonEmpty(getenv("EXPORT_DIR"), "."),
		},
		Session: SessionConfig{
			Max: parseInt(getenv("SESSION_MAX"), 256),
			TTL: parseDuration(getenv("SESSION_TTL"), 30*time.Minute),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS")),
			ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT"), 5*time.Second),
		},
	}
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func loadTemplateConfig(env string) TemplateConfig {
	return TemplateConfig{
		Endpoint:  getenv("TEMPLATE_S3_ENDPOINT"),
		Region:    firstNonEmpty(getenv("TEMPLATE_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(getenv("TEMPLATE_S3_ACCESS_KEY"), getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(getenv("TEMPLATE_S3_SECRET_KEY"), getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(getenv("TEMPLATE_S3_BUCKET"), "latexify-templates"),
		UseSSL:    resolveUseSSL(env),
		Prefix:    firstNonEmpty(getenv("TEMPLATE_PREFIX"), "templates/"),
		URLExpiry: parseDuration(getenv("TEMPLATE_URL_EXPIRY"), time.Hour),
		LocalDir:  firstNonEmpty(getenv("TEMPLATE_LOCAL_DIR"), "templates"),
	}
}

func resolveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := getenv("TEMPLATE_S3_USE_SSL")
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseDuration(raw string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
