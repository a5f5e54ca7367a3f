package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	Debug         bool

	// OpenAI
	OpenAIAPIKey string
	Model        string
	LLMTimeout   time.Duration

	// Intent classifier prompt spec
	IntentSpecPath string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Auth
	JWTSecret string

	// SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Knowledge base and limits
	DataDir         string
	RulesFile       string
	EmailDailyLimit int
	MaxMessages     int
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:            getEnvDefault("PORT", "8080"),
		AllowedOrigin:   getEnvDefault("ALLOWED_ORIGIN", "*"),
		Debug:           getEnvBoolDefault("DEBUG", false),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:           getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		LLMTimeout:      getEnvDurationDefault("LLM_TIMEOUT", 20*time.Second),
		IntentSpecPath:  getEnvDefault("INTENT_SPEC_PATH", "./prompts/intent.yaml"),
		DatabaseURL:     os.Getenv("DB_URL"),
		MigrationsDir:   getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SMTPHost:        getEnvDefault("SMTP_HOST", "localhost"),
		SMTPPort:        getEnvIntDefault("SMTP_PORT", 587),
		SMTPUser:        os.Getenv("SMTP_USERNAME"),
		SMTPPass:        os.Getenv("SMTP_PASSWORD"),
		MailFrom:        getEnvDefault("MAIL_FROM", "no-reply@college.edu"),
		DataDir:         getEnvDefault("DATA_DIR", "./data"),
		RulesFile:       getEnvDefault("COLLEGE_RULES_FILE", "./data/college_rules.txt"),
		EmailDailyLimit: getEnvIntDefault("EMAIL_DAILY_LIMIT", 10),
		MaxMessages:     getEnvIntDefault("SESSION_MAX_MESSAGES", 40),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; API calls will fail until provided")
	}
	if cfg.JWTSecret == "" {
		log.Println("warning: JWT_SECRET is not set; all authenticated requests will be rejected")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
