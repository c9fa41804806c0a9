package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Db     DatabaseConfig
	SMTP   SMTPConfig
	Keys   APIKeys
	Ai     AIConfig
	Widget WidgetConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	DashboardURL       string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Groq         string
	GoogleGemini string
	SummaryTopic string // Email summary job topic
}

type AIConfig struct {
	LLMProvider string // "groq" or "gemini"
	LLMModel    string // e.g. "llama-3.1-8b-instant"
	GroqBaseURL string
}

// WidgetConfig holds the session lifecycle tuning shared by the embedded
// engine and the simulation client. Windows are minutes, intervals seconds.
type WidgetConfig struct {
	InactivityWindowMin int
	AwayWindowMin       int
	PollIntervalSec     int
	ConfigSyncSec       int
	SweepIntervalSec    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			DashboardURL:       getEnv("DASHBOARD_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Db: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Botsy"),
		},
		Keys: APIKeys{
			Groq:         getEnv("GROQ_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			SummaryTopic: getEnv("SUMMARY_TOPIC_NAME", "SEND_TRANSCRIPT_SUMMARY"),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "groq"),
			LLMModel:    getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		},
		Widget: WidgetConfig{
			InactivityWindowMin: getEnvAsInt("WIDGET_INACTIVITY_WINDOW_MIN", 60),
			AwayWindowMin:       getEnvAsInt("WIDGET_AWAY_WINDOW_MIN", 15),
			PollIntervalSec:     getEnvAsInt("WIDGET_POLL_INTERVAL_SEC", 3),
			ConfigSyncSec:       getEnvAsInt("WIDGET_CONFIG_SYNC_SEC", 30),
			SweepIntervalSec:    getEnvAsInt("WIDGET_SWEEP_INTERVAL_SEC", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
