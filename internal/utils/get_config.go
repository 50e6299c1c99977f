package utils

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server configuration
	AppPort   string `yaml:"APP_PORT"`
	AppURL    string `yaml:"APP_URL"`
	PublicURL string `yaml:"PUBLIC_URL"`
	LogLevel  string `yaml:"LOG_LEVEL"`

	// Comma separated, empty allows any origin
	CORSOrigins string `yaml:"CORS_ORIGINS"`

	// Storage backend: auto, postgres, sqlite or memory
	StorageBackend string `yaml:"STORAGE_BACKEND"`
	SQLitePath     string `yaml:"SQLITE_PATH"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// Image storage: local or s3
	ImageStore   string `yaml:"IMAGE_STORE"`
	UploadDir    string `yaml:"UPLOAD_DIR"`
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// Plant knowledge base, empty means the embedded data set
	KnowledgeBasePath string `yaml:"KNOWLEDGE_BASE_PATH"`

	// Classifier: mock, http or anthropic
	Classifier     string `yaml:"CLASSIFIER"`
	AIModelURL     string `yaml:"AI_MODEL_URL"`
	AnthropicKey   string `yaml:"ANTHROPIC_API_KEY"`
	AnthropicModel string `yaml:"ANTHROPIC_MODEL"`

	// Translation and speech: none or openai
	Translator     string `yaml:"TRANSLATOR"`
	TTS            string `yaml:"TTS"`
	OpenAIKey      string `yaml:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `yaml:"OPENAI_BASE_URL"`
	OpenAIModel    string `yaml:"OPENAI_MODEL"`
	OpenAITTSModel string `yaml:"OPENAI_TTS_MODEL"`
	OpenAITTSVoice string `yaml:"OPENAI_TTS_VOICE"`
	TranslateRPS   string `yaml:"TRANSLATE_RPS"`

	ExternalTimeoutSeconds string `yaml:"EXTERNAL_TIMEOUT_SECONDS"`

	// Error reporting and notifications
	SentryDSN         string `yaml:"SENTRY_DSN"`
	FeedbackNotifyURL string `yaml:"FEEDBACK_NOTIFY_URL"`

	// Seeded administrator
	AdminEmail    string `yaml:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"ADMIN_PASSWORD"`
}

var (
	config     Config
	configOnce sync.Once
)

var defaults = map[string]string{
	"APP_PORT":                 "5000",
	"APP_URL":                  "http://localhost:3000",
	"PUBLIC_URL":               "http://localhost:5000",
	"LOG_LEVEL":                "info",
	"STORAGE_BACKEND":          "auto",
	"SQLITE_PATH":              "leaflens.db",
	"IMAGE_STORE":              "local",
	"UPLOAD_DIR":               "uploads",
	"CLASSIFIER":               "mock",
	"ANTHROPIC_MODEL":          "claude-3-5-sonnet-20241022",
	"TRANSLATOR":               "none",
	"TTS":                      "none",
	"OPENAI_MODEL":             "gpt-4o-mini",
	"OPENAI_TTS_MODEL":         "tts-1",
	"OPENAI_TTS_VOICE":         "alloy",
	"TRANSLATE_RPS":            "5",
	"EXTERNAL_TIMEOUT_SECONDS": "15",
	"ADMIN_EMAIL":              "admin@leaflens.com",
}

// LoadConfig reads .env and config.yaml once. Both are optional; process
// environment variables take precedence over either file.
func LoadConfig() {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Error reading .env file: %s\n", err)
		}

		file, err := os.ReadFile("config.yaml")
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("Error reading YAML file: %s\n", err)
			}
			return
		}

		if err := yaml.Unmarshal(file, &config); err != nil {
			log.Printf("Error parsing YAML file: %s\n", err)
		}
	})
}

func GetConfig(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := fromFile(key); v != "" {
		return v
	}
	return defaults[key]
}

func GetConfigInt(key string, fallback int) int {
	n, err := strconv.Atoi(GetConfig(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func fromFile(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "APP_URL":
		return config.AppURL
	case "PUBLIC_URL":
		return config.PublicURL
	case "LOG_LEVEL":
		return config.LogLevel
	case "CORS_ORIGINS":
		return config.CORSOrigins
	case "STORAGE_BACKEND":
		return config.StorageBackend
	case "SQLITE_PATH":
		return config.SQLitePath
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "IMAGE_STORE":
		return config.ImageStore
	case "UPLOAD_DIR":
		return config.UploadDir
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "KNOWLEDGE_BASE_PATH":
		return config.KnowledgeBasePath
	case "CLASSIFIER":
		return config.Classifier
	case "AI_MODEL_URL":
		return config.AIModelURL
	case "ANTHROPIC_API_KEY":
		return config.AnthropicKey
	case "ANTHROPIC_MODEL":
		return config.AnthropicModel
	case "TRANSLATOR":
		return config.Translator
	case "TTS":
		return config.TTS
	case "OPENAI_API_KEY":
		return config.OpenAIKey
	case "OPENAI_BASE_URL":
		return config.OpenAIBaseURL
	case "OPENAI_MODEL":
		return config.OpenAIModel
	case "OPENAI_TTS_MODEL":
		return config.OpenAITTSModel
	case "OPENAI_TTS_VOICE":
		return config.OpenAITTSVoice
	case "TRANSLATE_RPS":
		return config.TranslateRPS
	case "EXTERNAL_TIMEOUT_SECONDS":
		return config.ExternalTimeoutSeconds
	case "SENTRY_DSN":
		return config.SentryDSN
	case "FEEDBACK_NOTIFY_URL":
		return config.FeedbackNotifyURL
	case "ADMIN_EMAIL":
		return config.AdminEmail
	case "ADMIN_PASSWORD":
		return config.AdminPassword
	default:
		return ""
	}
}
