package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting read from the environment
type Config struct {
	Port      string
	Env       string
	ClientURL string

	DatabaseURL string

	FirebaseCredentialsPath string
	FirebaseProjectID       string
	FirebaseClientEmail     string
	FirebasePrivateKey      string

	StripeSecretKey string
	StripeCurrency  string

	RedisURL string

	MongoURI      string
	MongoDatabase string

	AMQPURL string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	JWTSecret string

	Debug     bool
	LogToFile bool
	LogsDir   string

	WorkerInterval time.Duration
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (when present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only
func FromEnv() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("MONGODB_DATABASE", "clubsphere")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_TO_FILE", false)
	v.SetDefault("LOGS_DIR", "logs")
	v.SetDefault("WORKER_INTERVAL", 5*time.Minute)

	return &Config{
		Port:      v.GetString("PORT"),
		Env:       v.GetString("ENV"),
		ClientURL: v.GetString("CLIENT_URL"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseClientEmail:     v.GetString("FIREBASE_CLIENT_EMAIL"),
		// keys pasted into .env usually carry literal \n sequences
		FirebasePrivateKey: strings.ReplaceAll(v.GetString("FIREBASE_PRIVATE_KEY"), `\n`, "\n"),

		StripeSecretKey: v.GetString("STRIPE_SECRET_KEY"),
		StripeCurrency:  strings.ToLower(v.GetString("STRIPE_CURRENCY")),

		RedisURL: v.GetString("REDIS_URL"),

		MongoURI:      v.GetString("MONGODB_URI"),
		MongoDatabase: v.GetString("MONGODB_DATABASE"),

		AMQPURL: v.GetString("AMQP_URL"),

		SMTPHost:  v.GetString("SMTP_HOST"),
		SMTPPort:  v.GetInt("SMTP_PORT"),
		SMTPUser:  v.GetString("SMTP_USER"),
		SMTPPass:  v.GetString("SMTP_PASS"),
		EmailFrom: v.GetString("EMAIL_FROM"),

		JWTSecret: v.GetString("JWT_SECRET"),

		Debug:     v.GetBool("DEBUG"),
		LogToFile: v.GetBool("LOG_TO_FILE"),
		LogsDir:   v.GetString("LOGS_DIR"),

		WorkerInterval: v.GetDuration("WORKER_INTERVAL"),
	}
}
