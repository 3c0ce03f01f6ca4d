// Package config builds the runtime configuration from the environment so
// main stays lean. A local .env file is honored when present.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs to start.
type Config struct {
	Addr          string
	BaseURL       string
	JWTSigningKey string
	JWTIssuer     string
	AdminToken    string

	// Store selects the persistence backend: "mongo" or "memory". The memory
	// backend exists for local development only.
	Store         string
	MongoURI      string
	MongoDatabase string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string
}

// FromEnv loads .env when present and reads the configuration from the
// environment.
func FromEnv() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:          getenv("COURSEREQ_ADDR", ":8080"),
		BaseURL:       getenv("COURSEREQ_BASE_URL", "http://localhost:8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		Store:         getenv("COURSEREQ_STORE", "mongo"),
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGODB_DATABASE", "coursereq"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPSender:    os.Getenv("SMTP_SENDER"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
