package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the gateway settings read from the environment
type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	CORSOrigins  string
	UploadDir    string
	MaxUploadMB  int
	AMQPURL      string
	AMQPExchange string
	ICEServers   []string
}

// Load reads .env when present, then the process environment
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() Config {
	return Config{
		Port:         envStr("PORT", "8080"),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		JWTSecret:    envStr("JWT_SECRET", ""),
		CORSOrigins:  envStr("CORS_ORIGINS", "http://localhost:3000"),
		UploadDir:    envStr("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:  envInt("MAX_UPLOAD_MB", 5),
		AMQPURL:      envStr("AMQP_URL", ""),
		AMQPExchange: envStr("AMQP_EXCHANGE", "chat"),
		ICEServers:   envList("ICE_SERVERS"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
