package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            string
	MongoURI        string
	MongoDB         string
	JWTSecret       string
	SigningSecret   string
	RedisAddr       string
	RabbitURL       string
	RateLimitPerMin int
	Production      bool
}

// Load reads configuration from the environment. MONGO_URI and
// SIGNING_SECRET have no defaults on purpose: the components that need
// them surface a configuration error at the point of use.
func Load() Config {
	return Config{
		Port:            getenv("APP_PORT", "8080"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getenv("MONGO_DB", "chat_db"),
		JWTSecret:       getenv("JWT", "default_secret_key"),
		SigningSecret:   os.Getenv("SIGNING_SECRET"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		RateLimitPerMin: atoi(getenv("RATE_LIMIT_PER_MIN", "60")),
		Production:      getenv("APP_ENV", "development") == "production",
	}
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
