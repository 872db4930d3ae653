package params

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type API struct {
	Addr string
}

type Storage struct {
	Path string
}

type Events struct {
	// Brokers enables Kafka fill publishing when non-empty.
	Brokers []string
	Topic   string
}

type Engine struct {
	// AutoSettle makes a matching batch settle its own fills instead of
	// leaving them for an external settlement caller.
	AutoSettle bool
}

type Config struct {
	API     API
	Storage Storage
	Events  Events
	Engine  Engine
	LogFile string
}

func Default() Config {
	return Config{
		API:     API{Addr: ":8080"},
		Storage: Storage{Path: "data/engine.db"},
		Events:  Events{Topic: "fills"},
		Engine:  Engine{AutoSettle: true},
		LogFile: "data/engine.log",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Events.Topic = v
	}
	if v := os.Getenv("AUTO_SETTLE"); v != "" {
		cfg.Engine.AutoSettle = v == "true"
	}

	return cfg
}
