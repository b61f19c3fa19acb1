package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	// LoyaltyPointsDivisor converts an order total into loyalty points:
	// points = floor(total / divisor).
	LoyaltyPointsDivisor int64
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		DBPort:               os.Getenv("DB_PORT"),
		AppPort:              os.Getenv("APP_PORT"),
		AppEnv:               os.Getenv("APP_ENV"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		KafkaTopic:           os.Getenv("KAFKA_TOPIC"),
		LoyaltyPointsDivisor: 10000,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if raw := os.Getenv("LOYALTY_POINTS_DIVISOR"); raw != "" {
		divisor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || divisor <= 0 {
			log.Fatalf("invalid LOYALTY_POINTS_DIVISOR: %q", raw)
		}
		cfg.LoyaltyPointsDivisor = divisor
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}
