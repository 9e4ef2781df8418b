package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	Env          string
	UsersFile    string
	MessageStore string
	MessageDir   string
}

func Load() *Config {
	log.Println("[CONFIG] Attempting to load .env file...")

	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	} else {
		log.Println("[CONFIG] Successfully loaded .env file")
	}

	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("BACKEND_PORT", "4000")
	}

	cfg := &Config{
		Port:         port,
		Env:          getEnv("APP_ENV", "development"),
		UsersFile:    getEnv("USERS_FILE", "data/users.json"),
		MessageStore: getEnv("MESSAGE_STORE", "memory"),
		MessageDir:   getEnv("MESSAGE_DIR", "data/messages"),
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Target Port: %s", cfg.Port)
	log.Printf("[CONFIG] User file: %s", cfg.UsersFile)
	log.Printf("[CONFIG] Message store: %s", cfg.MessageStore)

	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}
