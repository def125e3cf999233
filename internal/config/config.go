package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort string

	JWTSecret string

	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	RedisURL string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	// AppBaseURL is the public URL used to build verification and reset
	// links in outgoing emails.
	AppBaseURL string

	// StatsTimeZone is the IANA zone applied before extracting clock hours
	// in the statistics aggregation. The original deployment hardcoded a
	// +2h shift; a named zone keeps the averages stable across DST.
	StatsTimeZone string

	EmailWorkerCount int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 900
	}

	refreshTokenMaxAge, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_MAX_AGE"))
	if err != nil || refreshTokenMaxAge <= 0 {
		refreshTokenMaxAge = 2592000
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	smtpPort, err := strconv.Atoi(os.Getenv("EMAIL_SERVER_PORT"))
	if err != nil || smtpPort <= 0 {
		smtpPort = 587
	}

	statsTimeZone := os.Getenv("STATS_TIME_ZONE")
	if statsTimeZone == "" {
		statsTimeZone = "Europe/Paris"
	}

	emailWorkerCount, err := strconv.Atoi(os.Getenv("EMAIL_WORKER_COUNT"))
	if err != nil || emailWorkerCount <= 0 {
		emailWorkerCount = 2
	}

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:3000"
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:  accessTokenMaxAge,
		RefreshTokenMaxAge: refreshTokenMaxAge,

		RedisURL: os.Getenv("REDIS_URL"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		SMTPHost:     os.Getenv("EMAIL_SERVER_HOST"),
		SMTPPort:     smtpPort,
		SMTPUser:     os.Getenv("EMAIL_SERVER_USER"),
		SMTPPassword: os.Getenv("EMAIL_SERVER_PASSWORD"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),

		AppBaseURL: appBaseURL,

		StatsTimeZone: statsTimeZone,

		EmailWorkerCount: emailWorkerCount,
	}, nil
}
