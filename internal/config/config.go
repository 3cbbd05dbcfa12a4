package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Webhook verification
	WebhookHMACSecret   string
	WebhookSharedSecret string

	// Offer eligibility: line-item title keywords marking the free offer.
	OfferKeywords []string

	// Matching policy: whether a shared IP address alone marks a claim.
	MatchIPAddress bool

	// Admin
	AdminToken string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "offerguard"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		WebhookHMACSecret:   getEnv("WEBHOOK_HMAC_SECRET", ""),
		WebhookSharedSecret: getEnv("WEBHOOK_SHARED_SECRET", ""),

		OfferKeywords:  parseCSV(getEnv("OFFER_KEYWORDS", "free sample")),
		MatchIPAddress: parseBool(getEnv("MATCH_IP_ADDRESS", "false")),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "https://puerhcraft.com"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
