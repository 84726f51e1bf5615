package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries all process-level settings. It is loaded once in main and
// handed to each component's constructor instead of being read from globals.
type Config struct {
	Port      string
	DBDriver  string // "postgres" or "sqlite"
	DBDSN     string
	JWTSecret string

	MediaDir       string
	WkhtmltopdfBin string
	PageWidth      string
	PageHeight     string
	PageMargin     string

	TemplateDir string
	// PublicScheme is the scheme baked into QR payload URLs.
	PublicScheme string
	// TaxRate is the portion of the receipt total reported as tax.
	TaxRate float64

	AdminPassword string
}

// LoadConfig reads .env (if present) and the environment with defaults.
func LoadConfig() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBDSN:          os.Getenv("DB_DSN"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-insecure-secret-change"),
		MediaDir:       getEnv("MEDIA_DIR", "media"),
		WkhtmltopdfBin: getEnv("WKHTMLTOPDF_BIN", "wkhtmltopdf"),
		PageWidth:      getEnv("PAGE_WIDTH", "80mm"),
		PageHeight:     getEnv("PAGE_HEIGHT", "200mm"),
		PageMargin:     getEnv("PAGE_MARGIN", "5mm"),
		TemplateDir:    getEnv("TEMPLATE_DIR", "templates"),
		PublicScheme:   getEnv("PUBLIC_SCHEME", "http"),
		TaxRate:        getEnvFloat("TAX_RATE", 0.20),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid float for %s: %s", key, v)
			return def
		}
		return f
	}
	return def
}
