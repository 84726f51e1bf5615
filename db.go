package main

import (
	"log"
	"os"

	"cashmachine/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func initDB(cfg Config) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = "file:cashmachine.db?cache=shared"
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		if cfg.DBDSN == "" {
			log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
		}
		db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	}
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}

	// Migrate models individually so a failure on one doesn't block others
	if err := db.AutoMigrate(&models.Item{}); err != nil {
		log.Printf("migration warning (items): %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}

	seedDB(db, cfg)
	ensureMediaDir(cfg.MediaDir)
	return db
}

// seedDB creates the admin operator account when ADMIN_PASSWORD is provided
// and no such user exists yet.
func seedDB(db *gorm.DB, cfg Config) {
	if cfg.AdminPassword == "" {
		return
	}
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash admin password: %v", err)
		return
	}
	admin := models.User{Username: "admin", HashedPassword: hashed}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("failed to seed admin user: %v", err)
		return
	}
	log.Println("Seeded admin user: username=admin")
}

// ensureMediaDir creates the artifact directory so the first conversion and
// the first fetch both find it in place.
func ensureMediaDir(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("failed to create media dir %s: %v", dir, err)
	}
}
