// Seeds a small demo catalog so /cash_machine has something to sell.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"cashmachine/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	items := []models.Item{
		{Title: "Pasta", Price: decimal.NewFromInt(80)},
		{Title: "Cucumbers", Price: decimal.NewFromInt(60)},
		{Title: "Potatoes", Price: decimal.NewFromInt(50)},
	}
	for _, it := range items {
		var count int64
		db.Model(&models.Item{}).Where("title = ?", it.Title).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&it).Error; err != nil {
			log.Printf("failed to seed %s: %v", it.Title, err)
			continue
		}
		fmt.Printf("seeded item %q id=%d price=%s\n", it.Title, it.ID, it.Price)
	}
}
