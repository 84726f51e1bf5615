package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cashmachine/pkg/pdfgen"
	"cashmachine/pkg/receipt"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := LoadConfig()

	// Support a lightweight migrate command: `./cashmachine migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		fmt.Println("migration and seeding completed")
		return
	}

	db := initDB(cfg)

	renderer, err := receipt.NewRenderer(filepath.Join(cfg.TemplateDir, "receipt.html"), cfg.TaxRate)
	if err != nil {
		log.Fatal("failed to load receipt template: ", err)
	}
	if err := renderer.Watch(); err != nil {
		log.Printf("template hot reload disabled: %v", err)
	}
	defer renderer.Close()

	converter := pdfgen.NewConverter(cfg.MediaDir, pdfgen.Options{
		Bin:        cfg.WkhtmltopdfBin,
		PageWidth:  cfg.PageWidth,
		PageHeight: cfg.PageHeight,
		Margin:     cfg.PageMargin,
	}, nil)

	s := newServer(cfg, db, renderer, converter)

	r := gin.Default()
	s.setupRoutes(r)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
