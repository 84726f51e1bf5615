package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"cashmachine/models"
	"cashmachine/pkg/pdfgen"
	"cashmachine/pkg/qrgen"
	"cashmachine/pkg/receipt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// artifactNameRE accepts only names the converter itself produces. Anything
// else (including path separators or dotted segments) is treated as missing.
var artifactNameRE = regexp.MustCompile(`^check_\d{2}_\d{2}_\d{4}_\d{2}_\d{2}_\d+\.pdf$`)

var errItemsNotFound = errors.New("one or more items not found")

type server struct {
	cfg       Config
	db        *gorm.DB
	renderer  *receipt.Renderer
	converter *pdfgen.Converter
	// encode turns the artifact URL into image bytes; swappable in tests.
	encode func(url string) ([]byte, error)
}

func newServer(cfg Config, db *gorm.DB, renderer *receipt.Renderer, converter *pdfgen.Converter) *server {
	return &server{cfg: cfg, db: db, renderer: renderer, converter: converter, encode: qrgen.Encode}
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/health", s.healthHandler)
	r.POST("/cash_machine", s.cashMachineHandler)
	r.GET("/media/:file_name", s.mediaHandler)
	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)
	authGroup := r.Group("")
	authGroup.Use(s.jwtAuthMiddleware())
	authGroup.POST("/items", s.createItemsHandler)
	authGroup.GET("/items", s.listItemsHandler)
	authGroup.GET("/items/:id", s.getItemHandler)
	authGroup.PUT("/items/:id", s.updateItemHandler)
	authGroup.DELETE("/items/:id", s.deleteItemHandler)
}

func (s *server) healthHandler(c *gin.Context) {
	if err := s.db.Exec("SELECT 1").Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cashMachineHandler runs the receipt pipeline: resolve items, render the
// receipt, convert it to a stored PDF and answer with a QR code pointing at
// the artifact.
func (s *server) cashMachineHandler(c *gin.Context) {
	var req struct {
		Items []uint `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	items, err := s.lookupItems(req.Items)
	if err != nil {
		if errors.Is(err, errItemsNotFound) {
			log.Printf("cash_machine: %v (requested ids %v)", err, req.Items)
			c.JSON(http.StatusNotFound, gin.H{"error": "one or more items not found"})
			return
		}
		log.Printf("cash_machine: item lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	html, err := s.renderer.Render(items, now)
	if err != nil {
		log.Printf("cash_machine: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fileName, err := s.converter.Convert(c.Request.Context(), html, now)
	if err != nil {
		log.Printf("cash_machine: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	url := fmt.Sprintf("%s://%s/media/%s", s.cfg.PublicScheme, c.Request.Host, fileName)
	png, err := s.encode(url)
	if err != nil {
		log.Printf("cash_machine: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// lookupItems resolves the requested ids all-or-nothing: any id without a
// matching row fails the whole lookup. Duplicate ids resolve once.
func (s *server) lookupItems(ids []uint) ([]models.Item, error) {
	uniq := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return nil, errItemsNotFound
	}
	var items []models.Item
	if err := s.db.Where("id IN ?", uniq).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("item lookup: %w", err)
	}
	if len(items) != len(uniq) {
		return nil, errItemsNotFound
	}
	return items, nil
}

// mediaHandler streams a previously generated PDF back verbatim.
func (s *server) mediaHandler(c *gin.Context) {
	name := c.Param("file_name")
	if !artifactNameRE.MatchString(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	path := filepath.Join(s.cfg.MediaDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		log.Printf("media: stat %s: %v", path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.File(path)
}

func (s *server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		c.Set("username", username)
		c.Next()
	}
}

func (s *server) registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.registerUser(req.Username, req.Password); err != nil {
		if errors.Is(err, errUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func (s *server) loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	tokenString, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

// Price has no required tag: that would reject a legitimate zero price, since
// the validator cannot tell 0.00 from absent. Non-negativity is checked
// explicitly instead.
type itemRequest struct {
	Title string          `json:"title" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

// createItemsHandler creates a batch of catalog items and returns their ids.
func (s *server) createItemsHandler(c *gin.Context) {
	var reqs []itemRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one item required"})
		return
	}
	items := make([]models.Item, 0, len(reqs))
	for _, r := range reqs {
		// binding tags do not dive into top-level arrays, so validate here
		if r.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title required for every item"})
			return
		}
		if r.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
			return
		}
		items = append(items, models.Item{Title: r.Title, Price: r.Price})
	}
	if err := s.db.Create(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	c.JSON(http.StatusCreated, gin.H{"items": ids})
}

func (s *server) listItemsHandler(c *gin.Context) {
	var items []models.Item
	if err := s.db.Order("id").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *server) getItemHandler(c *gin.Context) {
	var item models.Item
	if err := s.db.First(&item, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *server) updateItemHandler(c *gin.Context) {
	var item models.Item
	if err := s.db.First(&item, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}
	item.Title = req.Title
	item.Price = req.Price
	if err := s.db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *server) deleteItemHandler(c *gin.Context) {
	res := s.db.Delete(&models.Item{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}
