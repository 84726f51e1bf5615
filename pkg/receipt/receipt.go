package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"sync"
	"time"

	"cashmachine/models"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
)

// Fixed vendor metadata printed on every receipt.
const (
	VendorName    = "CASH MACHINE STORE"
	PaymentMethod = "CASH"
	CustomerLabel = "Walk-in customer"
)

// Line is one priced row of a receipt.
type Line struct {
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Receipt is the in-memory purchase document. It only lives long enough to be
// rendered; the PDF is the durable form.
type Receipt struct {
	Lines         []Line
	Total         decimal.Decimal
	Tax           decimal.Decimal
	GeneratedAt   string
	Vendor        string
	PaymentMethod string
	Customer      string
}

// Renderer builds receipts from items and renders them through an HTML
// template. The template file is re-parsed when it changes on disk.
type Renderer struct {
	path    string
	taxRate decimal.Decimal

	mu  sync.RWMutex
	tpl *template.Template

	watcher *fsnotify.Watcher
}

// NewRenderer parses the template at path. taxRate is the portion of the
// total reported as tax (e.g. 0.20).
func NewRenderer(path string, taxRate float64) (*Renderer, error) {
	tpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &Renderer{
		path:    path,
		taxRate: decimal.NewFromFloat(taxRate),
		tpl:     tpl,
	}, nil
}

// Watch re-parses the template whenever it is rewritten. The watch is on the
// containing directory because editors and deploy tools replace files rather
// than write them in place.
func (r *Renderer) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		w.Close()
		return err
	}
	r.watcher = w
	base := filepath.Base(r.path)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				tpl, err := template.ParseFiles(r.path)
				if err != nil {
					log.Printf("receipt template reload failed, keeping previous: %v", err)
					continue
				}
				r.mu.Lock()
				r.tpl = tpl
				r.mu.Unlock()
				log.Printf("receipt template reloaded from %s", r.path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("template watch error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the template watcher if one was started.
func (r *Renderer) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}

// Build assembles the receipt for the given items. Quantity is fixed at one
// per line; the input slice is not modified.
func (r *Renderer) Build(items []models.Item, now time.Time) Receipt {
	rec := Receipt{
		Lines:         make([]Line, 0, len(items)),
		Total:         decimal.Zero,
		GeneratedAt:   now.Format("02.01.2006 15:04"),
		Vendor:        VendorName,
		PaymentMethod: PaymentMethod,
		Customer:      CustomerLabel,
	}
	for _, it := range items {
		qty := 1
		lineTotal := it.Price.Mul(decimal.NewFromInt(int64(qty)))
		rec.Lines = append(rec.Lines, Line{
			Title:     it.Title,
			UnitPrice: it.Price,
			Quantity:  qty,
			Total:     lineTotal,
		})
		rec.Total = rec.Total.Add(lineTotal)
	}
	rec.Tax = rec.Total.Mul(r.taxRate).Round(2)
	return rec
}

// Render builds the receipt and executes the template into HTML.
func (r *Renderer) Render(items []models.Item, now time.Time) ([]byte, error) {
	rec := r.Build(items, now)
	r.mu.RLock()
	tpl := r.tpl
	r.mu.RUnlock()
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, rec); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
