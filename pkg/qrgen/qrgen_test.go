package qrgen

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestEncodeProducesPNG(t *testing.T) {
	data, err := Encode("http://localhost:8080/media/check_30_08_2026_12_30_1.pdf")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		t.Errorf("image not square: %dx%d", b.Dx(), b.Dy())
	}
	// smallest QR version is 21 modules; with border that is 29 boxes
	if b.Dx() < (21+2*quietZone)*boxSize {
		t.Errorf("image too small: %d", b.Dx())
	}
}

func TestEncodeDeterministic(t *testing.T) {
	url := "http://example.com/media/check_01_01_2026_00_00_1.pdf"
	a, err := Encode(url)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(url)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("same payload produced different images")
	}
}

func TestEncodeDistinctPayloads(t *testing.T) {
	a, err := Encode("http://example.com/media/check_01_01_2026_00_00_1.pdf")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode("http://example.com/media/check_01_01_2026_00_00_2.pdf")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different payloads produced identical images")
	}
}

func TestEncodeOversizedPayload(t *testing.T) {
	if _, err := Encode(strings.Repeat("x", 8000)); err == nil {
		t.Fatal("expected error for payload beyond QR capacity")
	}
}
