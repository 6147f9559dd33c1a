//go:build ignore

// Writes data/catalog/products.gz for `go run ./cmd/seed`.
//
//	go run scripts/generate_sample_catalog.go
package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type sampleProduct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Stock       int    `json:"stock"`
	Image       string `json:"image"`
}

var samples = []sampleProduct{
	{"Noise Cancelling Headphones", "Over-ear wireless headphones with 30h battery", "249.99", "Electronics", 25, "/images/headphones.jpg"},
	{"4K Action Camera", "Waterproof camera with image stabilisation", "179.00", "Electronics", 15, "/images/action-camera.jpg"},
	{"Bluetooth Speaker", "Portable speaker, IP67", "59.90", "Electronics", 60, "/images/speaker.jpg"},
	{"Ultrabook 14", "14 inch laptop, 16GB RAM, 512GB SSD", "1199.00", "Computers", 8, "/images/ultrabook.jpg"},
	{"Mechanical Keyboard", "Hot-swappable switches, RGB", "129.00", "Computers", 40, "/images/keyboard.jpg"},
	{"27 inch Monitor", "QHD IPS panel, 165Hz", "329.00", "Computers", 12, "/images/monitor.jpg"},
	{"Smart Thermostat", "Learning thermostat with app control", "199.00", "Smart Home", 20, "/images/thermostat.jpg"},
	{"Video Doorbell", "1080p doorbell with motion alerts", "99.99", "Smart Home", 30, "/images/doorbell.jpg"},
	{"Smart Plug 2-Pack", "Wi-Fi plugs with energy monitoring", "24.99", "Smart Home", 100, "/images/smart-plug.jpg"},
	{"USB-C Hub", "7-in-1 hub with HDMI and PD charging", "39.99", "Accessories", 75, "/images/usb-hub.jpg"},
	{"Wireless Charger", "15W Qi charging pad", "29.99", "Accessories", 80, "/images/charger.jpg"},
	{"Laptop Sleeve", "Water-resistant sleeve for 13-14 inch laptops", "19.99", "Accessories", 0, "/images/sleeve.jpg"},
}

func main() {
	dataDir := "data/catalog"
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	filePath := filepath.Join(dataDir, "products.gz")
	if err := writeCatalog(filePath, samples); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products\n", filePath, len(samples))
}

func writeCatalog(filePath string, products []sampleProduct) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	enc := json.NewEncoder(gz)
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to write product %q: %w", p.Name, err)
		}
	}

	return gz.Close()
}
