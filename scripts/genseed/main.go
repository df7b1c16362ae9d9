package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

func describe(s string) *string { return &s }

// genseed writes a gzipped sample seed file for SEED_SOURCE.
func main() {
	decimal.MarshalJSONWithoutQuotes = true
	dataDir := "data/seed"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	products := []seedProduct{
		{Name: "Mechanical Keyboard", Description: describe("Tenkeyless, brown switches"), Price: decimal.RequireFromString("89.99")},
		{Name: "Wireless Mouse", Description: describe("2.4GHz with USB receiver"), Price: decimal.RequireFromString("24.50")},
		{Name: "USB-C Hub", Price: decimal.RequireFromString("39")},
		{Name: "27-inch Monitor", Description: describe("1440p IPS panel"), Price: decimal.RequireFromString("299.00")},
		{Name: "Laptop Stand", Price: decimal.RequireFromString("0.99")},
	}

	filePath := filepath.Join(dataDir, "products.json.gz")
	if err := writeSeedFile(filePath, products); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products\n", filePath, len(products))
	fmt.Printf("\nStart the server with SEED_SOURCE=%s to load them into an empty store.\n", filePath)
}

func writeSeedFile(filePath string, products []seedProduct) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("failed to write products: %w", err)
	}

	return nil
}
