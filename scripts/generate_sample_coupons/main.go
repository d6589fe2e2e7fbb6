package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"mini-shop/internal/coupon"
)

// Generates a sample coupon import file for local development. The output
// matches the format the startup importer reads: gzipped, one JSON
// definition per line.
func main() {
	dataDir := "data/coupons"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	nextMonth := now.AddDate(0, 1, 0)

	definitions := []coupon.Definition{
		{
			Name:    "Ten dollars off",
			Code:    "TENOFF",
			Type:    "fixed",
			Value:   1000,
			Total:   100,
			Enabled: true,
		},
		{
			Name:           "Twenty percent off orders over $50",
			Code:           "SAVE20",
			Type:           "percent",
			Value:          20,
			Total:          50,
			MinAmountCents: 5000,
			Enabled:        true,
		},
		{
			Name:      "Launch week special",
			Code:      "LAUNCH",
			Type:      "fixed",
			Value:     500,
			Total:     200,
			NotBefore: &now,
			NotAfter:  &nextMonth,
			Enabled:   true,
		},
		{
			Name:    "Retired promotion",
			Code:    "OLDPROMO",
			Type:    "fixed",
			Value:   250,
			Total:   10,
			Enabled: false,
		},
	}

	filePath := filepath.Join(dataDir, "coupons.gz")
	if err := writeCouponFile(filePath, definitions); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d coupon definitions\n", filePath, len(definitions))
}

func writeCouponFile(path string, definitions []coupon.Definition) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	enc := json.NewEncoder(gz)
	for _, def := range definitions {
		if err := enc.Encode(def); err != nil {
			return fmt.Errorf("failed to encode definition %s: %w", def.Code, err)
		}
	}

	return nil
}
