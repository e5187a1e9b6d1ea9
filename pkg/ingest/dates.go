package ingest

import (
	"fmt"
	"strings"
	"time"
)

// Formats jour-en-premier acceptés pour les dates de commande, puis ISO.
var purchaseLayouts = []string{
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParsePurchaseDate lit une date de commande (convention jour/mois/année), en UTC.
func ParsePurchaseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date vide")
	}
	for _, layout := range purchaseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("format de date non reconnu")
}
