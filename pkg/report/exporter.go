package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"churn-finder/pkg/models"
)

const dateLayout = "2006-01-02 15:04:05"

// Header est l'en-tête du fichier CSV des clients churnés.
var Header = []string{"customer_id", "last_purchase_date", "contact", "last_product", "last_register", "recency_days"}

// Format de sortie du rapport.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FileSink écrit les clients churnés dans Path. Rien n'est créé si la liste est vide.
type FileSink struct {
	Path   string
	Format Format
}

// Write crée le fichier au format choisi et renvoie son chemin, "" si rows est vide.
func (s FileSink) Write(rows []models.CustomerSummary) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if s.Format != FormatCSV && s.Format != FormatJSON {
		return "", fmt.Errorf("format de sortie inconnu %q", s.Format)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return "", fmt.Errorf("échec de création du dossier: %w", err)
	}

	file, err := os.Create(s.Path)
	if err != nil {
		return "", fmt.Errorf("échec de création du fichier: %w", err)
	}

	if s.Format == FormatJSON {
		err = WriteJSON(file, rows)
	} else {
		err = WriteCSV(file, rows)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(s.Path)
		return "", err
	}
	return s.Path, nil
}

// WriteCSV écrit l'en-tête Header puis une ligne par client churné.
func WriteCSV(w io.Writer, rows []models.CustomerSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("échec d'écriture CSV: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.CustomerID,
			r.LastPurchaseDate.Format(dateLayout),
			r.Contact,
			r.LastProduct,
			r.LastRegister,
			strconv.Itoa(r.RecencyDays),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("échec d'écriture CSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	CustomerID       string `json:"customer_id"`
	LastPurchaseDate string `json:"last_purchase_date"`
	Contact          string `json:"contact"`
	LastProduct      string `json:"last_product"`
	LastRegister     string `json:"last_register"`
	RecencyDays      int    `json:"recency_days"`
}

// WriteJSON écrit les clients churnés en tableau JSON indenté.
func WriteJSON(w io.Writer, rows []models.CustomerSummary) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{
			CustomerID:       r.CustomerID,
			LastPurchaseDate: r.LastPurchaseDate.Format(dateLayout),
			Contact:          r.Contact,
			LastProduct:      r.LastProduct,
			LastRegister:     r.LastRegister,
			RecencyDays:      r.RecencyDays,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("échec d'écriture JSON: %w", err)
	}
	return nil
}
