package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"churn-finder/pkg/models"
)

// CSVSource lit l'historique d'achats depuis un export CSV, une ligne par événement.
type CSVSource struct {
	Path    string
	Columns models.Columns
}

// Load ouvre le fichier et renvoie les événements dans l'ordre du fichier.
func (s CSVSource) Load(ctx context.Context) ([]models.PurchaseEvent, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f, s.Columns)
}

// ReadCSV lit toutes les lignes de r. Une date illisible ou un client vide fait
// échouer toute la lecture.
func ReadCSV(ctx context.Context, r io.Reader, cols models.Columns) ([]models.PurchaseEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // les exports tableur ont parfois des virgules en fin de ligne
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read headers: fichier vide")
		}
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index, err := columnIndex(headers, cols)
	if err != nil {
		return nil, err
	}

	var events []models.PurchaseEvent
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if blank(record) {
			continue
		}

		customer := pick(record, index.customer)
		if customer == "" {
			return nil, &models.MissingCustomerError{Row: row}
		}
		raw := pick(record, index.date)
		date, err := ParsePurchaseDate(raw)
		if err != nil {
			return nil, &models.MalformedRecordError{Row: row, Value: raw, Err: err}
		}
		events = append(events, models.PurchaseEvent{
			CustomerID:   customer,
			PurchaseDate: date,
			Contact:      pick(record, index.contact),
			ProductName:  pick(record, index.product),
			RegisterName: pick(record, index.register),
		})
	}
	return events, nil
}

type csvIndex struct {
	customer, date, contact, product, register int
}

func columnIndex(headers []string, cols models.Columns) (csvIndex, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		// BOM laissé par Excel sur la première colonne
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	lookup := func(name string) (int, error) {
		pos, ok := idx[name]
		if !ok {
			return 0, &models.MissingColumnError{Column: name}
		}
		return pos, nil
	}

	var (
		out csvIndex
		err error
	)
	if out.customer, err = lookup(cols.CustomerID); err != nil {
		return out, err
	}
	if out.date, err = lookup(cols.PurchaseDate); err != nil {
		return out, err
	}
	if out.contact, err = lookup(cols.Contact); err != nil {
		return out, err
	}
	if out.product, err = lookup(cols.ProductName); err != nil {
		return out, err
	}
	if out.register, err = lookup(cols.RegisterName); err != nil {
		return out, err
	}
	return out, nil
}

func pick(record []string, pos int) string {
	if pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
