package config

import (
	"fmt"
	"os"
	"path/filepath"

	"churn-finder/pkg/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPolicy renvoie la règle standard : recency > 180 jours et au moins
// 3 achats dans les 180 jours précédant le dernier achat.
func DefaultPolicy() models.Policy {
	return models.Policy{
		RecencyDays:        180,
		WindowDays:         180,
		MinWindowPurchases: 3,
		ExcludedCustomers: []string{
			"point of sale customer", "samudra", "retail section", "palm tree",
			"kalyan", "med lab", "calicut healthcare llp",
		},
		Columns: models.Columns{
			CustomerID:   "Order Customer Name",
			PurchaseDate: "Order Ordered Date",
			Contact:      "Order Customer Contact",
			ProductName:  "Product Full Name",
			RegisterName: "Order Register Name",
		},
	}
}

// LoadPolicy lit un fichier YAML par-dessus DefaultPolicy. Chemin vide → défauts.
func LoadPolicy(path string) (models.Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := Validate(p); err != nil {
		return p, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

// WriteDefault écrit la politique par défaut en YAML, dossiers parents compris.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("échec de création du dossier de politique: %w", err)
	}
	data, err := yaml.Marshal(DefaultPolicy())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate refuse les seuils négatifs ou nuls et les noms de colonnes vides.
func Validate(p models.Policy) error {
	if p.RecencyDays <= 0 {
		return fmt.Errorf("recency_days doit être > 0 (reçu %d)", p.RecencyDays)
	}
	if p.WindowDays <= 0 {
		return fmt.Errorf("window_days doit être > 0 (reçu %d)", p.WindowDays)
	}
	if p.MinWindowPurchases <= 0 {
		return fmt.Errorf("min_window_purchases doit être > 0 (reçu %d)", p.MinWindowPurchases)
	}
	c := p.Columns
	for name, v := range map[string]string{
		"customer_id":   c.CustomerID,
		"purchase_date": c.PurchaseDate,
		"contact":       c.Contact,
		"product_name":  c.ProductName,
		"register_name": c.RegisterName,
	} {
		if v == "" {
			return fmt.Errorf("columns.%s vide", name)
		}
	}
	return nil
}

// Env contient les valeurs par défaut lues dans l'environnement (et un éventuel .env).
type Env struct {
	DSN    string
	Policy string
	Output string
}

// FromEnv charge .env s'il existe puis lit CHURN_DSN, CHURN_POLICY et CHURN_OUTPUT.
func FromEnv() Env {
	_ = godotenv.Load()
	return Env{
		DSN:    os.Getenv("CHURN_DSN"),
		Policy: os.Getenv("CHURN_POLICY"),
		Output: envOrDefault("CHURN_OUTPUT", "churned_customers.csv"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
