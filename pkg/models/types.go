package models

import (
	"time"
)

/*
LOAD → types simples pour les événements d'achat bruts (CSV ou base de données).
*/

// PurchaseEvent représente une ligne de l'historique d'achats, dans l'ordre de la source.
type PurchaseEvent struct {
	CustomerID   string
	PurchaseDate time.Time
	Contact      string
	ProductName  string
	RegisterName string
}

/*
COMPUTE → résumé par client et résultat d'un run
*/

// CustomerSummary agrège l'historique d'un client pour un run donné.
type CustomerSummary struct {
	CustomerID       string    `json:"customer_id"`
	LastPurchaseDate time.Time `json:"last_purchase_date"`
	Contact          string    `json:"contact"`       // premier événement du client
	LastProduct      string    `json:"last_product"`  // dernier événement du client
	LastRegister     string    `json:"last_register"` // dernier événement du client
	RecencyDays      int       `json:"recency_days"`  // référence − dernier achat, en jours entiers
}

// Status décrit l'issue (réussie) d'un run.
type Status string

const (
	StatusWritten Status = "written"  // au moins un client churné, fichier produit
	StatusNoChurn Status = "no_churn" // aucun client churné, aucun fichier
)

// Outcome est le résultat renvoyé à l'appelant quand le run n'a pas échoué.
type Outcome struct {
	RunID          string
	Status         Status
	Path           string // vide si StatusNoChurn
	Churned        []CustomerSummary
	EventsRead     int
	EventsExcluded int
	Customers      int
}

/*
CONFIG → politique de churn et paramètres du run
*/

// Columns fait correspondre les champs d'un PurchaseEvent aux colonnes de la source.
type Columns struct {
	CustomerID   string `yaml:"customer_id"`
	PurchaseDate string `yaml:"purchase_date"`
	Contact      string `yaml:"contact"`
	ProductName  string `yaml:"product_name"`
	RegisterName string `yaml:"register_name"`
}

// Policy contient les seuils de la règle de churn et la liste d'exclusion.
type Policy struct {
	RecencyDays        int      `yaml:"recency_days"`         // condition 1 : recency > RecencyDays
	WindowDays         int      `yaml:"window_days"`          // condition 2 : fenêtre [last − WindowDays, last)
	MinWindowPurchases int      `yaml:"min_window_purchases"` // condition 2 : au moins N achats dans la fenêtre
	ExcludedCustomers  []string `yaml:"excluded_customers"`
	Columns            Columns  `yaml:"columns"`
}

// SortOrder contrôle l'ordre des clients churnés en sortie.
type SortOrder string

const (
	SortNone     SortOrder = "none"     // ordre d'agrégation
	SortRecency  SortOrder = "recency"  // recency décroissante
	SortCustomer SortOrder = "customer" // identifiant croissant
)

// Config contient les paramètres passés à la fonction de calcul.
type Config struct {
	ReferenceDate string // "DD-MM-YYYY"
	Policy        Policy
	Sort          SortOrder
	Verbose       bool // Flag pour activer les logs détaillés.
}
