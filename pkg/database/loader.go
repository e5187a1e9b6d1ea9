package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"churn-finder/pkg/ingest"
	"churn-finder/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect identifie le driver database/sql utilisé.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "pgx"
)

var (
	tableRe  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	columnRe = regexp.MustCompile(`^[A-Za-z0-9_ ]+$`)
)

// Open DSN mariadb:// ou mysql:// → format MySQL driver, postgres:// → pgx.
// Un DSN natif du driver MySQL (user:pwd@tcp(host)/db) est passé tel quel.
func Open(dsn string) (*sql.DB, Dialect, error) {
	dialect, driverDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(string(dialect), driverDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, dialect, nil
}

func resolveDSN(dsn string) (Dialect, string, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return MySQL, dsn, nil
	}
	switch scheme {
	case "postgres", "postgresql":
		return Postgres, dsn, nil
	case "mariadb", "mysql":
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse dsn: %w", err)
		}
		user := u.User.Username()
		pass, _ := u.User.Password()
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || u.Host == "" || db == "" {
			return "", "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		// DATETIME décodé en time.Time, en UTC comme la date de référence
		return MySQL, fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, u.Host, db), nil
	}
	return "", "", fmt.Errorf("schéma de dsn non supporté %q", scheme)
}

// SQLSource lit l'historique d'achats depuis une table, triée par OrderBy
// (clé d'insertion) pour garantir l'ordre de la source.
type SQLSource struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	OrderBy string
	Columns models.Columns
	Verbose bool
}

// Load exécute la requête et renvoie les événements dans l'ordre OrderBy.
// Une date NULL ou illisible, ou un client NULL/vide, fait échouer le chargement.
func (s SQLSource) Load(ctx context.Context) ([]models.PurchaseEvent, error) {
	q, err := buildQuery(s.Dialect, s.Table, s.OrderBy, s.Columns)
	if err != nil {
		return nil, err
	}
	if s.Verbose {
		log.Printf("[DEBUG] query: %s", q)
	}

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.PurchaseEvent
	row := 0
	for rows.Next() {
		row++
		var (
			customerID, contact, product, register sql.NullString
			rawDate                                any
		)
		if err := rows.Scan(&customerID, &rawDate, &contact, &product, &register); err != nil {
			return nil, err
		}
		ev, err := toEvent(row, customerID, rawDate, contact, product, register)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.Verbose {
		log.Printf("[DEBUG] events lus depuis %s=%d", s.Table, len(events))
	}
	return events, nil
}

// toEvent convertit une ligne scannée ; row commence à 1.
func toEvent(row int, customerID sql.NullString, rawDate any, contact, product, register sql.NullString) (models.PurchaseEvent, error) {
	id := strings.TrimSpace(customerID.String)
	if !customerID.Valid || id == "" {
		return models.PurchaseEvent{}, &models.MissingCustomerError{Row: row}
	}
	date, err := purchaseDate(rawDate)
	if err != nil {
		return models.PurchaseEvent{}, &models.MalformedRecordError{Row: row, Value: fmt.Sprint(rawDate), Err: err}
	}
	return models.PurchaseEvent{
		CustomerID:   id,
		PurchaseDate: date,
		Contact:      strings.TrimSpace(contact.String),
		ProductName:  strings.TrimSpace(product.String),
		RegisterName: strings.TrimSpace(register.String),
	}, nil
}

func buildQuery(d Dialect, table, orderBy string, cols models.Columns) (string, error) {
	if !tableRe.MatchString(table) {
		return "", fmt.Errorf("table invalide %q", table)
	}
	if !tableRe.MatchString(orderBy) {
		return "", fmt.Errorf("colonne de tri invalide %q", orderBy)
	}
	names := []string{cols.CustomerID, cols.PurchaseDate, cols.Contact, cols.ProductName, cols.RegisterName}
	quoted := make([]string, len(names))
	for i, n := range names {
		if !columnRe.MatchString(n) {
			return "", fmt.Errorf("colonne invalide %q", n)
		}
		quoted[i] = quote(d, n)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ", "), quote(d, table), quote(d, orderBy)), nil
}

func quote(d Dialect, ident string) string {
	if d == Postgres {
		return `"` + ident + `"`
	}
	return "`" + ident + "`"
}

// purchaseDate accepte un DATETIME déjà décodé par le driver ou un texte jour-en-premier.
func purchaseDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return ingest.ParsePurchaseDate(string(x))
	case string:
		return ingest.ParsePurchaseDate(x)
	case nil:
		return time.Time{}, fmt.Errorf("date NULL")
	default:
		return time.Time{}, fmt.Errorf("type de date inattendu %T", v)
	}
}
