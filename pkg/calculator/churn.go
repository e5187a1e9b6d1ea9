package calculator

import (
	"sort"
	"strings"
	"time"

	"churn-finder/pkg/models"
)

// Exclude retire les événements des clients exclus (comparaison insensible à la casse).
// L'ordre de la source est conservé.
func Exclude(events []models.PurchaseEvent, excluded []string) ([]models.PurchaseEvent, int) {
	if len(excluded) == 0 {
		return events, 0
	}
	set := make(map[string]struct{}, len(excluded))
	for _, id := range excluded {
		set[normalizeID(id)] = struct{}{}
	}

	kept := make([]models.PurchaseEvent, 0, len(events))
	for _, ev := range events {
		if _, skip := set[normalizeID(ev.CustomerID)]; skip {
			continue
		}
		kept = append(kept, ev)
	}
	return kept, len(events) - len(kept)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Aggregate produit un CustomerSummary par client, dans l'ordre de première apparition.
// Contact = premier événement du client, LastProduct/LastRegister = dernier événement
// (ordre de la source, jamais re-trié). RecencyDays est laissé à 0, voir Classify.
func Aggregate(events []models.PurchaseEvent) ([]models.CustomerSummary, error) {
	if len(events) == 0 {
		return nil, &models.EmptyInputError{}
	}

	pos := map[string]int{}
	var out []models.CustomerSummary
	for _, ev := range events {
		i, seen := pos[ev.CustomerID]
		if !seen {
			pos[ev.CustomerID] = len(out)
			out = append(out, models.CustomerSummary{
				CustomerID:       ev.CustomerID,
				LastPurchaseDate: ev.PurchaseDate,
				Contact:          ev.Contact,
				LastProduct:      ev.ProductName,
				LastRegister:     ev.RegisterName,
			})
			continue
		}
		s := &out[i]
		if ev.PurchaseDate.After(s.LastPurchaseDate) {
			s.LastPurchaseDate = ev.PurchaseDate
		}
		s.LastProduct = ev.ProductName
		s.LastRegister = ev.RegisterName
	}
	return out, nil
}

// Classify renvoie les clients churnés par rapport à ref, dans l'ordre des summaries.
// Les entrées ne sont pas modifiées ; RecencyDays est renseigné sur les copies renvoyées.
func Classify(events []models.PurchaseEvent, summaries []models.CustomerSummary, ref time.Time, p models.Policy) []models.CustomerSummary {
	return classify(indexDates(events), summaries, ref, p, nil)
}

func classify(dates map[string][]time.Time, summaries []models.CustomerSummary, ref time.Time, p models.Policy, tick func()) []models.CustomerSummary {
	var churned []models.CustomerSummary
	for _, s := range summaries {
		s.RecencyDays = daysBetween(ref, s.LastPurchaseDate)
		if isChurned(s, dates[s.CustomerID], p) {
			churned = append(churned, s)
		}
		if tick != nil {
			tick()
		}
	}
	return churned
}

// isChurned applique les deux conditions à un client :
//  1. recency > RecencyDays (strict)
//  2. au moins MinWindowPurchases achats dans [last − WindowDays, last)
func isChurned(s models.CustomerSummary, dates []time.Time, p models.Policy) bool {
	if s.RecencyDays <= p.RecencyDays {
		return false
	}
	return windowCount(dates, s.LastPurchaseDate, p.WindowDays) >= p.MinWindowPurchases
}

func windowCount(dates []time.Time, last time.Time, windowDays int) int {
	lower := daysBefore(last, windowDays)
	n := 0
	for _, d := range dates {
		if !d.Before(lower) && d.Before(last) {
			n++
		}
	}
	return n
}

// indexDates regroupe les dates d'achat par client pour que chaque verdict
// ne lise que l'historique de ce client.
func indexDates(events []models.PurchaseEvent) map[string][]time.Time {
	idx := make(map[string][]time.Time)
	for _, ev := range events {
		idx[ev.CustomerID] = append(idx[ev.CustomerID], ev.PurchaseDate)
	}
	return idx
}

func sortSummaries(rows []models.CustomerSummary, order models.SortOrder) {
	switch order {
	case models.SortRecency:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].RecencyDays > rows[j].RecencyDays })
	case models.SortCustomer:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	}
}
