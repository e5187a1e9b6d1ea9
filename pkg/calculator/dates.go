package calculator

import (
	"math"
	"time"

	"churn-finder/pkg/models"
)

// ReferenceLayout est le seul format accepté pour la date de référence.
const ReferenceLayout = "02-01-2006"

const day = 24 * time.Hour

// ParseReferenceDate("DD-MM-YYYY") -> minuit UTC, sans format de repli
func ParseReferenceDate(ddmmyyyy string) (time.Time, error) {
	t, err := time.ParseInLocation(ReferenceLayout, ddmmyyyy, time.UTC)
	if err != nil {
		return time.Time{}, &models.DateParseError{Value: ddmmyyyy, Layout: "DD-MM-YYYY"}
	}
	return t, nil
}

// daysBetween renvoie (to − from) en jours entiers, arrondi vers le bas.
// Négatif si to précède from.
func daysBetween(to, from time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(day)))
}

func daysBefore(t time.Time, n int) time.Time {
	return t.Add(-time.Duration(n) * day)
}
