package calculator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"churn-finder/pkg/models"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// progressOut reçoit la barre de progression du mode verbeux ; stdout reste au résultat.
var progressOut io.Writer = os.Stderr

// Source fournit les événements d'achat dans l'ordre de la source.
type Source interface {
	Load(ctx context.Context) ([]models.PurchaseEvent, error)
}

// Sink persiste la liste des clients churnés et renvoie l'emplacement écrit.
type Sink interface {
	Write(rows []models.CustomerSummary) (string, error)
}

// Run exécute un run complet : date de référence → chargement → filtre → agrégation →
// classification → écriture. Renvoie StatusWritten ou StatusNoChurn, ou une erreur.
// Une panique pendant le calcul est convertie en erreur.
func Run(ctx context.Context, src Source, sink Sink, cfg models.Config) (out models.Outcome, err error) {
	out.RunID = uuid.NewString()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %s: erreur inattendue: %v", out.RunID, r)
		}
	}()

	ref, err := ParseReferenceDate(cfg.ReferenceDate)
	if err != nil {
		return out, err
	}
	if err := validateSort(cfg.Sort); err != nil {
		return out, err
	}

	events, err := src.Load(ctx)
	if err != nil {
		return out, fmt.Errorf("load: %w", err)
	}
	out.EventsRead = len(events)

	events, out.EventsExcluded = Exclude(events, cfg.Policy.ExcludedCustomers)
	if cfg.Verbose {
		log.Printf("[DEBUG] run=%s events lus=%d, exclus=%d", out.RunID, out.EventsRead, out.EventsExcluded)
	}

	summaries, err := Aggregate(events)
	if err != nil {
		var empty *models.EmptyInputError
		if errors.As(err, &empty) {
			log.Printf("[INFO] run=%s %v", out.RunID, err)
			out.Status = models.StatusNoChurn
			return out, nil
		}
		return out, fmt.Errorf("aggregate: %w", err)
	}
	out.Customers = len(summaries)

	var tick func()
	if cfg.Verbose {
		bar := progressbar.NewOptions64(int64(len(summaries)),
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionSetDescription("classification"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(progressOut) }),
		)
		tick = func() { _ = bar.Add(1) }
	}
	churned := classify(indexDates(events), summaries, ref, cfg.Policy, tick)
	sortSummaries(churned, cfg.Sort)
	out.Churned = churned

	if cfg.Verbose {
		log.Printf("[DEBUG] run=%s ref=%s clients=%d churnés=%d",
			out.RunID, ref.Format(ReferenceLayout), out.Customers, len(churned))
	}

	if len(churned) == 0 {
		out.Status = models.StatusNoChurn
		return out, nil
	}

	path, err := sink.Write(churned)
	if err != nil {
		return out, fmt.Errorf("write report: %w", err)
	}
	out.Status = models.StatusWritten
	out.Path = path
	return out, nil
}

func validateSort(order models.SortOrder) error {
	switch order {
	case "", models.SortNone, models.SortRecency, models.SortCustomer:
		return nil
	}
	return fmt.Errorf("tri inconnu %q (none, recency, customer)", order)
}
