package calculator

import (
	"errors"
	"testing"
	"time"

	"churn-finder/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// dayN returns day n, day 1 being base.
func dayN(n int) time.Time { return base.AddDate(0, 0, n-1) }

func ev(id string, at time.Time) models.PurchaseEvent {
	return models.PurchaseEvent{CustomerID: id, PurchaseDate: at}
}

func defaultPolicy() models.Policy {
	return models.Policy{RecencyDays: 180, WindowDays: 180, MinWindowPurchases: 3}
}

func classifyAt(t *testing.T, events []models.PurchaseEvent, ref time.Time) []models.CustomerSummary {
	t.Helper()
	summaries, err := Aggregate(events)
	require.NoError(t, err)
	return Classify(events, summaries, ref, defaultPolicy())
}

func TestAggregate_FirstAndLastFollowSourceOrder(t *testing.T) {
	events := []models.PurchaseEvent{
		{CustomerID: "A", PurchaseDate: dayN(50), Contact: "a-first", ProductName: "p1", RegisterName: "r1"},
		{CustomerID: "B", PurchaseDate: dayN(10), Contact: "b", ProductName: "pb", RegisterName: "rb"},
		{CustomerID: "A", PurchaseDate: dayN(90), Contact: "a-second", ProductName: "p2", RegisterName: "r2"},
		// older than the previous row but last in source order
		{CustomerID: "A", PurchaseDate: dayN(20), Contact: "a-third", ProductName: "p3", RegisterName: "r3"},
	}

	got, err := Aggregate(events)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.CustomerSummary{
		CustomerID:       "A",
		LastPurchaseDate: dayN(90),
		Contact:          "a-first",
		LastProduct:      "p3",
		LastRegister:     "r3",
	}, got[0])
	assert.Equal(t, "B", got[1].CustomerID, "customers keep first-encounter order")
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	var empty *models.EmptyInputError
	assert.True(t, errors.As(err, &empty))
}

func TestExclude_CaseInsensitive(t *testing.T) {
	events := []models.PurchaseEvent{ev("Point Of Sale Customer", dayN(1)), ev("anita", dayN(2)), ev(" SAMUDRA", dayN(3))}

	kept, dropped := Exclude(events, []string{"point of sale customer", "Samudra"})
	assert.Equal(t, 2, dropped)
	require.Len(t, kept, 1)
	assert.Equal(t, "anita", kept[0].CustomerID)

	kept, dropped = Exclude(events, nil)
	assert.Equal(t, 0, dropped)
	assert.Len(t, kept, 3)
}

// Three purchases inside the window, then 200 days of silence.
func TestClassify_ActiveBuyerGoneSilent(t *testing.T) {
	events := []models.PurchaseEvent{ev("X", dayN(230)), ev("X", dayN(231)), ev("X", dayN(232)), ev("X", dayN(400))}

	got := classifyAt(t, events, dayN(600))
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].CustomerID)
	assert.Equal(t, 200, got[0].RecencyDays)
	assert.Equal(t, dayN(400), got[0].LastPurchaseDate)
}

// Days 1, 2, 3 then 400: the first three fall outside [220, 400).
func TestClassify_OldPurchasesOutsideWindow(t *testing.T) {
	events := []models.PurchaseEvent{ev("X", dayN(1)), ev("X", dayN(2)), ev("X", dayN(3)), ev("X", dayN(400))}
	assert.Empty(t, classifyAt(t, events, dayN(600)))
}

// One purchase ever.
func TestClassify_SinglePurchaseNeverChurned(t *testing.T) {
	events := []models.PurchaseEvent{ev("Y", dayN(1))}
	for _, offset := range []int{0, 181, 300, 5000} {
		assert.Empty(t, classifyAt(t, events, dayN(1+offset)), "offset %d", offset)
	}
}

// Five purchases in the last 30 days.
func TestClassify_RecentBuyerNotChurned(t *testing.T) {
	var events []models.PurchaseEvent
	for _, d := range []int{100, 105, 110, 120, 130} {
		events = append(events, ev("Z", dayN(d)))
	}
	assert.Empty(t, classifyAt(t, events, dayN(140)))
}

func TestClassify_RecencyBoundary(t *testing.T) {
	events := []models.PurchaseEvent{ev("X", dayN(300)), ev("X", dayN(310)), ev("X", dayN(320)), ev("X", dayN(400))}

	assert.Empty(t, classifyAt(t, events, dayN(400+180)), "exactly 180 days is retained")

	got := classifyAt(t, events, dayN(400+181))
	require.Len(t, got, 1)
	assert.Equal(t, 181, got[0].RecencyDays)
}

func TestClassify_WindowLowerBoundInclusive(t *testing.T) {
	last := dayN(400)
	events := []models.PurchaseEvent{
		ev("X", last.Add(-180*day)),
		ev("X", dayN(350)),
		ev("X", dayN(390)),
		ev("X", last),
	}
	assert.Len(t, classifyAt(t, events, dayN(700)), 1)

	events[0] = ev("X", last.Add(-180*day-time.Second))
	assert.Empty(t, classifyAt(t, events, dayN(700)), "one second before the window does not count")
}

func TestClassify_WindowUpperBoundExclusive(t *testing.T) {
	last := dayN(400)
	events := []models.PurchaseEvent{ev("X", dayN(380)), ev("X", dayN(390)), ev("X", last), ev("X", last)}
	assert.Empty(t, classifyAt(t, events, dayN(700)), "purchases on the last timestamp are not before it")

	events = append(events, ev("X", last.Add(-time.Second)))
	assert.Len(t, classifyAt(t, events, dayN(700)), 1)
}

func TestClassify_PreservesAggregationOrderAndIsIdempotent(t *testing.T) {
	var events []models.PurchaseEvent
	for _, id := range []string{"C", "A", "B"} {
		for _, d := range []int{10, 20, 30, 40} {
			events = append(events, ev(id, dayN(d)))
		}
	}
	first := classifyAt(t, events, dayN(400))
	second := classifyAt(t, events, dayN(400))

	require.Len(t, first, 3)
	assert.Equal(t, []string{"C", "A", "B"}, ids(first))
	assert.Equal(t, first, second)
}

func TestClassify_DoesNotMutateInputs(t *testing.T) {
	events := []models.PurchaseEvent{ev("X", dayN(300)), ev("X", dayN(310)), ev("X", dayN(320)), ev("X", dayN(400))}
	summaries, err := Aggregate(events)
	require.NoError(t, err)

	got := Classify(events, summaries, dayN(700), defaultPolicy())
	require.Len(t, got, 1)
	assert.Equal(t, 0, summaries[0].RecencyDays)
	assert.Equal(t, 300, got[0].RecencyDays)
}

func TestClassify_CustomPolicy(t *testing.T) {
	events := []models.PurchaseEvent{ev("X", dayN(80)), ev("X", dayN(90)), ev("X", dayN(100))}
	summaries, err := Aggregate(events)
	require.NoError(t, err)

	p := models.Policy{RecencyDays: 30, WindowDays: 30, MinWindowPurchases: 2}
	assert.Len(t, Classify(events, summaries, dayN(140), p), 1)

	p.MinWindowPurchases = 3
	assert.Empty(t, Classify(events, summaries, dayN(140), p))
}

func TestSortSummaries(t *testing.T) {
	rows := []models.CustomerSummary{
		{CustomerID: "b", RecencyDays: 200},
		{CustomerID: "c", RecencyDays: 300},
		{CustomerID: "a", RecencyDays: 200},
	}

	sortSummaries(rows, models.SortNone)
	assert.Equal(t, []string{"b", "c", "a"}, ids(rows))

	sortSummaries(rows, models.SortRecency)
	assert.Equal(t, []string{"c", "b", "a"}, ids(rows), "ties keep their previous order")

	sortSummaries(rows, models.SortCustomer)
	assert.Equal(t, []string{"a", "b", "c"}, ids(rows))
}

func ids(rows []models.CustomerSummary) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CustomerID
	}
	return out
}
