package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/internal/repository"
	"MarketCal/pkg/cache"
)

func alertFixture(t *testing.T, klines []models.Kline) *AlertUsecase {
	t.Helper()
	cal, _ := calendarFixture(t, klines)
	uc := NewAlertUsecase(repository.NewAlertStore(cache.NewMemoryCache()), cal, testLogger(t))

	seq := 0
	uc.nextID = func() string {
		seq++
		return fmt.Sprintf("alert-%d", seq)
	}
	uc.now = func() time.Time {
		return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	}
	return uc
}

func TestAlertCreateDefaults(t *testing.T) {
	uc := alertFixture(t, nil)

	alert, err := uc.Create(context.Background(), models.CreateAlertRequest{
		Name: "big move", Type: "performance", Condition: "above",
		Threshold: 5, Symbol: "BTCUSDT",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !alert.Enabled {
		t.Fatal("alert not enabled by default")
	}
	if alert.Timeframe != "daily" {
		t.Fatalf("timeframe = %s, want daily default", alert.Timeframe)
	}
	if alert.ID != "alert-1" {
		t.Fatalf("id = %s", alert.ID)
	}
}

func TestAlertUpdatePartial(t *testing.T) {
	uc := alertFixture(t, nil)
	ctx := context.Background()

	alert, err := uc.Create(ctx, models.CreateAlertRequest{
		Name: "big move", Type: "performance", Condition: "above",
		Threshold: 5, Symbol: "BTCUSDT",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newThreshold := 10.0
	updated, err := uc.Update(ctx, alert.ID, models.UpdateAlertRequest{Threshold: &newThreshold})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Threshold != 10 {
		t.Fatalf("threshold = %v, want 10", updated.Threshold)
	}
	if updated.Name != "big move" || updated.Condition != "above" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestAlertEvaluateTriggers(t *testing.T) {
	// Last daily bucket closes at 110 with performance just under 1%.
	uc := alertFixture(t, marchKlines(10))
	ctx := context.Background()

	if _, err := uc.Create(ctx, models.CreateAlertRequest{
		Name: "price above 100", Type: "price", Condition: "above",
		Threshold: 100, Symbol: "BTCUSDT",
	}); err != nil {
		t.Fatalf("create triggering alert: %v", err)
	}
	if _, err := uc.Create(ctx, models.CreateAlertRequest{
		Name: "perf above 50", Type: "performance", Condition: "above",
		Threshold: 50, Symbol: "BTCUSDT",
	}); err != nil {
		t.Fatalf("create quiet alert: %v", err)
	}

	evaluations, err := uc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(evaluations) != 2 {
		t.Fatalf("got %d evaluations, want 2", len(evaluations))
	}

	byName := map[string]models.AlertEvaluation{}
	for _, ev := range evaluations {
		byName[ev.Alert.Name] = ev
	}

	hot := byName["price above 100"]
	if !hot.Triggered || hot.Observed != 110 {
		t.Fatalf("price alert: %+v", hot)
	}
	if hot.Alert.TriggerCount != 1 || hot.Alert.LastTriggered == nil {
		t.Fatalf("trigger bookkeeping missing: %+v", hot.Alert)
	}

	quiet := byName["perf above 50"]
	if quiet.Triggered {
		t.Fatalf("quiet alert triggered: %+v", quiet)
	}

	// Bookkeeping persisted to the store.
	stored, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, a := range stored {
		if a.Name == "price above 100" && a.TriggerCount != 1 {
			t.Fatalf("trigger count not persisted: %+v", a)
		}
	}
}

func TestAlertEvaluateSkipsDisabled(t *testing.T) {
	uc := alertFixture(t, marchKlines(10))
	ctx := context.Background()

	disabled := false
	if _, err := uc.Create(ctx, models.CreateAlertRequest{
		Name: "off", Type: "price", Condition: "above",
		Threshold: 1, Symbol: "BTCUSDT", Enabled: &disabled,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	evaluations, err := uc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(evaluations) != 0 {
		t.Fatalf("disabled alert evaluated: %v", evaluations)
	}
}

func TestAlertDelete(t *testing.T) {
	uc := alertFixture(t, nil)
	ctx := context.Background()

	alert, err := uc.Create(ctx, models.CreateAlertRequest{
		Name: "gone soon", Type: "price", Condition: "below",
		Threshold: 1, Symbol: "BTCUSDT",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := uc.Delete(ctx, alert.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := uc.Delete(ctx, alert.ID); err == nil {
		t.Fatal("second delete should fail")
	}
}
