package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketCal/internal/domain/models"
	"MarketCal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestInlineRunner(t *testing.T) {
	r := NewRunner(testLogger(t), false, 0)
	if r.Background() {
		t.Fatal("inline runner reports background capability")
	}

	series := dailySeries(make([]float64, 25))
	for i := range series {
		series[i].Close = 100 + float64(i)
	}

	res, err := r.Detect(context.Background(), series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("inline detect failed: %v", err)
	}
	if res.Patterns == nil {
		t.Fatal("inline detect returned nil pattern list on success")
	}
}

func TestBackgroundRunner(t *testing.T) {
	r := NewRunner(testLogger(t), true, 4)
	if !r.Background() {
		t.Fatal("background runner lost capability flag")
	}
	r.Start()
	defer r.Stop()

	series := dailySeries(make([]float64, 25))
	for i := range series {
		series[i].Close = 100 + float64(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := r.Detect(ctx, series, models.TimeframeDaily)
	if err != nil {
		t.Fatalf("background detect failed: %v", err)
	}
	if len(res.Patterns) == 0 {
		t.Fatal("expected at least the trend pattern")
	}
}

func TestLatestRequestWins(t *testing.T) {
	r := NewRunner(testLogger(t), true, 4)
	// Worker not started yet: both requests queue up, then the worker
	// drains them and must supersede the older one.

	series := dailySeries(make([]float64, 25))
	for i := range series {
		series[i].Close = 100 + float64(i)
	}

	type outcome struct {
		err error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_, err := r.Detect(ctx, series, models.TimeframeDaily)
		first <- outcome{err}
	}()
	time.Sleep(50 * time.Millisecond)
	go func() {
		_, err := r.Detect(ctx, series, models.TimeframeDaily)
		second <- outcome{err}
	}()
	time.Sleep(50 * time.Millisecond)

	r.Start()
	defer r.Stop()

	o1 := <-first
	o2 := <-second
	if !errors.Is(o1.err, ErrSuperseded) {
		t.Fatalf("first request should be superseded, got %v", o1.err)
	}
	if o2.err != nil {
		t.Fatalf("latest request failed: %v", o2.err)
	}
}
