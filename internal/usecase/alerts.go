package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketCal/internal/domain/models"
	domrepo "MarketCal/internal/domain/repository"
	"MarketCal/pkg/logger"
)

// AlertUsecase manages user-defined alert rules and evaluates them
// against the latest aggregated bucket of their symbol/timeframe.
type AlertUsecase struct {
	store    domrepo.AlertStore
	calendar *CalendarUsecase
	log      *logger.Logger
	now      func() time.Time
	nextID   func() string
}

func NewAlertUsecase(store domrepo.AlertStore, cal *CalendarUsecase, log *logger.Logger) *AlertUsecase {
	return &AlertUsecase{
		store:    store,
		calendar: cal,
		log:      log,
		now:      time.Now,
		nextID: func() string {
			return fmt.Sprintf("alert-%d", time.Now().UnixNano())
		},
	}
}

// Create registers a new alert rule.
func (u *AlertUsecase) Create(ctx context.Context, req models.CreateAlertRequest) (*models.Alert, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = string(domrepo.DefaultTimeframe())
	}

	alert := &models.Alert{
		ID:        u.nextID(),
		Name:      req.Name,
		Type:      req.Type,
		Condition: req.Condition,
		Threshold: req.Threshold,
		Enabled:   enabled,
		Symbol:    req.Symbol,
		Timeframe: timeframe,
		CreatedAt: u.now().UTC(),
	}
	if err := u.store.Save(ctx, alert); err != nil {
		return nil, err
	}
	u.log.Info("alert created",
		logger.String("id", alert.ID),
		logger.String("symbol", alert.Symbol),
		logger.String("type", alert.Type))
	return alert, nil
}

// Update applies partial changes to an existing alert.
func (u *AlertUsecase) Update(ctx context.Context, id string, req models.UpdateAlertRequest) (*models.Alert, error) {
	alert, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		alert.Name = *req.Name
	}
	if req.Type != nil {
		alert.Type = *req.Type
	}
	if req.Condition != nil {
		alert.Condition = *req.Condition
	}
	if req.Threshold != nil {
		alert.Threshold = *req.Threshold
	}
	if req.Enabled != nil {
		alert.Enabled = *req.Enabled
	}
	if err := u.store.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// List returns all alert rules.
func (u *AlertUsecase) List(ctx context.Context) ([]models.Alert, error) {
	return u.store.List(ctx)
}

// Delete removes an alert rule.
func (u *AlertUsecase) Delete(ctx context.Context, id string) error {
	return u.store.Delete(ctx, id)
}

// Evaluate checks every enabled alert against the newest bucket of its
// symbol/timeframe, updating trigger bookkeeping for matches.
func (u *AlertUsecase) Evaluate(ctx context.Context) ([]models.AlertEvaluation, error) {
	alerts, err := u.store.List(ctx)
	if err != nil {
		return nil, err
	}

	evaluations := make([]models.AlertEvaluation, 0, len(alerts))
	for _, alert := range alerts {
		if !alert.Enabled {
			continue
		}

		tf := domrepo.NormalizeTimeframe(alert.Timeframe)
		bucket, ok, err := u.calendar.LatestBucket(ctx, alert.Symbol, tf, 0)
		if err != nil {
			u.log.Warn("alert evaluation skipped",
				logger.String("id", alert.ID),
				logger.Error(err))
			continue
		}
		if !ok {
			continue
		}

		observed := alert.ObservedValue(bucket)
		triggered := alert.Matches(observed)
		if triggered {
			now := u.now().UTC()
			alert.LastTriggered = &now
			alert.TriggerCount++
			if err := u.store.Save(ctx, &alert); err != nil {
				u.log.Warn("alert trigger bookkeeping failed",
					logger.String("id", alert.ID),
					logger.Error(err))
			}
			u.log.Info("alert triggered",
				logger.String("id", alert.ID),
				logger.String("symbol", alert.Symbol),
				logger.Float64("observed", observed),
				logger.Float64("threshold", alert.Threshold))
		}

		evaluations = append(evaluations, models.AlertEvaluation{
			Alert:     alert,
			Triggered: triggered,
			Observed:  observed,
		})
	}
	return evaluations, nil
}
