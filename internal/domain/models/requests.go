package models

// Requests for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type CalendarRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
	Limit     int    `query:"limit" json:"limit" default:"365" validate:"gte=1,lte=5000"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
}

type OrderBookRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Depth  int    `query:"depth" json:"depth" default:"100" validate:"gte=5,lte=1000"`
}

type TickerRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type IndicatorsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
	Limit     int    `query:"limit" json:"limit" default:"365" validate:"gte=30,lte=5000"`
}

type PatternsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
	Limit     int    `query:"limit" json:"limit" default:"365" validate:"gte=1,lte=5000"`
}

type RefreshRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
}

type ExportRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
	Limit     int    `query:"limit" json:"limit" default:"365" validate:"gte=1,lte=5000"`
}

type CreateAlertRequest struct {
	Name      string  `json:"name" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=performance volatility volume price"`
	Condition string  `json:"condition" validate:"required,oneof=above below equals"`
	Threshold float64 `json:"threshold" validate:"required"`
	Symbol    string  `json:"symbol" validate:"required"`
	Timeframe string  `json:"timeframe" default:"daily" validate:"oneof=daily weekly monthly"`
	Enabled   *bool   `json:"enabled"`
}

type UpdateAlertRequest struct {
	Name      *string  `json:"name,omitempty"`
	Type      *string  `json:"type,omitempty" validate:"omitempty,oneof=performance volatility volume price"`
	Condition *string  `json:"condition,omitempty" validate:"omitempty,oneof=above below equals"`
	Threshold *float64 `json:"threshold,omitempty"`
	Enabled   *bool    `json:"enabled,omitempty"`
}
