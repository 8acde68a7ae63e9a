package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"MarketCal/internal/domain/models"
)

// csvHeader is the fixed column order of calendar exports.
var csvHeader = []string{
	"Date", "Open", "High", "Low", "Close",
	"Volume", "Performance", "Volatility", "Liquidity",
}

// WriteCSV streams the series as CSV with a fixed header row. Numbers
// use the shortest representation that round-trips.
func WriteCSV(w io.Writer, series []models.FinancialMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range series {
		row := []string{
			m.Date,
			formatFloat(m.Open),
			formatFloat(m.High),
			formatFloat(m.Low),
			formatFloat(m.Close),
			formatFloat(m.Volume),
			formatFloat(m.Performance),
			formatFloat(m.Volatility),
			formatFloat(m.Liquidity),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds the attachment name for a calendar export.
func Filename(symbol string, timeframe models.Timeframe) string {
	return symbol + "_" + string(timeframe) + "_calendar.csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
