package export

import (
	"bytes"
	"strings"
	"testing"

	"MarketCal/internal/domain/models"
)

func TestWriteCSV(t *testing.T) {
	series := []models.FinancialMetrics{
		{
			Date: "2024-03-01", Open: 100, High: 110.5, Low: 95, Close: 105,
			Volume: 1234.25, Performance: 5, Volatility: 15.5, Liquidity: 1014.3,
		},
		{
			Date: "2024-03-02", Open: 105, High: 106, Low: 99, Close: 100,
			Volume: 800, Performance: -4.761904761904762, Volatility: 6.666666666666667, Liquidity: 733.3333333333334,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, series); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows", len(lines))
	}
	if lines[0] != "Date,Open,High,Low,Close,Volume,Performance,Volatility,Liquidity" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-03-01,100,110.5,95,105,1234.25,5,15.5,") {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2024-03-02,105,106,99,100,800,") {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestWriteCSVEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if strings.TrimRight(buf.String(), "\n") != "Date,Open,High,Low,Close,Volume,Performance,Volatility,Liquidity" {
		t.Fatalf("empty export = %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	got := Filename("BTCUSDT", models.TimeframeWeekly)
	if got != "BTCUSDT_weekly_calendar.csv" {
		t.Fatalf("filename = %q", got)
	}
}
