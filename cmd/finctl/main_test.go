package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/hostledger/internal/calculator"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("REPORTING_CURRENCY", "THB")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("finctl %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestPriceCommand(t *testing.T) {
	out := runCLI(t, "price", "--qty", "2", "--unit-price", "1500", "--discount", "100", "--tax", "7")

	var line calculator.PricedLineItem
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("output is not a priced line: %v\n%s", err, out)
	}
	if !line.LineTotal.Amount.Equal(decimal.RequireFromString("3103")) || line.LineTotal.Currency != "THB" {
		t.Errorf("line total = %s", line.LineTotal)
	}
}

func TestSplitCommand(t *testing.T) {
	out := runCLI(t, "split", "1234.56", "THB", "owner_charged", "12.5")

	var split calculator.Split
	if err := json.Unmarshal([]byte(out), &split); err != nil {
		t.Fatalf("output is not a split: %v\n%s", err, out)
	}
	if !split.CommissionAmount.Amount.Equal(decimal.RequireFromString("154.32")) {
		t.Errorf("commission = %s", split.CommissionAmount)
	}
}

func TestRatesRecordAndConvert(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "rates.db"))
	t.Setenv("REPORTING_CURRENCY", "THB")

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("finctl %s: %v", strings.Join(args, " "), err)
		}
		return out.String()
	}

	id := strings.TrimSpace(run("rates", "record", "USD", "THB", "35.50", "--date", "2025-03-01"))
	if id == "" {
		t.Fatal("no rate id printed")
	}
	if list := run("rates", "list", "usd", "thb"); !strings.Contains(list, id) || !strings.Contains(list, "2025-03-01") {
		t.Errorf("list output:\n%s", list)
	}

	out := run("convert", "100", "USD", "THB", "--date", "2025-03-15")
	var res struct {
		Converted struct {
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"converted"`
		RateID string `json:"rate_id"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a conversion: %v\n%s", err, out)
	}
	if !res.Converted.Amount.Equal(decimal.RequireFromString("3550")) || res.RateID != id {
		t.Errorf("conversion = %+v", res)
	}
}
