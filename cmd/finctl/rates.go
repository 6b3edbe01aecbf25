package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/ratefeed"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Record, sync and list exchange rates",
}

var ratesRecordCmd = &cobra.Command{
	Use:   "record FROM TO RATE",
	Short: "Record a manual or bank exchange rate",
	Example: `  # 1 USD = 35.50 THB from 1 March 2025
  finctl rates record USD THB 35.50 --date 2025-03-01`,
	Args: cobra.ExactArgs(3),
	RunE: runRatesRecord,
}

var ratesSyncCmd = &cobra.Command{
	Use:   "sync FROM...",
	Short: "Fetch rates from the rate feed into the reporting currency",
	Example: `  # Today's USD->THB and EUR->THB reference rates
  finctl rates sync USD EUR

  # Rates published for a past day
  finctl rates sync USD --date 2025-01-03`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRatesSync,
}

var ratesListCmd = &cobra.Command{
	Use:   "list FROM TO",
	Short: "List every recorded rate for a currency pair",
	Args:  cobra.ExactArgs(2),
	RunE:  runRatesList,
}

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.AddCommand(ratesRecordCmd, ratesSyncCmd, ratesListCmd)

	ratesRecordCmd.Flags().String("date", "", "Effective date (format: YYYY-MM-DD, default: today)")
	ratesRecordCmd.Flags().String("source", string(fx.SourceManual), "Rate source: manual or bank")
	ratesSyncCmd.Flags().String("date", "", "Publication date (format: YYYY-MM-DD, default: today)")
	ratesSyncCmd.Flags().String("to", "", "Target currency (default: REPORTING_CURRENCY)")
}

func dateFlag(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("date")
	if v == "" {
		return fx.Day(time.Now()), nil
	}
	return fx.ParseDay(v)
}

func runRatesRecord(cmd *cobra.Command, args []string) error {
	rate, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", args[2], err)
	}
	on, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	source, _ := cmd.Flags().GetString("source")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := fx.NewRegistry(store).RecordRate(cmd.Context(), fx.ExchangeRate{
		From:          args[0],
		To:            args[1],
		Rate:          rate,
		EffectiveDate: on,
		Source:        fx.Source(source),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runRatesSync(cmd *cobra.Command, args []string) error {
	on, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	to, _ := cmd.Flags().GetString("to")
	if to == "" {
		to = cfg.ReportingCurrency
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	feed := ratefeed.New(cfg.RateFeedURL, ratefeed.WithRateLimit(cfg.RateFeedRPS, cfg.RateFeedBurst))
	registry := fx.NewRegistry(store)
	for _, from := range args {
		ids, err := feed.Sync(cmd.Context(), registry, from, []string{to}, on)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	}
	return nil
}

func runRatesList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rates, err := store.ListRates(cmd.Context(), strings.ToUpper(args[0]), strings.ToUpper(args[1]))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPAIR\tRATE\tEFFECTIVE\tSOURCE")
	for _, r := range rates {
		fmt.Fprintf(w, "%s\t%s->%s\t%s\t%s\t%s\n", r.ID, r.From, r.To, r.Rate, r.EffectiveDate.Format(fx.DateLayout), r.Source)
	}
	return w.Flush()
}
