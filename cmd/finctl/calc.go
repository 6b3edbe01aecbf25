package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/hostledger/internal/calculator"
	"github.com/mmynk/hostledger/internal/fx"
	"github.com/mmynk/hostledger/internal/money"
)

var convertCmd = &cobra.Command{
	Use:   "convert AMOUNT FROM TO",
	Short: "Convert an amount with the rate effective on a date",
	Example: `  finctl convert 100 USD THB --date 2025-03-15`,
	Args: cobra.ExactArgs(3),
	RunE: runConvert,
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single line item",
	Example: `  # 2 nights at 1500 THB, 100 THB off, 7% VAT
  finctl price --qty 2 --unit-price 1500 --currency THB --discount 100 --tax 7`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

var splitCmd = &cobra.Command{
	Use:   "split BASE CURRENCY RULE RATE",
	Short: "Split a service charge under a billing rule",
	Long: `Split applies a billing rule (guest_charged, owner_charged or complimentary)
to a service charge and prints the guest, owner and commission amounts.`,
	Example: `  finctl split 1000 THB owner_charged 15`,
	Args:    cobra.ExactArgs(4),
	RunE:    runSplit,
}

func init() {
	rootCmd.AddCommand(convertCmd, priceCmd, splitCmd)

	convertCmd.Flags().String("date", "", "Transaction date (format: YYYY-MM-DD, default: today)")

	priceCmd.Flags().String("qty", "1", "Quantity")
	priceCmd.Flags().String("unit-price", "", "Unit price")
	priceCmd.Flags().String("currency", "", "Currency code (default: REPORTING_CURRENCY)")
	priceCmd.Flags().String("discount", "0", "Flat discount, taken off before tax")
	priceCmd.Flags().String("tax", "0", "Tax rate in percent")
	priceCmd.MarkFlagRequired("unit-price")

	splitCmd.Flags().String("incentive-base", "", "Nominal amount staff commission accrues on for complimentary services")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runConvert(cmd *cobra.Command, args []string) error {
	amount, err := money.Parse(args[0], args[1])
	if err != nil {
		return err
	}
	on, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := fx.NewConverter(fx.NewRegistry(store)).Convert(cmd.Context(), amount, args[2], on)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runPrice(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	qty, _ := flags.GetString("qty")
	unit, _ := flags.GetString("unit-price")
	cur, _ := flags.GetString("currency")
	discount, _ := flags.GetString("discount")
	tax, _ := flags.GetString("tax")
	if cur == "" {
		cur = cfg.ReportingCurrency
	}

	item := calculator.LineItem{Description: "cli"}
	var err error
	if item.Quantity, err = decimal.NewFromString(qty); err != nil {
		return fmt.Errorf("invalid --qty: %w", err)
	}
	if item.TaxRatePercent, err = decimal.NewFromString(tax); err != nil {
		return fmt.Errorf("invalid --tax: %w", err)
	}
	if item.UnitPrice, err = money.Parse(unit, cur); err != nil {
		return fmt.Errorf("invalid --unit-price: %w", err)
	}
	if item.Discount, err = money.Parse(discount, cur); err != nil {
		return fmt.Errorf("invalid --discount: %w", err)
	}

	line, err := calculator.PriceLineItem(item)
	if err != nil {
		return err
	}
	return printJSON(cmd, line)
}

func runSplit(cmd *cobra.Command, args []string) error {
	base, err := money.Parse(args[0], args[1])
	if err != nil {
		return err
	}
	rate, err := decimal.NewFromString(args[3])
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", args[3], err)
	}
	var opts calculator.SplitOptions
	if v, _ := cmd.Flags().GetString("incentive-base"); v != "" {
		nominal, err := money.Parse(v, args[1])
		if err != nil {
			return fmt.Errorf("invalid --incentive-base: %w", err)
		}
		opts.IncentiveBase = &nominal
	}

	split, err := calculator.SplitCommission(base, calculator.BillingRule(args[2]), rate, opts)
	if err != nil {
		return err
	}
	return printJSON(cmd, split)
}
