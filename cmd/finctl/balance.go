package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/hostledger/internal/service"
)

var balanceCmd = &cobra.Command{
	Use:   "balance PROPERTY",
	Short: "Show a property's balance in the reporting currency",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().String("org", "default", "Organization ID")
}

func runBalance(cmd *cobra.Command, args []string) error {
	org, _ := cmd.Flags().GetString("org")
	propertyID := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := service.NewFinanceService(store, cfg.ReportingCurrency)
	if err != nil {
		return err
	}
	bal, err := svc.Balance(cmd.Context(), org, propertyID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	ex := bal.Expenses
	for _, row := range []struct {
		label string
		value fmt.Stringer
	}{
		{"Revenue", bal.TotalRevenue},
		{"Management", ex.Management},
		{"Utilities", ex.Utilities},
		{"Maintenance", ex.Maintenance},
		{"Add-ons", ex.Addons},
		{"Welcome packs", ex.WelcomePacks},
		{"Paid out", ex.PaidOut},
		{"Pending payouts", bal.PendingPayouts},
		{"Current balance", bal.CurrentBalance},
	} {
		fmt.Fprintf(w, "%s\t%s\t\n", row.label, row.value)
	}
	return w.Flush()
}
