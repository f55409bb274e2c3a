package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/ingest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the columns of a session file",
	Long:  `Reads a CSV or XLSX file and prints each column with its detected type and the suggested billing columns.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Total the selected columns of a session file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate an invoice PDF from a session file",
	Long: `Totals the selected columns into invoice line items and writes the PDF.
Unset invoice details are filled from the configured defaults. With --save the
invoice is also stored and can be listed later.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

// columns is a comma-separated column selection shared by summarize and generate.
var columns string

var generateOpts struct {
	number   string
	date     string
	due      string
	client   string
	email    string
	address  string
	notes    string
	tax      float64
	discount float64
	save     bool
	output   string
}

func init() {
	summarizeCmd.Flags().StringVarP(&columns, "columns", "c", "", "Comma-separated columns to total (default: suggested columns)")

	f := generateCmd.Flags()
	f.StringVarP(&columns, "columns", "c", "", "Comma-separated columns to bill (default: suggested columns)")
	f.StringVar(&generateOpts.number, "number", "", "Invoice number (default: generated)")
	f.StringVar(&generateOpts.date, "date", "", "Invoice date, YYYY-MM-DD (default: today)")
	f.StringVar(&generateOpts.due, "due", "", "Due date, YYYY-MM-DD (default: date plus payment terms)")
	f.StringVar(&generateOpts.client, "client", "", "Client name")
	f.StringVar(&generateOpts.email, "client-email", "", "Client email")
	f.StringVar(&generateOpts.address, "client-address", "", "Client address")
	f.StringVar(&generateOpts.notes, "notes", "", "Notes printed on the invoice")
	f.Float64Var(&generateOpts.tax, "tax", 0, "Tax rate in percent (default: configured rate)")
	f.Float64Var(&generateOpts.discount, "discount", 0, "Discount in percent")
	f.BoolVar(&generateOpts.save, "save", false, "Store the invoice")
	f.StringVarP(&generateOpts.output, "output", "o", "", "PDF output path (default: invoice_<number>.pdf)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(generateCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ds, err := ingest.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := core.ValidateDataset(ds); err != nil {
		return err
	}

	info := core.DescribeDataset("", ds, time.Time{})
	cmd.Printf("File: %s\n", info.Filename)
	cmd.Printf("Rows: %d\n\n", info.RowCount)
	cmd.Println("Columns:")
	for _, f := range info.Fields {
		cmd.Printf("  %-24s %s\n", f.Name, f.Type)
	}
	if len(info.Suggested) > 0 {
		cmd.Printf("\nSuggested: %s\n", strings.Join(info.Suggested, ", "))
	} else {
		cmd.Println("\nSuggested: none")
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ds, cols, err := readSelection(args[0])
	if err != nil {
		return err
	}

	summary := core.Aggregate(ds, cols)
	cmd.Printf("%-24s %8s %12s %12s %12s %12s\n", "Column", "Count", "Sum", "Average", "Min", "Max")
	for _, c := range summary.Columns {
		st := summary.Stats[c]
		cmd.Printf("%-24s %8d %12.2f %12.2f %12.2f %12.2f\n", c, st.Count, st.Sum, st.Average, st.Min, st.Max)
	}
	cmd.Printf("\nTotal: %.2f\n", summary.TotalAmount)
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ds, cols, err := readSelection(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	svc := a.Service
	ctx := cmd.Context()

	invCfg, err := generateConfig(cmd, a.DefaultInvoiceConfig())
	if err != nil {
		return err
	}

	inv, err := svc.Generate(ds, cols, invCfg)
	if err != nil {
		var cfgErr *core.ConfigError
		if errors.As(err, &cfgErr) {
			for _, e := range cfgErr.Result.Errors {
				cmd.PrintErrf("  %s: %s\n", e.Field, e.Message)
			}
		}
		return err
	}

	var buf bytes.Buffer
	if err := svc.Render(ctx, inv, &buf); err != nil {
		return err
	}

	output := generateOpts.output
	if generateOpts.save {
		rec, err := svc.Save(ctx, inv, ds)
		if err != nil {
			return err
		}
		cmd.Printf("Saved invoice %s\n", rec.ID)
		if output == "" {
			output = rec.Filename
		}
	}
	if output == "" {
		output = "invoice_" + inv.Config.InvoiceNumber + ".pdf"
	}

	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write invoice: %w", err)
	}

	printInvoice(cmd, inv)
	cmd.Printf("\nWrote %s\n", output)
	return nil
}

// generateConfig applies the generate flags over defaults.
func generateConfig(cmd *cobra.Command, defaults core.InvoiceConfig) (core.InvoiceConfig, error) {
	c := defaults
	o := generateOpts

	if o.number != "" {
		c.InvoiceNumber = o.number
	}
	if o.date != "" {
		c.Date = o.date
		if o.due == "" {
			due, err := core.DefaultDueDate(o.date, cfg.Invoice.PaymentTermsDays)
			if err != nil {
				return c, err
			}
			c.DueDate = due
		}
	}
	if o.due != "" {
		c.DueDate = o.due
	}
	c.ClientName = o.client
	c.ClientEmail = o.email
	c.ClientAddress = o.address
	c.Notes = o.notes
	if cmd.Flags().Changed("tax") {
		c.TaxRate = o.tax
	}
	c.Discount = o.discount
	return c, nil
}

// readSelection reads path and resolves the --columns selection against it.
func readSelection(path string) (core.Dataset, []string, error) {
	ds, err := ingest.ReadFile(path)
	if err != nil {
		return core.Dataset{}, nil, err
	}
	if err := core.ValidateDataset(ds); err != nil {
		return core.Dataset{}, nil, err
	}

	cols := splitColumns(columns)
	if len(cols) == 0 {
		cols = core.SuggestColumns(ds, core.DefaultSuggestedColumns)
	}
	for _, c := range cols {
		if !ds.HasColumn(c) {
			return core.Dataset{}, nil, fmt.Errorf("%w: %q", core.ErrUnknownColumn, c)
		}
	}
	return ds, cols, nil
}

func splitColumns(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func printInvoice(cmd *cobra.Command, inv core.Invoice) {
	c := inv.Config
	cmd.Printf("Invoice %s\n", c.InvoiceNumber)
	cmd.Printf("  Date:   %s\n", c.Date)
	cmd.Printf("  Due:    %s\n", c.DueDate)
	if c.ClientName != "" {
		cmd.Printf("  Client: %s\n", c.ClientName)
	}
	cmd.Println()
	for _, item := range inv.Items {
		cmd.Printf("  %-24s %4d x %12s = %12s\n", item.Description, item.Quantity,
			core.FormatCurrency(item.UnitPrice), core.FormatCurrency(item.Amount))
	}
	cmd.Println()
	for _, l := range core.TotalLines(inv) {
		cmd.Printf("  %-9s %s\n", l.Label+":", l.Value)
	}
}
