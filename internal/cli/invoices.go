package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/invoicer/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved invoices",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [invoice-id]",
	Short: "Show a saved invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [invoice-id]",
	Short: "Delete a saved invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listOpts struct {
	filter string
	sort   string
	order  string
	search string
}

// showOutput is where show writes the re-rendered PDF, if set.
var showOutput string

func init() {
	listCmd.Flags().StringVar(&listOpts.filter, "filter", "all", "Filter: all, recent or high-value")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "date", "Sort key: date, amount or number")
	listCmd.Flags().StringVar(&listOpts.order, "order", "desc", "Sort order: asc or desc")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "", "Match invoice number, client or filename")

	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "Also write the invoice PDF to this path")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	filter, err := core.ParseFilter(listOpts.filter)
	if err != nil {
		return err
	}
	key, err := core.ParseSortKey(listOpts.sort)
	if err != nil {
		return err
	}
	order, err := core.ParseSortOrder(listOpts.order)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	recs := a.Service.List(core.ListOptions{
		Filter:    filter,
		SortKey:   key,
		SortOrder: order,
		Search:    listOpts.search,
	})
	if len(recs) == 0 {
		cmd.Println("No invoices found")
		return nil
	}

	cmd.Printf("%-16s %-18s %-24s %-12s %14s\n", "ID", "Number", "Client", "Date", "Total")
	for _, r := range recs {
		c := r.Invoice.Config
		cmd.Printf("%-16s %-18s %-24s %-12s %14s\n", r.ID, c.InvoiceNumber, c.ClientName, c.Date,
			core.FormatCurrency(r.Invoice.Total))
	}
	cmd.Printf("\n%d of %d invoices, total %s\n", len(recs), a.Service.Store().Len(),
		core.FormatCurrency(core.TotalValue(recs)))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	rec, err := a.Service.Get(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:      %s\n", rec.ID)
	cmd.Printf("Created: %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Source:  %s (%d rows)\n\n", rec.OriginalData.Filename, rec.OriginalData.RowCount())
	printInvoice(cmd, rec.Invoice)

	if showOutput == "" {
		return nil
	}
	var buf bytes.Buffer
	if _, err := a.Service.RenderRecord(cmd.Context(), rec.ID, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(showOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write invoice: %w", err)
	}
	cmd.Printf("\nWrote %s\n", showOutput)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	if err := a.Service.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted invoice %s\n", args[0])
	return nil
}
