package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/invoicer/internal/core"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all saved invoices to a backup file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [backup-file]",
	Short: "Replace all saved invoices with a backup",
	Long:  `Restores a backup written by export. Every saved invoice is replaced, so --yes is required.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var (
	exportOutput  string
	confirmImport bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", `Backup path, "-" for stdout (default: invoice-manager-backup-<date>.json)`)
	importCmd.Flags().BoolVarP(&confirmImport, "yes", "y", false, "Confirm replacing all saved invoices")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		_, err := a.Service.ExportBackup(cmd.Context(), cmd.OutOrStdout())
		return err
	}

	path := exportOutput
	if path == "" {
		path = core.BackupFilename(a.Service.Clock().Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}

	b, err := a.Service.ExportBackup(cmd.Context(), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	cmd.Printf("Exported %d invoices to %s\n", len(b.Records), path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader
	if args[0] == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open backup: %w", err)
		}
		defer f.Close()
		r = f
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}

	n, err := a.Service.RestoreBackup(cmd.Context(), r, confirmImport)
	if err != nil {
		return err
	}
	cmd.Printf("Restored %d invoices\n", n)
	return nil
}
