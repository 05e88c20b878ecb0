package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

// printXML writes the converted document after the records.
var printXML bool

// inspectCmd shows what the readers make of one file, without writing
// anything.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the records read from one workbook",
	Long: `The inspect command reads one workbook or flat export and prints the header
values, the item count, the computed invoice total and any columns or sheets
that were ignored. With --xml it also prints the document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&printXML, "xml", false, "Also print the converted document")
}

func runInspect(path string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	conv := s.newConverter()
	records := conv.ReadRecords(name, data)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s\n", name)
	fmt.Fprintf(w, "Items:\t%d\n", len(records.Items))
	fmt.Fprintf(w, "Invoice total (foreign):\t%s\n",
		converter.FormatAmount(converter.ComputeFormTotal(records.Items, converter.InvoiceAmountForeign)))
	for _, warning := range records.Warnings {
		fmt.Fprintf(w, "Warning:\t%v\n", warning)
	}
	for _, col := range records.UnknownColumns {
		fmt.Fprintf(w, "Ignored column:\t%s\n", col)
	}

	fmt.Fprintln(w, "\nHeader:")
	values := records.Header.Values()
	for _, col := range types.HeaderColumns() {
		if v, ok := values[col]; ok {
			fmt.Fprintf(w, "  %s\t%s\n", col, v)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !printXML {
		return nil
	}

	result := conv.Convert(name, data)
	if !result.Succeeded() {
		return fmt.Errorf("conversion failed: %w", result.Err)
	}
	fmt.Println()
	_, err = os.Stdout.Write(result.Document)
	return err
}
