// Package generic handles importing generic transaction CSV files.
package generic

import (
	"context"

	"github.com/spf13/cobra"

	"finbase/txlink/cmd/common"
	"finbase/txlink/cmd/root"
	"finbase/txlink/internal/genericparser"
	"finbase/txlink/internal/logging"
)

// Cmd represents the generic import command.
var Cmd = &cobra.Command{
	Use:   "generic",
	Short: "Import a generic transaction CSV file",
	Long: `Import parses a bank, credit-card or other generic transaction CSV,
normalizes the rows and saves them to the transaction store.`,
	Run: genericFunc,
}

func genericFunc(cmd *cobra.Command, args []string) {
	root.Log.Infof("Input CSV file: %s", root.SharedFlags.Input)

	content, err := common.ReadInputFile(root.SharedFlags.Input)
	if err != nil {
		root.Log.Fatalf("Error reading input: %v", err)
	}

	parser := genericparser.New(logging.NewLogrusAdapterFromLogger(root.Log))
	result, err := parser.Parse(content)
	if err != nil {
		root.Log.Fatalf("Error parsing CSV: %v", err)
	}
	for _, msg := range result.Errors {
		root.Log.Warnf("Skipped row: %s", msg)
	}
	if !result.Success {
		root.Log.Fatal("No rows could be parsed")
	}

	storePath := root.StorePath
	if storePath == "" {
		storePath = root.Cfg.Store.Path
	}
	st, err := common.OpenStore(storePath)
	if err != nil {
		root.Log.Fatalf("Error opening store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			root.Log.Warnf("Failed to close store: %v", err)
		}
	}()

	txs := common.ToTransactions(result.Transactions)
	if err := common.PersistAndExport(context.Background(), st, txs, root.SharedFlags.Output, root.Log); err != nil {
		root.Log.Fatalf("Error persisting transactions: %v", err)
	}

	root.Log.WithField("count", len(txs)).Info("Generic CSV import completed successfully!")
}
