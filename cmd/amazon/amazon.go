// Package amazon handles importing Amazon order-history exports.
package amazon

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"finbase/txlink/cmd/common"
	"finbase/txlink/cmd/root"
	"finbase/txlink/internal/amazonparser"
	"finbase/txlink/internal/logging"
)

// Cmd represents the amazon import command.
var Cmd = &cobra.Command{
	Use:   "amazon",
	Short: "Import an Amazon order-history CSV export",
	Long: `Import parses an Amazon Retail.OrderHistory export. By default all line
items of an order are aggregated into a single transaction matching the
card charge; with --line-items each row becomes its own transaction.`,
	Run: amazonFunc,
}

func init() {
	Cmd.Flags().BoolVar(&root.LineItems, "line-items", false, "Emit one transaction per line item instead of per order")
}

func amazonFunc(cmd *cobra.Command, args []string) {
	root.Log.Infof("Input order history file: %s", root.SharedFlags.Input)

	content, err := common.ReadInputFile(root.SharedFlags.Input)
	if err != nil {
		root.Log.Fatalf("Error reading input: %v", err)
	}

	aggregate := root.Cfg.Amazon.AggregateOrders
	if root.LineItems {
		aggregate = false
	}

	parser := amazonparser.New(logging.NewLogrusAdapterFromLogger(root.Log))
	result, err := parser.Parse(content, amazonparser.Options{AggregateOrders: aggregate})
	if err != nil {
		root.Log.Fatalf("Error parsing order history: %v", err)
	}
	for _, msg := range result.Errors {
		root.Log.Warnf("Skipped row: %s", msg)
	}
	if !result.Success {
		root.Log.Fatal("No orders could be parsed")
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

	root.Log.WithFields(logrus.Fields{
		"orders":       result.TotalOrders,
		"skipped":      result.SkippedOrders,
		"total_amount": result.TotalAmount.StringFixed(2),
	}).Info("Amazon order history import completed successfully!")
}
