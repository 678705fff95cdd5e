// Package detect handles the CSV format detection command.
package detect

import (
	"fmt"

	"github.com/spf13/cobra"

	"finbase/txlink/cmd/common"
	"finbase/txlink/cmd/root"
	"finbase/txlink/internal/csvutil"
	"finbase/txlink/internal/format"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/rules"
)

// Cmd represents the detect command.
var Cmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the format of a transaction CSV file",
	Long:  `Detect inspects the header row of a CSV file and reports which known layout it matches.`,
	Run:   detectFunc,
}

func detectFunc(cmd *cobra.Command, args []string) {
	content, err := common.ReadInputFile(root.SharedFlags.Input)
	if err != nil {
		root.Log.Fatalf("Error reading input: %v", err)
	}

	rows := csvutil.SplitRows(content)
	if len(rows) == 0 {
		root.Log.Fatal("Input file is empty")
	}
	headers := csvutil.ParseLine(rows[0])

	ruleStore := rules.NewStore(
		root.Cfg.Rules.MerchantFile,
		root.Cfg.Rules.SignaturesFile,
		logging.NewLogrusAdapterFromLogger(root.Log),
	)
	signatures, err := ruleStore.LoadSignatures()
	if err != nil {
		root.Log.Fatalf("Error loading format signatures: %v", err)
	}

	detected := format.DetectWith(headers, signatures)
	root.Log.WithField("format", string(detected)).Info("Detected CSV format")
	fmt.Println(string(detected))
}
