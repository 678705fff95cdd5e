// Package link handles the link lifecycle commands: suggesting candidate
// links, creating and removing links, adjusting link attributes and
// auto-linking high-confidence suggestions in bulk.
package link

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finbase/txlink/cmd/common"
	"finbase/txlink/cmd/root"
	"finbase/txlink/internal/linker"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/matcher"
	"finbase/txlink/internal/models"
	"finbase/txlink/internal/store"
)

// Cmd represents the link command group.
var Cmd = &cobra.Command{
	Use:   "link",
	Short: "Manage links between marketplace charges and their line items",
	Long: `Link groups the lifecycle operations on transaction links: suggest
candidates for a charge, create or remove a link, update its attributes,
and auto-link every suggestion above the configured threshold.`,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest candidate line items for a marketplace charge",
	Run:   suggestFunc,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Link child transactions to a parent charge",
	Run:   createFunc,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the link from a child transaction",
	Run:   removeFunc,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update confidence, type or notes on an existing link",
	Run:   updateFunc,
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Auto-link every suggestion at or above the auto-link threshold",
	Run:   autoFunc,
}

func init() {
	suggestCmd.Flags().StringVarP(&root.ParentID, "parent", "p", "", "Parent transaction id")
	_ = suggestCmd.MarkFlagRequired("parent")

	createCmd.Flags().StringVarP(&root.ParentID, "parent", "p", "", "Parent transaction id")
	createCmd.Flags().StringSliceVarP(&root.ChildIDs, "child", "c", nil, "Child transaction id (repeatable)")
	createCmd.Flags().StringVarP(&root.Notes, "notes", "n", "", "Notes to store with the link")
	_ = createCmd.MarkFlagRequired("parent")
	_ = createCmd.MarkFlagRequired("child")

	removeCmd.Flags().StringSliceVarP(&root.ChildIDs, "child", "c", nil, "Child transaction id (repeatable)")
	_ = removeCmd.MarkFlagRequired("child")

	updateCmd.Flags().StringSliceVarP(&root.ChildIDs, "child", "c", nil, "Child transaction id")
	updateCmd.Flags().Float64VarP(&root.Score, "confidence", "s", -1, "New confidence score (0-100)")
	updateCmd.Flags().StringVarP(&root.Notes, "notes", "n", "", "New notes")
	_ = updateCmd.MarkFlagRequired("child")

	Cmd.AddCommand(suggestCmd)
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(autoCmd)
}

// openCollaborators wires the store, engine and manager from configuration.
func openCollaborators() (store.Store, *matcher.Engine, *linker.Manager) {
	storePath := root.StorePath
	if storePath == "" {
		storePath = root.Cfg.Store.Path
	}
	st, err := common.OpenStore(storePath)
	if err != nil {
		root.Log.Fatalf("Error opening store: %v", err)
	}

	logger := logging.NewLogrusAdapterFromLogger(root.Log)
	matchingCfg := root.Cfg.MatchingConfig()
	engine := matcher.New(matchingCfg, logger)
	manager := linker.New(st, matchingCfg.AmountTolerance, logger)
	return st, engine, manager
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		root.Log.Warnf("Failed to close store: %v", err)
	}
}

func suggestFunc(cmd *cobra.Command, args []string) {
	st, engine, _ := openCollaborators()
	defer closeStore(st)
	ctx := context.Background()

	parent, err := st.GetTransaction(ctx, root.ParentID)
	if err != nil {
		root.Log.Fatalf("Error loading parent transaction: %v", err)
	}

	pool, err := st.ListTransactions(ctx, store.Filter{UnlinkedOnly: true})
	if err != nil {
		root.Log.Fatalf("Error listing transactions: %v", err)
	}

	candidates := engine.Suggest(parent, pool)
	if len(candidates) == 0 {
		root.Log.Info("No link candidates found")
		return
	}

	for _, candidate := range candidates {
		fmt.Printf("%s  score=%.1f  level=%s  recommendation=%s  children=%d\n",
			candidate.Parent.ID,
			candidate.Score.Total,
			candidate.Score.Level,
			candidate.Recommendation,
			len(candidate.Children))
		for _, child := range candidate.Children {
			fmt.Printf("  %s  %s  %s  %s\n",
				child.ID, child.Date.Format("2006-01-02"), child.Amount.StringFixed(2), child.Description)
		}
	}
}

func createFunc(cmd *cobra.Command, args []string) {
	st, _, manager := openCollaborators()
	defer closeStore(st)

	result, err := manager.CreateLink(context.Background(), models.LinkRequest{
		ParentTransactionID: root.ParentID,
		ChildTransactionIDs: root.ChildIDs,
		LinkType:            models.LinkTypeManual,
		Confidence:          100,
		Notes:               root.Notes,
	})
	if err != nil {
		root.Log.Fatalf("Error creating link: %v", err)
	}
	if !result.Success {
		for _, msg := range result.Errors {
			root.Log.Error(msg)
		}
		root.Log.Fatal("Link creation failed")
	}

	root.Log.WithField("count", result.LinkedCount).Info("Link created successfully!")
}

func removeFunc(cmd *cobra.Command, args []string) {
	st, _, manager := openCollaborators()
	defer closeStore(st)
	ctx := context.Background()

	for _, childID := range root.ChildIDs {
		if err := manager.RemoveLink(ctx, childID); err != nil {
			root.Log.Fatalf("Error removing link: %v", err)
		}
	}
	root.Log.WithField("count", len(root.ChildIDs)).Info("Link removed successfully!")
}

func updateFunc(cmd *cobra.Command, args []string) {
	st, _, manager := openCollaborators()
	defer closeStore(st)
	ctx := context.Background()

	var confidence *float64
	if root.Score >= 0 {
		confidence = &root.Score
	}

	for _, childID := range root.ChildIDs {
		err := manager.UpdateLink(ctx, models.UpdateLinkRequest{
			ChildTransactionID: childID,
			Confidence:         confidence,
			Notes:              root.Notes,
		})
		if err != nil {
			root.Log.Fatalf("Error updating link: %v", err)
		}
	}
	root.Log.WithField("count", len(root.ChildIDs)).Info("Link updated successfully!")
}

func autoFunc(cmd *cobra.Command, args []string) {
	st, engine, manager := openCollaborators()
	defer closeStore(st)
	ctx := context.Background()

	pool, err := st.ListTransactions(ctx, store.Filter{UnlinkedOnly: true})
	if err != nil {
		root.Log.Fatalf("Error listing transactions: %v", err)
	}

	autoThreshold := root.Cfg.Matching.AutoLinkThreshold
	var toLink []models.MatchCandidate
	claimed := make(map[string]bool)
	for _, parent := range pool {
		candidates := engine.Suggest(parent, pool)
		for _, candidate := range candidates {
			if candidate.Score.Total < autoThreshold {
				break // sorted descending, nothing further qualifies
			}
			if claimedAny(claimed, candidate.Children) {
				continue
			}
			for _, child := range candidate.Children {
				claimed[child.ID] = true
			}
			toLink = append(toLink, candidate)
			break // one link per parent
		}
	}

	if len(toLink) == 0 {
		root.Log.Info("No candidates above the auto-link threshold")
		return
	}

	results := manager.BulkCreateLinks(ctx, toLink, models.LinkTypeAuto)
	linked := 0
	for i, result := range results {
		if !result.Success {
			for _, msg := range result.Errors {
				root.Log.WithField("parent_transaction_id", toLink[i].Parent.ID).Warn(msg)
			}
			continue
		}
		linked += result.LinkedCount
	}
	root.Log.WithField("count", linked).Info("Auto-link pass completed successfully!")
}

func claimedAny(claimed map[string]bool, children []*models.Transaction) bool {
	for _, child := range children {
		if claimed[child.ID] {
			return true
		}
	}
	return false
}
