// Package linker manages the lifecycle of parent/child transaction links:
// validation, creation, removal, attribute updates and bulk application of
// match candidates. All mutations go through the store's atomic primitives;
// the manager itself holds no state between calls.
package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
	"finbase/txlink/internal/parsererror"
	"finbase/txlink/internal/store"
)

// materialityFactor scales the amount tolerance into the warning band:
// amount mismatches beyond tolerance but within this multiple only warn.
const materialityFactor = 10

// Manager validates and applies link mutations against a Store.
type Manager struct {
	store     store.Store
	logger    logging.Logger
	tolerance decimal.Decimal
	now       func() time.Time
}

// New creates a Manager. The tolerance is used to grade amount-mismatch
// warnings during validation.
func New(s store.Store, tolerance decimal.Decimal, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Manager{store: s, logger: logger, tolerance: tolerance, now: time.Now}
}

// ValidateLink checks a prospective link and reports every problem at once.
// Structural violations (self-links, chains, double-parenting) are errors;
// an amount mismatch is only a warning because legitimate links routinely
// differ by tax, shipping or partial refunds.
func (m *Manager) ValidateLink(ctx context.Context, parentID string, childIDs []string) (*models.ValidationResult, error) {
	result := &models.ValidationResult{Valid: true}
	fail := func(transactionID, reason string) {
		result.Valid = false
		verr := &parsererror.ValidationError{TransactionID: transactionID, Reason: reason}
		result.Errors = append(result.Errors, verr.Error())
	}

	if parentID == "" {
		fail("", "parent transaction id is required")
		return result, nil
	}
	if len(childIDs) == 0 {
		fail("", "at least one child transaction id is required")
		return result, nil
	}

	parent, err := m.store.GetTransaction(ctx, parentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(parentID, "parent transaction not found")
			return result, nil
		}
		return nil, fmt.Errorf("loading parent %s: %w", parentID, err)
	}
	if parent.IsLinked() {
		fail(parentID, fmt.Sprintf("already a child of %s; links are one level deep", parent.ParentTransactionID))
	}

	childSum := decimal.Zero
	seen := make(map[string]bool, len(childIDs))
	for _, childID := range childIDs {
		if childID == parentID {
			fail(childID, "cannot be linked to itself")
			continue
		}
		if seen[childID] {
			fail(childID, "listed more than once")
			continue
		}
		seen[childID] = true

		child, err := m.store.GetTransaction(ctx, childID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fail(childID, "child transaction not found")
				continue
			}
			return nil, fmt.Errorf("loading child %s: %w", childID, err)
		}
		if child.IsLinked() {
			fail(childID, fmt.Sprintf("already linked to %s", child.ParentTransactionID))
		}

		childCount, err := m.store.CountChildren(ctx, childID)
		if err != nil {
			return nil, fmt.Errorf("counting children of %s: %w", childID, err)
		}
		if childCount > 0 {
			fail(childID, fmt.Sprintf("a parent of %d other transactions; links are one level deep", childCount))
		}

		childSum = childSum.Add(child.Amount)
	}

	diff := parent.Amount.Sub(childSum).Abs()
	if diff.GreaterThan(m.tolerance) {
		severity := "warning"
		if diff.GreaterThan(m.tolerance.Mul(decimal.NewFromInt(materialityFactor))) {
			severity = "large"
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s amount mismatch: parent %s vs children sum %s (difference %s)",
			severity, parent.Amount.StringFixed(2), childSum.StringFixed(2), diff.StringFixed(2)))
	}

	return result, nil
}

// CreateLink validates and then applies a link atomically. The stored
// metadata records the score breakdown and the link timestamp so the link
// remains auditable after the fact.
func (m *Manager) CreateLink(ctx context.Context, req models.LinkRequest) (*models.LinkResult, error) {
	validation, err := m.ValidateLink(ctx, req.ParentTransactionID, req.ChildTransactionIDs)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return &models.LinkResult{Success: false, Errors: validation.Errors}, nil
	}

	linkType := req.LinkType
	if linkType == "" {
		linkType = models.LinkTypeManual
	}

	metadata := &models.LinkMetadata{
		Scores:   req.Scores,
		Notes:    req.Notes,
		LinkedAt: m.now().UTC(),
	}

	linked, err := m.store.UpdateLinks(ctx, req.ParentTransactionID, req.ChildTransactionIDs, store.LinkFields{
		LinkType:   linkType,
		Confidence: req.Confidence,
		Metadata:   metadata,
	})
	if err != nil {
		m.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldParentID, Value: req.ParentTransactionID},
			logging.Field{Key: logging.FieldCount, Value: len(req.ChildTransactionIDs)},
		).Error("Link creation failed")
		return &models.LinkResult{Success: false, Errors: []string{err.Error()}}, nil
	}

	m.logger.WithFields(
		logging.Field{Key: logging.FieldParentID, Value: req.ParentTransactionID},
		logging.Field{Key: logging.FieldCount, Value: linked},
	).Info("Created transaction link")

	return &models.LinkResult{Success: true, LinkedCount: linked}, nil
}

// RemoveLink detaches a single child from its parent. Sibling links are
// untouched. Removing an unlinked transaction is an error.
func (m *Manager) RemoveLink(ctx context.Context, childID string) error {
	child, err := m.store.GetTransaction(ctx, childID)
	if err != nil {
		return fmt.Errorf("loading child %s: %w", childID, err)
	}
	if !child.IsLinked() {
		return fmt.Errorf("transaction %s is not linked", childID)
	}

	if err := m.store.ClearLink(ctx, childID); err != nil {
		return fmt.Errorf("clearing link on %s: %w", childID, err)
	}

	m.logger.WithFields(
		logging.Field{Key: logging.FieldChildID, Value: childID},
		logging.Field{Key: logging.FieldParentID, Value: child.ParentTransactionID},
	).Info("Removed transaction link")
	return nil
}

// UpdateLink mutates confidence, type or notes on an existing link without
// changing the parent. The previous confidence is preserved in metadata for
// the audit trail.
func (m *Manager) UpdateLink(ctx context.Context, req models.UpdateLinkRequest) error {
	child, err := m.store.GetTransaction(ctx, req.ChildTransactionID)
	if err != nil {
		return fmt.Errorf("loading child %s: %w", req.ChildTransactionID, err)
	}
	if !child.IsLinked() {
		return fmt.Errorf("transaction %s is not linked", req.ChildTransactionID)
	}

	linkType := child.LinkType
	if req.LinkType != "" {
		linkType = req.LinkType
	}

	confidence := 0.0
	if child.LinkConfidence != nil {
		confidence = *child.LinkConfidence
	}
	metadata := child.LinkMetadata
	if metadata == nil {
		metadata = &models.LinkMetadata{}
	}
	if req.Confidence != nil {
		previous := confidence
		metadata.PreviousConfidence = &previous
		confidence = *req.Confidence
	}
	if req.Notes != "" {
		metadata.Notes = req.Notes
	}
	metadata.ReviewedAt = m.now().UTC()

	if err := m.store.UpdateLinkAttrs(ctx, req.ChildTransactionID, store.LinkFields{
		LinkType:   linkType,
		Confidence: confidence,
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("updating link on %s: %w", req.ChildTransactionID, err)
	}

	m.logger.WithFields(
		logging.Field{Key: logging.FieldChildID, Value: req.ChildTransactionID},
		logging.Field{Key: logging.FieldScore, Value: confidence},
	).Info("Updated transaction link")
	return nil
}

// BulkCreateLinks applies a batch of match candidates, typically the output
// of the matcher's suggestion pass. Each candidate is applied independently
// and yields its own result in candidate order: a failure is recorded in
// that candidate's entry and the remaining candidates still proceed.
func (m *Manager) BulkCreateLinks(ctx context.Context, candidates []models.MatchCandidate, linkType models.LinkType) []models.LinkResult {
	results := make([]models.LinkResult, 0, len(candidates))
	linkedTotal := 0

	for _, candidate := range candidates {
		childIDs := make([]string, 0, len(candidate.Children))
		for _, child := range candidate.Children {
			childIDs = append(childIDs, child.ID)
		}

		score := candidate.Score
		linkResult, err := m.CreateLink(ctx, models.LinkRequest{
			ParentTransactionID: candidate.Parent.ID,
			ChildTransactionIDs: childIDs,
			LinkType:            linkType,
			Confidence:          score.Total,
			Scores:              &score,
		})
		if err != nil {
			results = append(results, models.LinkResult{Success: false, Errors: []string{err.Error()}})
			continue
		}
		results = append(results, *linkResult)
		if linkResult.Success {
			linkedTotal += linkResult.LinkedCount
		}
	}

	m.logger.WithFields(
		logging.Field{Key: logging.FieldCount, Value: linkedTotal},
	).Info("Bulk link pass complete")
	return results
}
