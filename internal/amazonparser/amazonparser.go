// Package amazonparser parses Amazon's "Retail.OrderHistory" CSV export.
//
// The export carries one row per order line item. In aggregate mode all
// line items of one order are summed into a single transaction with a
// tax-inclusive total; in line-item mode each row becomes its own
// transaction for per-item categorization.
package amazonparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finbase/txlink/internal/csvutil"
	"finbase/txlink/internal/currencyutils"
	"finbase/txlink/internal/dateutils"
	"finbase/txlink/internal/format"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
	"finbase/txlink/internal/parsererror"
)

// Options control the parse mode.
type Options struct {
	// AggregateOrders collapses all line items sharing an Order ID into a
	// single transaction. When false, each line item becomes its own
	// transaction.
	AggregateOrders bool
}

// Required columns of the order-history export, matched tolerantly against
// normalized headers.
var requiredColumns = []string{
	"order id",
	"order date",
	"unit price",
	"unit price tax",
	"total owed",
	"asin",
	"order status",
}

// maxListedASINs caps how many ASINs a multi-item description lists before
// switching to an "and N more" suffix.
const maxListedASINs = 5

// Parser parses Amazon order-history exports.
type Parser struct {
	logger logging.Logger
	now    func() time.Time
}

// New creates a Parser with the given logger.
func New(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Parser{logger: logger, now: time.Now}
}

// lineItem is one extracted row of the export.
type lineItem struct {
	orderID   string
	date      time.Time
	status    string
	asin      string
	quantity  int
	totalOwed decimal.Decimal
}

// Parse converts the raw export text into normalized transactions plus
// order statistics. Header mismatches are fatal; cancelled and zero-total
// orders are counted as skipped, not as errors.
func (p *Parser) Parse(csvText string, opts Options) (*models.AmazonParseResult, error) {
	rows := csvutil.SplitRows(csvText)
	if len(rows) < 2 {
		return nil, &parsererror.InvalidFormatError{
			Expected: "Amazon order history CSV",
			Msg:      "file is empty or contains only a header row",
		}
	}

	headers := csvutil.ParseLine(rows[0])
	cols, err := resolveColumns(headers)
	if err != nil {
		return nil, err
	}

	result := &models.AmazonParseResult{}
	items := p.extractItems(rows[1:], cols, result)

	if opts.AggregateOrders {
		p.aggregateOrders(items, result)
	} else {
		p.emitLineItems(items, result)
	}

	total := decimal.Zero
	for _, tx := range result.Transactions {
		total = total.Add(tx.Amount)
	}
	result.TotalOrders = len(result.Transactions)
	result.TotalAmount = currencyutils.RoundCents(total)
	result.Success = len(result.Transactions) > 0

	p.logger.WithFields(
		logging.Field{Key: logging.FieldParser, Value: "amazon"},
		logging.Field{Key: logging.FieldCount, Value: result.TotalOrders},
		logging.Field{Key: logging.FieldSkipped, Value: result.SkippedOrders},
		logging.Field{Key: logging.FieldTotalAmount, Value: result.TotalAmount.StringFixed(2)},
	).Info("Parsed Amazon order history")

	return result, nil
}

// columnIndexes maps the required export columns to positions.
type columnIndexes struct {
	orderID      int
	orderDate    int
	unitPrice    int
	unitPriceTax int
	totalOwed    int
	asin         int
	status       int
	quantity     int
}

func resolveColumns(headers []string) (columnIndexes, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = format.NormalizeHeader(h)
	}

	for _, required := range requiredColumns {
		if findColumn(normalized, required) < 0 {
			return columnIndexes{}, &parsererror.InvalidFormatError{
				Expected: "Amazon order history CSV",
				Msg:      fmt.Sprintf("required column '%s' not found", required),
			}
		}
	}

	return columnIndexes{
		orderID:      findColumn(normalized, "order id"),
		orderDate:    findColumn(normalized, "order date"),
		unitPrice:    findColumn(normalized, "unit price"),
		unitPriceTax: findColumn(normalized, "unit price tax"),
		totalOwed:    findColumn(normalized, "total owed"),
		asin:         findColumn(normalized, "asin"),
		status:       findColumn(normalized, "order status"),
		quantity:     findColumn(normalized, "quantity"),
	}, nil
}

// findColumn prefers an exact normalized match, falling back to substring
// containment. The exact pass keeps "unit price" from capturing the
// "unit price tax" column.
func findColumn(normalized []string, name string) int {
	for i, header := range normalized {
		if header == name {
			return i
		}
	}
	for i, header := range normalized {
		if strings.Contains(header, name) {
			return i
		}
	}
	return -1
}

// extractItems converts raw rows into line items, accumulating row errors
// on the result without aborting.
func (p *Parser) extractItems(rows []string, cols columnIndexes, result *models.AmazonParseResult) []lineItem {
	var items []lineItem
	for i, row := range rows {
		rowNum := i + 2
		fields := csvutil.ParseLine(row)

		orderID := strings.TrimSpace(fieldAt(fields, cols.orderID))
		if orderID == "" {
			result.Errors = append(result.Errors,
				(&parsererror.RowError{Row: rowNum, Field: "Order ID", Value: "", Err: fmt.Errorf("missing")}).Error())
			continue
		}

		quantity := 1
		if q, err := strconv.Atoi(strings.TrimSpace(fieldAt(fields, cols.quantity))); err == nil && q > 0 {
			quantity = q
		}

		items = append(items, lineItem{
			orderID:   orderID,
			date:      p.parseOrderDate(fieldAt(fields, cols.orderDate), orderID),
			status:    strings.TrimSpace(fieldAt(fields, cols.status)),
			asin:      strings.TrimSpace(fieldAt(fields, cols.asin)),
			quantity:  quantity,
			totalOwed: parseNumeric(fieldAt(fields, cols.totalOwed)),
		})
	}
	return items
}

// parseOrderDate handles the export's ISO-8601 timestamps (with trailing Z)
// and normalizes to a calendar date. Unparseable dates fall back to today;
// the substitution is logged as a warning rather than failing the row.
func (p *Parser) parseOrderDate(raw string, orderID string) time.Time {
	parsed, _, err := dateutils.ParseDate(raw)
	if err != nil {
		p.logger.WithError(err).WithFields(
			logging.Field{Key: logging.FieldOrderID, Value: orderID},
			logging.Field{Key: "raw_date", Value: raw},
		).Warn("Unparseable order date, substituting current date")
		return dateutils.ToDateOnly(p.now())
	}
	return dateutils.ToDateOnly(parsed)
}

// parseNumeric treats empty values and the literal "Not Applicable" as
// zero, matching the export's convention for non-monetary rows.
func parseNumeric(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "Not Applicable") {
		return decimal.Zero
	}
	amount, err := currencyutils.ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func isCancelled(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "Cancelled") ||
		strings.EqualFold(strings.TrimSpace(status), "Canceled")
}

// aggregateOrders sums the line items of each order into one transaction.
// Order of first appearance is preserved.
func (p *Parser) aggregateOrders(items []lineItem, result *models.AmazonParseResult) {
	grouped := make(map[string][]lineItem)
	var orderIDs []string
	for _, item := range items {
		if _, seen := grouped[item.orderID]; !seen {
			orderIDs = append(orderIDs, item.orderID)
		}
		grouped[item.orderID] = append(grouped[item.orderID], item)
	}

	for _, orderID := range orderIDs {
		orderItems := grouped[orderID]

		total := decimal.Zero
		cancelled := false
		var asins []string
		for _, item := range orderItems {
			total = total.Add(item.totalOwed)
			cancelled = cancelled || isCancelled(item.status)
			if item.asin != "" {
				asins = append(asins, item.asin)
			}
		}
		total = currencyutils.RoundCents(total)

		// Cancelled orders and zero totals are legitimate non-transactions.
		if cancelled || total.IsZero() {
			result.SkippedOrders++
			continue
		}

		result.Transactions = append(result.Transactions, models.ParsedTransaction{
			Date:        orderItems[0].date,
			Amount:      total.Abs(),
			Merchant:    "Amazon",
			Description: aggregateDescription(orderID, len(orderItems), asins),
			IsIncome:    total.IsNegative(),
			OrderGroup:  orderID,
		})
	}
}

// aggregateDescription lists the order id; single-item orders include the
// ASIN, multi-item orders state the item count and list up to
// maxListedASINs ASINs with an "and N more" suffix beyond that.
func aggregateDescription(orderID string, itemCount int, asins []string) string {
	if itemCount == 1 {
		if len(asins) > 0 {
			return fmt.Sprintf("Amazon Order: %s (ASIN: %s)", orderID, asins[0])
		}
		return fmt.Sprintf("Amazon Order: %s", orderID)
	}

	listed := asins
	if len(listed) > maxListedASINs {
		listed = listed[:maxListedASINs]
	}
	desc := fmt.Sprintf("Amazon Order: %s (%d items: %s", orderID, itemCount, strings.Join(listed, ", "))
	if remaining := len(asins) - len(listed); remaining > 0 {
		desc += fmt.Sprintf(" and %d more", remaining)
	}
	return desc + ")"
}

// emitLineItems turns each row into its own transaction.
func (p *Parser) emitLineItems(items []lineItem, result *models.AmazonParseResult) {
	for _, item := range items {
		if isCancelled(item.status) || item.totalOwed.IsZero() {
			result.SkippedOrders++
			continue
		}

		total := currencyutils.RoundCents(item.totalOwed)
		desc := fmt.Sprintf("Amazon Order: %s, ASIN: %s", item.orderID, item.asin)
		if item.quantity > 1 {
			desc += fmt.Sprintf(" x%d", item.quantity)
		}

		result.Transactions = append(result.Transactions, models.ParsedTransaction{
			Date:        item.date,
			Amount:      total.Abs(),
			Merchant:    "Amazon",
			Description: desc,
			IsIncome:    total.IsNegative(),
			OrderGroup:  item.orderID,
		})
	}
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
