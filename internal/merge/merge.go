// Package merge joins the four raw record sets of one order into the
// reported Order structure.
package merge

import (
	"go.uber.org/zap"

	"github.com/tommy2310DK/Aspect4/internal/dates"
	"github.com/tommy2310DK/Aspect4/internal/models"
	"github.com/tommy2310DK/Aspect4/internal/sizes"
)

// BuildLine merges one order line with its delivery-status lines and size
// records.
//
// The staordlinesget result is the authoritative delivery source: when
// several status lines share the line number (partial shipments), the first
// one is the representative delivery_status. A line without any status line
// gets an empty delivery_status; the line simply has no delivery activity
// yet. Order-line details can be absent the other way around, since Aspect4
// archives the original order data for completed orders.
func BuildLine(
	lineNumber int64,
	orderLine *models.RawOrderLine,
	statusLines []models.RawStatusLine,
	ordered, delivered []models.RawSizeRecord,
) models.OrderLine {

	line := models.OrderLine{
		LineNumber:     lineNumber,
		OrderDetails:   models.FieldMap{},
		DeliveryStatus: models.FieldMap{},
	}

	if len(statusLines) > 0 {
		line.ItemNumber = statusLines[0].Fields.ItemNumber()
		line.DeliveryStatus = statusLines[0].Fields.WithoutIdentity()
	}

	if orderLine != nil {
		if line.ItemNumber == "" {
			line.ItemNumber = orderLine.Fields.ItemNumber()
		}
		line.OrderDetails = orderLine.Fields.WithoutIdentity()

		if packed, ok := orderLine.Fields.Int64(models.FieldPackedDelivery); ok {
			if raw, ok := dates.PackedFromInt(packed); ok {
				if expected, ok := dates.ParsePackedDate(raw); ok {
					line.OrderDetails[models.FieldExpectedDelivery] = expected.Format("2006-01-02")
				}
			}
		}
	}

	views := sizes.Build(ordered, delivered)
	line.SizesOrdered = views.Ordered
	line.SizesDelivered = views.Delivered
	line.SizesPending = views.Pending

	flagConservation(line, statusLines)

	return line
}

// flagConservation warns when the summed delivered size quantities exceed
// the total the status line reports. Aspect4 data can be inconsistent here;
// the line is still emitted as-is.
func flagConservation(line models.OrderLine, statusLines []models.RawStatusLine) {
	if len(statusLines) == 0 {
		return
	}
	reported, ok := statusLines[0].DeliveredQty()
	if !ok {
		return
	}

	var summed int64
	for _, v := range line.SizesDelivered {
		summed += v.Qty
	}
	if summed > reported {
		zap.L().Warn("delivered size quantities exceed reported delivered total",
			zap.Int64("line_number", line.LineNumber),
			zap.Int64("sum_of_sizes", summed),
			zap.Int64("reported_antal", reported),
		)
	}
}

// AssembleOrder groups the merged lines under their order header and
// annotates date-window membership. Status lines lead the line ordering
// (they are the primary source); order lines without delivery activity
// follow in their own encounter order. Orders with no resolved lines are
// still returned with an empty order_lines sequence.
func AssembleOrder(
	header models.RawOrderHeader,
	orderLines []models.RawOrderLine,
	statusLines []models.RawStatusLine,
	orderedSizes, deliveredSizes []models.RawSizeRecord,
	window models.DateWindow,
) models.Order {

	linesByNumber := make(map[int64]*models.RawOrderLine, len(orderLines))
	for i := range orderLines {
		if orderLines[i].OrderNumber != header.OrderNumber {
			continue
		}
		if _, dup := linesByNumber[orderLines[i].LineNumber]; !dup {
			linesByNumber[orderLines[i].LineNumber] = &orderLines[i]
		}
	}

	statusByNumber := make(map[int64][]models.RawStatusLine)
	var lineOrder []int64
	seen := make(map[int64]bool)
	for _, sl := range statusLines {
		if sl.OrderNumber != header.OrderNumber {
			continue
		}
		statusByNumber[sl.LineNumber] = append(statusByNumber[sl.LineNumber], sl)
		if !seen[sl.LineNumber] {
			seen[sl.LineNumber] = true
			lineOrder = append(lineOrder, sl.LineNumber)
		}
	}
	for i := range orderLines {
		n := orderLines[i].LineNumber
		if orderLines[i].OrderNumber == header.OrderNumber && !seen[n] {
			seen[n] = true
			lineOrder = append(lineOrder, n)
		}
	}

	orderedByLine := groupSizes(orderedSizes, header.OrderNumber)
	deliveredByLine := groupSizes(deliveredSizes, header.OrderNumber)

	merged := make([]models.OrderLine, 0, len(lineOrder))
	for _, n := range lineOrder {
		merged = append(merged, BuildLine(
			n,
			linesByNumber[n],
			statusByNumber[n],
			orderedByLine[n],
			deliveredByLine[n],
		))
	}

	return models.Order{
		OrderNumber:      header.OrderNumber,
		OrderDate:        header.OrderDate,
		OrderStatus:      header.Status,
		WithinDateFilter: window.Contains(header.OrderDate),
		OrderLines:       merged,
	}
}

func groupSizes(records []models.RawSizeRecord, orderNumber int64) map[int64][]models.RawSizeRecord {
	grouped := make(map[int64][]models.RawSizeRecord)
	for _, rec := range records {
		if rec.OrderNumber != orderNumber {
			continue
		}
		grouped[rec.LineNumber] = append(grouped[rec.LineNumber], rec)
	}
	return grouped
}
