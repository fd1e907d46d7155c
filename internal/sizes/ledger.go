// Package sizes builds the per-line size views: what was ordered, what has
// been delivered and what is still outstanding.
package sizes

import "github.com/tommy2310DK/Aspect4/internal/models"

// Views is the Size Ledger output for one order line.
type Views struct {
	Ordered   []models.SizeView
	Delivered []models.SizeView
	Pending   []models.SizeView
}

// Build merges the ordered and delivered size records of one order line.
//
// Quantities are summed per size label (split shipments produce several
// records for the same label), EAN and unit price are last-write-wins per
// label. Pending is max(ordered-delivered, 0) per label, emitted only for
// labels with something outstanding. A label that was delivered without an
// ordered counterpart is normal - Aspect4 archives the original order data
// once an order completes - and contributes nothing to pending.
func Build(ordered, delivered []models.RawSizeRecord) Views {
	orderedView := collapse(ordered)
	deliveredView := collapse(delivered)

	deliveredQty := make(map[string]int64, len(deliveredView))
	for _, v := range deliveredView {
		deliveredQty[v.Size] = v.Qty
	}

	pending := make([]models.SizeView, 0, len(orderedView))
	for _, v := range orderedView {
		if v.Qty <= 0 {
			continue
		}
		outstanding := v.Qty - deliveredQty[v.Size]
		if outstanding <= 0 {
			continue
		}
		pending = append(pending, models.SizeView{Size: v.Size, Qty: outstanding})
	}

	return Views{Ordered: orderedView, Delivered: deliveredView, Pending: pending}
}

// collapse sums records into one view row per distinct label, keeping
// encounter order.
func collapse(records []models.RawSizeRecord) []models.SizeView {
	views := make([]models.SizeView, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		i, seen := index[rec.Size]
		if !seen {
			index[rec.Size] = len(views)
			views = append(views, models.SizeView{Size: rec.Size})
			i = len(views) - 1
		}
		views[i].Qty += rec.Qty
		if rec.EAN != nil {
			views[i].EAN = rec.EAN
		}
		if rec.UnitPrice != nil {
			views[i].UnitPrice = rec.UnitPrice
		}
	}

	return views
}
