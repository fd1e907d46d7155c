package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
	"github.com/tommy2310DK/Aspect4/internal/models"
)

// Conversions from the gateway's loosely-typed records into the engine's
// raw types. The join keys are a hard contract: a record without them
// cannot be reconciled and is reported as a data-shape error so the caller
// can skip it instead of mis-joining.

func headerFromFields(f models.FieldMap) (models.RawOrderHeader, error) {
	orderNumber, ok := f.Int64(models.FieldOrderNumber)
	if !ok {
		return models.RawOrderHeader{}, missingKey("order header", models.FieldOrderNumber)
	}

	orderDate, _ := f.Int64(models.FieldOrderDate)
	status, _ := f.String(models.FieldOrderStatus)

	return models.RawOrderHeader{
		OrderNumber: orderNumber,
		OrderDate:   int(orderDate),
		Status:      status,
		Fields:      f,
	}, nil
}

func orderLineFromFields(f models.FieldMap) (models.RawOrderLine, error) {
	orderNumber, lineNumber, err := lineIdentity("order line", f)
	if err != nil {
		return models.RawOrderLine{}, err
	}
	return models.RawOrderLine{
		OrderNumber: orderNumber,
		LineNumber:  lineNumber,
		Fields:      f,
	}, nil
}

func statusLineFromFields(f models.FieldMap) (models.RawStatusLine, error) {
	orderNumber, lineNumber, err := lineIdentity("status line", f)
	if err != nil {
		return models.RawStatusLine{}, err
	}
	return models.RawStatusLine{
		OrderNumber: orderNumber,
		LineNumber:  lineNumber,
		Fields:      f,
	}, nil
}

// lineIdentity extracts the order/line join keys shared by order lines
// and status lines.
func lineIdentity(kind string, f models.FieldMap) (int64, int64, error) {
	orderNumber, ok := f.Int64(models.FieldOrderNumber)
	if !ok {
		return 0, 0, missingKey(kind, models.FieldOrderNumber)
	}
	lineNumber, ok := f.Int64(models.FieldLineNumber)
	if !ok {
		return 0, 0, missingKey(kind, models.FieldLineNumber)
	}
	return orderNumber, lineNumber, nil
}

// flattenSizeGroups turns the nested antalprstor2 groups into flat per-size
// records. Entries without a size label or quantity are dropped, as the
// legacy service did.
func flattenSizeGroups(op string, order int64, groups []models.FieldMap) []models.RawSizeRecord {
	var records []models.RawSizeRecord

	for _, group := range groups {
		lineNumber, ok := group.Int64(models.FieldLineNumber)
		if !ok {
			logSkippedRecord(op, missingKey("size group", models.FieldLineNumber))
			continue
		}

		items, _ := group["antalprstor2"].([]any)
		for _, item := range items {
			raw, ok := item.(map[string]any)
			if !ok {
				continue
			}
			f := models.FieldMap(raw)

			label, ok := f.String(models.FieldSizeLabel)
			if !ok || label == "" {
				continue
			}
			qty, ok := f.Int64(models.FieldSizeQty)
			if !ok || qty < 0 {
				continue
			}

			rec := models.RawSizeRecord{
				OrderNumber: order,
				LineNumber:  lineNumber,
				Size:        label,
				Qty:         qty,
			}
			if ean, ok := f.Int64(models.FieldSizeEAN); ok {
				rec.EAN = &ean
			}
			if price := decimalField(f, models.FieldSizePrice); price != nil {
				rec.UnitPrice = price
			}
			records = append(records, rec)
		}
	}

	return records
}

func decimalField(f models.FieldMap, key string) *decimal.Decimal {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		d := decimal.NewFromFloat(n)
		return &d
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

func missingKey(kind, key string) error {
	return apperrors.ErrDataShape(fmt.Sprintf("%s record has no %s", kind, key), nil)
}
