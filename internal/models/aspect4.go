package models

import "github.com/shopspring/decimal"

// Raw record sets as retrieved from the Aspect4 gateway, one type per
// operation. All four are immutable inputs to the reconciliation.

// RawOrderHeader is one entry of the orderget response.
type RawOrderHeader struct {
	OrderNumber int64
	OrderDate   int
	Status      string
	Fields      FieldMap
}

// RawOrderLine is one entry of the orderlinesget response. Fields keeps the
// full backend record, including the optional packed expected-delivery date
// under t01.senlv.
type RawOrderLine struct {
	OrderNumber int64
	LineNumber  int64
	Fields      FieldMap
}

// RawStatusLine is one entry of the staordlinesget response: invoice,
// quantity, prices, description, colour and the raw delivery-status text.
// Several may exist for the same line number (partial shipments); they are
// all kept.
type RawStatusLine struct {
	OrderNumber int64
	LineNumber  int64
	Fields      FieldMap
}

// DeliveredQty reads the backend's total delivered quantity for the line.
func (s RawStatusLine) DeliveredQty() (int64, bool) {
	return s.Fields.Int64(FieldDeliveredQty)
}

// RawSizeRecord is one size entry for one order line, flattened from the
// antalprstor2 groups of ordlinsizeget (ordered) or stalinsizeget
// (delivered).
type RawSizeRecord struct {
	OrderNumber int64
	LineNumber  int64
	Size        string
	Qty         int64
	EAN         *int64
	UnitPrice   *decimal.Decimal
}
