package models

import "github.com/shopspring/decimal"

// Report entities. JSON field names and nesting must stay byte-compatible
// with the legacy Aspect4 order API; existing consumers parse them by name.

// SizeView is one size row of an order line, in the ordered, delivered or
// pending view.
type SizeView struct {
	Size      string           `json:"size"`
	Qty       int64            `json:"qty"`
	EAN       *int64           `json:"ean"`
	UnitPrice *decimal.Decimal `json:"apris1"`
}

// OrderLine is one merged line: the order-line details joined with the
// representative delivery status and the three size views.
type OrderLine struct {
	LineNumber     int64      `json:"line_number"`
	ItemNumber     string     `json:"item_number"`
	OrderDetails   FieldMap   `json:"order_details"`
	DeliveryStatus FieldMap   `json:"delivery_status"`
	SizesOrdered   []SizeView `json:"sizes_ordered"`
	SizesDelivered []SizeView `json:"sizes_delivered"`
	SizesPending   []SizeView `json:"sizes_pending"`
}

// Order groups the merged lines under the order header. WithinDateFilter is
// an annotation against the active date window; it never removes the order
// from the result.
type Order struct {
	OrderNumber      int64       `json:"order_number"`
	OrderDate        int         `json:"order_date"`
	OrderStatus      string      `json:"order_status"`
	WithinDateFilter bool        `json:"within_date_filter"`
	OrderLines       []OrderLine `json:"order_lines"`
}

// DateWindow is the inclusive [MinDate, MaxDate] range, both YYYYMMDD.
type DateWindow struct {
	MinDate int `json:"min_date"`
	MaxDate int `json:"max_date"`
}

// Contains reports whether date falls inside the window.
func (w DateWindow) Contains(date int) bool {
	return w.MinDate <= date && date <= w.MaxDate
}

// OrderReport is the response of GET /orders.
type OrderReport struct {
	DateFilter         DateWindow `json:"date_filter"`
	TotalOrdersFetched int        `json:"total_orders_fetched"`
	OrdersWithLines    int        `json:"orders_with_lines"`
	OrdersWithoutLines int        `json:"orders_without_lines"`
	Orders             []Order    `json:"orders"`
}
