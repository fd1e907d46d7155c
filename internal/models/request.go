package models

// OrderQuery holds the parameters of one GET /orders request.
type OrderQuery struct {
	CustomerNumber string
	OrderNumber    string
	Days           int
	StartDate      string
	EndDate        string
	Limit          int
	OrderStatus    string
}

// DefaultLimit caps the result set when the caller does not ask for one.
const DefaultLimit = 50
