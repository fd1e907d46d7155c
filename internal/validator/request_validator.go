package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/tommy2310DK/Aspect4/internal/dates"
	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
	"github.com/tommy2310DK/Aspect4/internal/models"
)

// RequestValidator checks /orders query parameters for format and
// consistency before any backend call is made.
type RequestValidator struct {
	customerRegex *regexp.Regexp
	orderRegex    *regexp.Regexp
}

// NewRequestValidator creates a new RequestValidator instance.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		// Aspect4 customer numbers are zero-padded digit strings, e.g. "010000020".
		customerRegex: regexp.MustCompile(`^\d{1,10}$`),
		orderRegex:    regexp.MustCompile(`^\d{1,10}$`),
	}
}

// ValidateQuery validates the query, fills in defaults and computes the
// active date window. The days parameter and an explicit start/end range
// are mutually exclusive; without either, the window is the last 30 days.
func (v *RequestValidator) ValidateQuery(q *models.OrderQuery, now time.Time) (models.DateWindow, *apperrors.AppError) {
	if q.CustomerNumber == "" {
		return models.DateWindow{}, apperrors.ErrValidation("customer_number is required", nil)
	}
	if !v.customerRegex.MatchString(q.CustomerNumber) {
		return models.DateWindow{}, apperrors.ErrValidation("customer_number must be a digit string of up to 10 characters", nil)
	}

	if q.OrderNumber != "" && !v.orderRegex.MatchString(q.OrderNumber) {
		return models.DateWindow{}, apperrors.ErrValidation("order_number must be a digit string", nil)
	}

	if q.Limit < 0 {
		return models.DateWindow{}, apperrors.ErrValidation("limit must be positive", nil)
	}
	if q.Limit == 0 {
		q.Limit = models.DefaultLimit
	}

	hasRange := q.StartDate != "" || q.EndDate != ""
	if q.Days != 0 && hasRange {
		return models.DateWindow{}, apperrors.ErrValidation("cannot specify both date range (start_date/end_date) and days parameter", nil)
	}
	if q.Days < 0 {
		return models.DateWindow{}, apperrors.ErrValidation("days must be positive", nil)
	}

	switch {
	case hasRange:
		if q.StartDate == "" || q.EndDate == "" {
			return models.DateWindow{}, apperrors.ErrValidation("start_date and end_date must be supplied together", nil)
		}
		minDate, err := dates.ParsePlainDate(q.StartDate)
		if err != nil {
			return models.DateWindow{}, apperrors.ErrValidation(fmt.Sprintf("start_date %q is not a valid YYYYMMDD date", q.StartDate), err)
		}
		maxDate, err := dates.ParsePlainDate(q.EndDate)
		if err != nil {
			return models.DateWindow{}, apperrors.ErrValidation(fmt.Sprintf("end_date %q is not a valid YYYYMMDD date", q.EndDate), err)
		}
		if minDate > maxDate {
			return models.DateWindow{}, apperrors.ErrValidation("start_date must not be after end_date", nil)
		}
		return models.DateWindow{MinDate: minDate, MaxDate: maxDate}, nil

	case q.Days > 0:
		return models.DateWindow{
			MinDate: dates.PlainDate(now.AddDate(0, 0, -q.Days)),
			MaxDate: dates.PlainDate(now),
		}, nil

	default:
		// No window requested: last 30 days.
		return models.DateWindow{
			MinDate: dates.PlainDate(now.AddDate(0, 0, -30)),
			MaxDate: dates.PlainDate(now),
		}, nil
	}
}
