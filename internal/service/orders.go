package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tommy2310DK/Aspect4/internal/api"
	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
	"github.com/tommy2310DK/Aspect4/internal/logging"
	"github.com/tommy2310DK/Aspect4/internal/merge"
	"github.com/tommy2310DK/Aspect4/internal/models"
	"github.com/tommy2310DK/Aspect4/internal/retry"
	"github.com/tommy2310DK/Aspect4/internal/status"
)

// Gateway is the Aspect4 backend as the pipeline sees it. *api.Client
// implements it; tests substitute a fake.
type Gateway interface {
	Logon(ctx context.Context) (*api.Session, error)
	Logoff(ctx context.Context, sess *api.Session)
	FetchOrderHeaders(ctx context.Context, sess *api.Session, customer, orderNumber string, limit int) ([]models.RawOrderHeader, error)
	FetchOrderLines(ctx context.Context, sess *api.Session, customer string, order int64) ([]models.RawOrderLine, error)
	FetchStatusLines(ctx context.Context, sess *api.Session, customer string, order int64) ([]models.RawStatusLine, error)
	FetchOrderedSizes(ctx context.Context, sess *api.Session, customer string, order int64) ([]models.RawSizeRecord, error)
	FetchDeliveredSizes(ctx context.Context, sess *api.Session, customer string, order int64) ([]models.RawSizeRecord, error)
}

// Options tune the pipeline's fan-out.
type Options struct {
	// MaxConcurrency bounds how many orders are fetched at once.
	MaxConcurrency int
	// FetchTimeout bounds the four retrievals of a single order.
	FetchTimeout time.Duration
	// RetryAttempts bounds retries per backend call.
	RetryAttempts int
	// RetryBaseDelay is the backoff base per retry attempt.
	RetryBaseDelay time.Duration
}

type OrderService struct {
	gateway Gateway
	opts    Options
}

func NewOrderService(gateway Gateway, opts Options) *OrderService {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 5
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 500 * time.Millisecond
	}
	return &OrderService{gateway: gateway, opts: opts}
}

// orderRecords holds the four raw record sets of one order, or the failure
// that kept them from being retrieved.
type orderRecords struct {
	lines     []models.RawOrderLine
	statuses  []models.RawStatusLine
	ordered   []models.RawSizeRecord
	delivered []models.RawSizeRecord
	failed    bool
	fatal     error
}

// HandleOrderQuery runs the reconciliation for one request: fetch the order
// headers, apply the status filter and limit cap, retrieve the four record
// sets per selected order concurrently, and assemble the report.
//
// A failing or timed-out order ends up in orders_without_lines; only a
// batch-wide failure (header fetch, authentication) fails the request.
func (s *OrderService) HandleOrderQuery(ctx context.Context, q *models.OrderQuery, window models.DateWindow) (*models.OrderReport, error) {
	logger := zap.L().With(logging.FieldsFromContext(ctx)...)

	var sess *api.Session
	err := retry.WithRetry(ctx, s.opts.RetryAttempts, s.opts.RetryBaseDelay, func() error {
		var lerr error
		sess, lerr = s.gateway.Logon(ctx)
		return lerr
	})
	if err != nil {
		logger.Error("aspect4 logon failed", zap.Error(err))
		return nil, err
	}
	defer func() {
		// Release the session even when the request context is already gone.
		logoffCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		s.gateway.Logoff(logoffCtx, sess)
	}()

	// With a status filter the cap applies after filtering, so search deep
	// enough to still fill the limit with matches.
	searchLimit := q.Limit
	if q.OrderStatus != "" && searchLimit < 1000 {
		searchLimit = 1000
	}

	var headers []models.RawOrderHeader
	err = retry.WithRetry(ctx, s.opts.RetryAttempts, s.opts.RetryBaseDelay, func() error {
		var ferr error
		headers, ferr = s.gateway.FetchOrderHeaders(ctx, sess, q.CustomerNumber, q.OrderNumber, searchLimit)
		return ferr
	})
	if err != nil {
		logger.Error("order header fetch failed", zap.Error(err))
		return nil, err
	}

	logger.Info("order headers fetched",
		zap.Int("total_orders", len(headers)),
		zap.Int("min_date", window.MinDate),
		zap.Int("max_date", window.MaxDate),
	)

	matches := status.Resolve(q.OrderStatus)
	selected := make([]models.RawOrderHeader, 0, q.Limit)
	for _, h := range headers {
		if !matches(h.Status) {
			continue
		}
		selected = append(selected, h)
		if len(selected) == q.Limit {
			break
		}
	}

	results := make([]orderRecords, len(selected))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.opts.MaxConcurrency)

	for i := range selected {
		select {
		case <-ctx.Done():
			// Orders not yet fetched are reported without lines rather than
			// failing the whole request.
			for j := i; j < len(selected); j++ {
				results[j].failed = true
			}
			logger.Warn("request cancelled mid-batch",
				zap.Int("orders_fetched", i),
				zap.Int("orders_remaining", len(selected)-i),
			)
		default:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, header models.RawOrderHeader) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = s.fetchOrderRecords(ctx, sess, q.CustomerNumber, header.OrderNumber, logger)
		}(i, selected[i])
	}

	wg.Wait()

	for _, res := range results {
		if res.fatal != nil {
			logger.Error("batch-wide backend failure", zap.Error(res.fatal))
			return nil, res.fatal
		}
	}

	report := &models.OrderReport{
		DateFilter:         window,
		TotalOrdersFetched: len(headers),
		Orders:             make([]models.Order, 0, len(selected)),
	}

	// Assembly runs in fetch order regardless of completion order.
	for i, header := range selected {
		res := results[i]
		order := merge.AssembleOrder(header, res.lines, res.statuses, res.ordered, res.delivered, window)
		if len(order.OrderLines) > 0 {
			report.OrdersWithLines++
		} else {
			report.OrdersWithoutLines++
		}
		report.Orders = append(report.Orders, order)
	}

	logger.Info("reconciliation completed",
		zap.Int("total_orders_fetched", report.TotalOrdersFetched),
		zap.Int("orders_with_lines", report.OrdersWithLines),
		zap.Int("orders_without_lines", report.OrdersWithoutLines),
	)

	return report, nil
}

// fetchOrderRecords retrieves the four record sets of one order in
// parallel, under the per-order timeout. Any failure degrades the order to
// "no data"; only an authentication failure escalates to the batch.
func (s *OrderService) fetchOrderRecords(ctx context.Context, sess *api.Session, customer string, order int64, logger *zap.Logger) orderRecords {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	var res orderRecords
	errs := make([]error, 4)
	var wg sync.WaitGroup

	run := func(slot int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[slot] = retry.WithRetry(fetchCtx, s.opts.RetryAttempts, s.opts.RetryBaseDelay, fn)
		}()
	}

	run(0, func() error {
		lines, err := s.gateway.FetchOrderLines(fetchCtx, sess, customer, order)
		if err == nil {
			res.lines = lines
		}
		return err
	})
	run(1, func() error {
		statuses, err := s.gateway.FetchStatusLines(fetchCtx, sess, customer, order)
		if err == nil {
			res.statuses = statuses
		}
		return err
	})
	run(2, func() error {
		ordered, err := s.gateway.FetchOrderedSizes(fetchCtx, sess, customer, order)
		if err == nil {
			res.ordered = ordered
		}
		return err
	})
	run(3, func() error {
		delivered, err := s.gateway.FetchDeliveredSizes(fetchCtx, sess, customer, order)
		if err == nil {
			res.delivered = delivered
		}
		return err
	})

	wg.Wait()

	for _, err := range errs {
		if err == nil {
			continue
		}
		if apperrors.IsAuth(err) {
			res.fatal = err
		}
		if !res.failed {
			logger.Warn("order degraded to no data",
				zap.Int64("order_number", order),
				zap.Error(err),
			)
		}
		res.failed = true
	}

	if res.failed {
		// Partial record sets would mis-join; report the order without data.
		res.lines, res.statuses, res.ordered, res.delivered = nil, nil, nil, nil
	}

	return res
}
