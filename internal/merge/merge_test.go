package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tommy2310DK/Aspect4/internal/merge"
	"github.com/tommy2310DK/Aspect4/internal/models"
)

func orderLine(order, line int64, fields models.FieldMap) models.RawOrderLine {
	return models.RawOrderLine{OrderNumber: order, LineNumber: line, Fields: fields}
}

func statusLine(order, line int64, fields models.FieldMap) models.RawStatusLine {
	return models.RawStatusLine{OrderNumber: order, LineNumber: line, Fields: fields}
}

func TestBuildLine(t *testing.T) {
	t.Run("should take the first status line as representative", func(t *testing.T) {
		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret", "faknr": "90001", "antal": float64(5)}),
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret", "faknr": "90002", "antal": float64(3)}),
		}

		line := merge.BuildLine(1, nil, statuses, nil, nil)

		assert.Equal(t, "90001", line.DeliveryStatus["faknr"])
	})

	t.Run("should leave delivery_status empty without status lines", func(t *testing.T) {
		ol := orderLine(4711, 1, models.FieldMap{"t05.far10": "Marine"})

		line := merge.BuildLine(1, &ol, nil, nil, nil)

		assert.Equal(t, models.FieldMap{}, line.DeliveryStatus)
		assert.Equal(t, "Marine", line.OrderDetails["t05.far10"])
	})

	t.Run("should strip identity fields from both maps", func(t *testing.T) {
		ol := orderLine(4711, 1, models.FieldMap{
			"t01.oordre": float64(4711), "t01.oorlin": float64(1),
			"t01.felt1": "1200", "t01.felt2": "JKT", "t01.felt3": "052",
			"t01.felt4": "NAV", "t01.felt5": "76",
			"t05.far10": "Marine",
		})
		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{
				"t01.oordre": float64(4711), "t01.oorlin": float64(1),
				"t01.felt2": "JKT",
				"status":    "Delvis leveret",
			}),
		}

		line := merge.BuildLine(1, &ol, statuses, nil, nil)

		for _, key := range []string{"t01.oordre", "t01.oorlin", "t01.felt1", "t01.felt2"} {
			assert.NotContains(t, line.OrderDetails, key)
			assert.NotContains(t, line.DeliveryStatus, key)
		}
		assert.Equal(t, "Delvis leveret", line.DeliveryStatus["status"])
	})

	t.Run("should derive the expected delivery date from the packed field", func(t *testing.T) {
		ol := orderLine(4711, 1, models.FieldMap{"t01.senlv": float64(20250105)})

		line := merge.BuildLine(1, &ol, nil, nil, nil)

		assert.Equal(t, "2025-01-03", line.OrderDetails["expected_delivery_date"])
		// The raw packed value stays available next to the parsed one.
		assert.Equal(t, float64(20250105), line.OrderDetails["t01.senlv"])
	})

	t.Run("should leave the expected date absent when the packed field is zero or malformed", func(t *testing.T) {
		for _, senlv := range []float64{0, 991} {
			ol := orderLine(4711, 1, models.FieldMap{"t01.senlv": senlv})
			line := merge.BuildLine(1, &ol, nil, nil, nil)
			assert.NotContains(t, line.OrderDetails, "expected_delivery_date")
		}
	})

	t.Run("should compose the item number from the status line first", func(t *testing.T) {
		ol := orderLine(4711, 1, models.FieldMap{
			"t01.felt1": "0000", "t01.felt2": "OLD", "t01.felt3": "000",
			"t01.felt4": "0", "t01.felt5": "0",
		})
		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{
				"t01.felt1": "1200", "t01.felt2": "JKT", "t01.felt3": "052",
				"t01.felt4": "NAV", "t01.felt5": "76",
			}),
		}

		line := merge.BuildLine(1, &ol, statuses, nil, nil)

		assert.Equal(t, "JKT-052-1200-76-NAV", line.ItemNumber)
	})

	t.Run("should attach the three size views", func(t *testing.T) {
		ordered := []models.RawSizeRecord{{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 15}}
		delivered := []models.RawSizeRecord{{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 5}}

		line := merge.BuildLine(1, nil, nil, ordered, delivered)

		require.Len(t, line.SizesPending, 1)
		assert.Equal(t, models.SizeView{Size: "M", Qty: 10}, line.SizesPending[0])
	})
}

func TestDeliveredTotalConservation(t *testing.T) {
	captureWarnings := func(t *testing.T) *observer.ObservedLogs {
		core, logs := observer.New(zap.WarnLevel)
		restore := zap.ReplaceGlobals(zap.New(core))
		t.Cleanup(restore)
		return logs
	}

	t.Run("should warn when delivered sizes exceed the reported total", func(t *testing.T) {
		logs := captureWarnings(t)

		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret", "antal": float64(5)}),
		}
		delivered := []models.RawSizeRecord{
			{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 4},
			{OrderNumber: 4711, LineNumber: 1, Size: "L", Qty: 3},
		}

		line := merge.BuildLine(1, nil, statuses, nil, delivered)

		entries := logs.FilterMessage("delivered size quantities exceed reported delivered total").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, int64(7), fields["sum_of_sizes"])
		assert.Equal(t, int64(5), fields["reported_antal"])

		// The inconsistency is flagged, not fixed.
		require.Len(t, line.SizesDelivered, 2)
		assert.Equal(t, int64(4), line.SizesDelivered[0].Qty)
		assert.Equal(t, int64(3), line.SizesDelivered[1].Qty)
	})

	t.Run("should stay quiet when the sizes respect the reported total", func(t *testing.T) {
		logs := captureWarnings(t)

		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret", "antal": float64(7)}),
		}
		delivered := []models.RawSizeRecord{
			{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 4},
			{OrderNumber: 4711, LineNumber: 1, Size: "L", Qty: 3},
		}

		merge.BuildLine(1, nil, statuses, nil, delivered)

		assert.Equal(t, 0, logs.Len())
	})

	t.Run("should stay quiet when the status line reports no total", func(t *testing.T) {
		logs := captureWarnings(t)

		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret"}),
		}
		delivered := []models.RawSizeRecord{
			{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 4},
		}

		merge.BuildLine(1, nil, statuses, nil, delivered)

		assert.Equal(t, 0, logs.Len())
	})
}

func TestAssembleOrder(t *testing.T) {
	window := models.DateWindow{MinDate: 20250701, MaxDate: 20250831}

	header := models.RawOrderHeader{
		OrderNumber: 4711,
		OrderDate:   20250810,
		Status:      "Delvis leveret",
	}

	t.Run("should group lines with status lines leading", func(t *testing.T) {
		lines := []models.RawOrderLine{
			orderLine(4711, 1, models.FieldMap{}),
			orderLine(4711, 3, models.FieldMap{}),
		}
		statuses := []models.RawStatusLine{
			statusLine(4711, 2, models.FieldMap{"status": "Delvis leveret"}),
			statusLine(4711, 1, models.FieldMap{"status": "Delvis leveret"}),
		}

		order := merge.AssembleOrder(header, lines, statuses, nil, nil, window)

		require.Len(t, order.OrderLines, 3)
		assert.Equal(t, int64(2), order.OrderLines[0].LineNumber)
		assert.Equal(t, int64(1), order.OrderLines[1].LineNumber)
		assert.Equal(t, int64(3), order.OrderLines[2].LineNumber)
	})

	t.Run("should annotate date window membership", func(t *testing.T) {
		inside := merge.AssembleOrder(header, nil, nil, nil, nil, window)
		assert.True(t, inside.WithinDateFilter)

		outside := header
		outside.OrderDate = 20250601
		assert.False(t, merge.AssembleOrder(outside, nil, nil, nil, nil, window).WithinDateFilter)
	})

	t.Run("should emit line-less orders with an empty sequence", func(t *testing.T) {
		order := merge.AssembleOrder(header, nil, nil, nil, nil, window)

		assert.Equal(t, int64(4711), order.OrderNumber)
		assert.Equal(t, "Delvis leveret", order.OrderStatus)
		assert.Empty(t, order.OrderLines)
	})

	t.Run("should ignore records of a different order", func(t *testing.T) {
		lines := []models.RawOrderLine{orderLine(9999, 1, models.FieldMap{})}
		statuses := []models.RawStatusLine{statusLine(9999, 1, models.FieldMap{})}
		foreign := []models.RawSizeRecord{{OrderNumber: 9999, LineNumber: 1, Size: "M", Qty: 1}}

		order := merge.AssembleOrder(header, lines, statuses, foreign, foreign, window)

		assert.Empty(t, order.OrderLines)
	})

	t.Run("should route size records to their line", func(t *testing.T) {
		statuses := []models.RawStatusLine{
			statusLine(4711, 1, models.FieldMap{"antal": float64(5)}),
			statusLine(4711, 2, models.FieldMap{"antal": float64(9)}),
		}
		ordered := []models.RawSizeRecord{
			{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 15},
			{OrderNumber: 4711, LineNumber: 2, Size: "XL", Qty: 9},
		}
		delivered := []models.RawSizeRecord{
			{OrderNumber: 4711, LineNumber: 1, Size: "M", Qty: 5},
			{OrderNumber: 4711, LineNumber: 2, Size: "XL", Qty: 9},
		}

		order := merge.AssembleOrder(header, nil, statuses, ordered, delivered, window)

		require.Len(t, order.OrderLines, 2)
		require.Len(t, order.OrderLines[0].SizesPending, 1)
		assert.Equal(t, models.SizeView{Size: "M", Qty: 10}, order.OrderLines[0].SizesPending[0])
		assert.Empty(t, order.OrderLines[1].SizesPending)
	})
}
