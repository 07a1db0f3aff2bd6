package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedParkingLot struct {
	*ParkingLot
	tracer trace.Tracer

	// Metrics
	entryOperations   metric.Int64Counter
	exitOperations    metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	fareAmount        metric.Float64Histogram
}

func NewInstrumentedParkingLot(lot *ParkingLot, tracer trace.Tracer, meter metric.Meter) (*InstrumentedParkingLot, error) {
	entryOperations, err := meter.Int64Counter("parking_entry_operations_total",
		metric.WithDescription("Total number of vehicle entry operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("parking_exit_operations_total",
		metric.WithDescription("Total number of vehicle exit operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("parking_operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	fareAmount, err := meter.Float64Histogram("parking_fare_amount",
		metric.WithDescription("Fare charged when a ticket is closed"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedParkingLot{
		ParkingLot:        lot,
		tracer:            tracer,
		entryOperations:   entryOperations,
		exitOperations:    exitOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		fareAmount:        fareAmount,
	}, nil
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, category Category, vehicleID string) (*EntryReceipt, error) {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", vehicleID),
			attribute.String("vehicle.category", category.String()),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("reserving_spot")

	receipt, err := ipl.ParkingLot.Park(ctx, category, vehicleID)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_category", category.String()),
	}

	if err != nil {
		recordFailure(span, err)
		labels = append(labels, attribute.String("status", outcome(err)))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int("ticket.id", receipt.Ticket.ID),
			attribute.Int("allocated_spot_number", receipt.Ticket.Spot.ID),
			attribute.Bool("vehicle.returning", receipt.Returning),
		)
		span.AddEvent("spot_allocated", trace.WithAttributes(
			attribute.Int("spot_number", receipt.Ticket.Spot.ID),
		))
		ipl.occupancyGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("vehicle_category", category.String())))
	}

	ipl.entryOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return receipt, err
}

func (ipl *InstrumentedParkingLot) Leave(ctx context.Context, vehicleID string) (*ExitReceipt, error) {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.leave",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", vehicleID),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("closing_ticket")

	receipt, err := ipl.ParkingLot.Leave(ctx, vehicleID)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "leave"),
	}

	if receipt != nil {
		ticket := receipt.Ticket
		category := ticket.Spot.Category.String()
		labels = append(labels, attribute.String("vehicle_category", category))
		span.SetAttributes(
			attribute.Int("ticket.id", ticket.ID),
			attribute.Int("spot_number", ticket.Spot.ID),
			attribute.Float64("ticket.price", ticket.Price),
			attribute.Float64("ticket.duration_hours", ticket.Duration().Hours()),
			attribute.Bool("ticket.discounted", receipt.Discounted),
		)
		// The ticket is closed even when the spot release failed.
		ipl.fareAmount.Record(ctx, ticket.Price, metric.WithAttributes(
			attribute.String("vehicle_category", category),
			attribute.Bool("discounted", receipt.Discounted),
		))
		// The spot is only free once the release was persisted.
		if err == nil {
			ipl.occupancyGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("vehicle_category", category)))
		}
	}

	if err != nil {
		recordFailure(span, err)
		labels = append(labels, attribute.String("status", outcome(err)))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.AddEvent("spot_released")
	}

	ipl.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return receipt, err
}

func (ipl *InstrumentedParkingLot) FindOpenTicket(ctx context.Context, vehicleID string) (*Ticket, error) {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.find_open_ticket",
		trace.WithAttributes(
			attribute.String("vehicle.registration_number", vehicleID),
		))
	defer span.End()

	start := time.Now()

	ticket, err := ipl.ParkingLot.FindOpenTicket(ctx, vehicleID)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "find_open_ticket"),
	}

	if err != nil {
		span.AddEvent("ticket_not_found")
		labels = append(labels, attribute.String("status", outcome(err)))
	} else {
		span.SetAttributes(attribute.Int("found_spot_number", ticket.Spot.ID))
		labels = append(labels, attribute.String("status", "found"))
	}

	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return ticket, err
}

func (ipl *InstrumentedParkingLot) Status(ctx context.Context) ([]Spot, error) {
	ctx, span := ipl.tracer.Start(ctx, "parking_lot.status")
	defer span.End()

	start := time.Now()

	spots, err := ipl.ParkingLot.Status(ctx)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "status"),
	}

	if err != nil {
		recordFailure(span, err)
		labels = append(labels, attribute.String("status", outcome(err)))
	} else {
		occupied := 0
		for _, spot := range spots {
			if !spot.Available {
				occupied++
			}
		}
		span.SetAttributes(
			attribute.Int("occupied_spots_count", occupied),
			attribute.Int("total_spots", len(spots)),
		)
		labels = append(labels, attribute.String("status", "success"))
	}

	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return spots, err
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// outcome buckets errors into a small, fixed set of metric label values.
func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNoSpotAvailable):
		return "no_spot"
	case errors.Is(err, ErrTicketNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	case errors.Is(err, ErrInvalidVehicleID), errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrInvalidInterval):
		return "invalid"
	default:
		return "failed"
	}
}
