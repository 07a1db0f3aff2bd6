package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"parking-system/internal/parking"

	"go.opentelemetry.io/otel/trace"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// EntryRequest accepts either a category name or the numbered menu selection.
type EntryRequest struct {
	VehicleID string `json:"vehicle_id"`
	Category  string `json:"category,omitempty"`
	Selection int    `json:"selection,omitempty"`
}

type ExitRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type TicketResponse struct {
	TicketID   int        `json:"ticket_id"`
	SpotNumber int        `json:"spot_number"`
	Category   string     `json:"category"`
	VehicleID  string     `json:"vehicle_id"`
	Price      float64    `json:"price"`
	InTime     time.Time  `json:"in_time"`
	OutTime    *time.Time `json:"out_time,omitempty"`
	State      string     `json:"state"`
}

type EntryResponse struct {
	TicketResponse
	Returning bool `json:"returning"`
}

type ExitResponse struct {
	TicketResponse
	Discounted bool `json:"discounted"`
}

type SpotStatus struct {
	SpotNumber int    `json:"spot_number"`
	Category   string `json:"category"`
	Available  bool   `json:"available"`
}

type StatusResponse struct {
	Capacity  int          `json:"capacity"`
	Occupied  int          `json:"occupied"`
	Available int          `json:"available"`
	Spots     []SpotStatus `json:"spots"`
}

func newTicketResponse(t *parking.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:   t.ID,
		SpotNumber: t.Spot.ID,
		Category:   t.Spot.Category.String(),
		VehicleID:  t.VehicleID,
		Price:      t.Price,
		InTime:     t.InTime,
		OutTime:    t.OutTime,
		State:      string(t.State()),
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
