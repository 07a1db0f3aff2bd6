package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"parking-system/internal/logging"
	"parking-system/internal/parking"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	lot         parking.Lot
	serviceName string
}

func NewHandler(lot parking.Lot, serviceName string) *Handler {
	return &Handler{
		lot:         lot,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) EnterVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := requestedCategory(req)
	if err != nil {
		WriteError(ctx, w, statusFor(err), parking.Message(err))
		return
	}

	receipt, err := h.lot.Park(ctx, category, req.VehicleID)
	if err != nil {
		logging.Warn(ctx, "vehicle entry rejected", "vehicle", req.VehicleID, "error", err)
		WriteError(ctx, w, statusFor(err), parking.Message(err))
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Vehicle parked successfully", EntryResponse{
		TicketResponse: newTicketResponse(receipt.Ticket),
		Returning:      receipt.Returning,
	})
}

func (h *Handler) ExitVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := h.lot.Leave(ctx, req.VehicleID)
	if receipt == nil {
		logging.Warn(ctx, "vehicle exit rejected", "vehicle", req.VehicleID, "error", err)
		WriteError(ctx, w, statusFor(err), parking.Message(err))
		return
	}

	data := ExitResponse{
		TicketResponse: newTicketResponse(receipt.Ticket),
		Discounted:     receipt.Discounted,
	}

	if err != nil {
		// Ticket is closed and priced; only the spot release is pending.
		WriteJSON(w, http.StatusAccepted, Response{
			Success: true,
			Message: "Ticket closed, spot release pending",
			Data:    data,
			Error:   parking.Message(err),
			Meta:    extractMeta(ctx),
		})
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Ticket closed", data)
}

func (h *Handler) FindTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicleID := chi.URLParam(r, "vehicle")
	ticket, err := h.lot.FindOpenTicket(ctx, vehicleID)
	if err != nil {
		WriteError(ctx, w, statusFor(err), parking.Message(err))
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Ticket found", newTicketResponse(ticket))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spots, err := h.lot.Status(ctx)
	if err != nil {
		WriteError(ctx, w, statusFor(err), parking.Message(err))
		return
	}

	response := StatusResponse{
		Capacity: len(spots),
		Spots:    make([]SpotStatus, 0, len(spots)),
	}
	for _, spot := range spots {
		if spot.Available {
			response.Available++
		} else {
			response.Occupied++
		}
		response.Spots = append(response.Spots, SpotStatus{
			SpotNumber: spot.ID,
			Category:   spot.Category.String(),
			Available:  spot.Available,
		})
	}

	WriteSuccess(ctx, w, http.StatusOK, "Status retrieved successfully", response)
}

func requestedCategory(req EntryRequest) (parking.Category, error) {
	if req.Category == "" && req.Selection != 0 {
		return parking.CategoryFromSelection(req.Selection)
	}
	return parking.ParseCategory(req.Category)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrInvalidVehicleID),
		errors.Is(err, parking.ErrInvalidCategory),
		errors.Is(err, parking.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrNoSpotAvailable), errors.Is(err, parking.ErrAlreadyParked):
		return http.StatusConflict
	case errors.Is(err, parking.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
