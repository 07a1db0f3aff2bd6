package parking

import "errors"

var (
	ErrInvalidInterval  = errors.New("invalid interval")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidVehicleID = errors.New("invalid vehicle id")
	ErrNoSpotAvailable  = errors.New("no spot available")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrAlreadyParked    = errors.New("vehicle already parked")
	ErrPersistence      = errors.New("persistence failure")
)

// Message returns a sentence suitable for showing to the person at the gate.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidVehicleID):
		return "Please enter a valid vehicle registration number"
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrUnknownCategory):
		return "Entered vehicle type is invalid"
	case errors.Is(err, ErrNoSpotAvailable):
		return "Sorry, no parking spot is available for this vehicle type"
	case errors.Is(err, ErrAlreadyParked):
		return "This vehicle already has an open ticket"
	case errors.Is(err, ErrTicketNotFound):
		return "No open ticket was found for this vehicle"
	case errors.Is(err, ErrInvalidInterval):
		return "Exit time is before entry time"
	case errors.Is(err, ErrPersistence):
		return "Unable to save parking information, please try again"
	default:
		return "Unexpected error, please try again"
	}
}
