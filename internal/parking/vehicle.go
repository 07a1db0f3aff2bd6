package parking

import "strings"

// NormalizeVehicleID trims the registration number and rejects empty input.
func NormalizeVehicleID(vehicleID string) (string, error) {
	id := strings.TrimSpace(vehicleID)
	if id == "" {
		return "", ErrInvalidVehicleID
	}
	return id, nil
}
