package parking

import "time"

type TicketState string

const (
	TicketOpen   TicketState = "OPEN"
	TicketClosed TicketState = "CLOSED"
)

type Ticket struct {
	ID        int
	Spot      Spot
	VehicleID string
	Price     float64
	InTime    time.Time
	OutTime   *time.Time
}

func (t *Ticket) State() TicketState {
	if t.OutTime == nil {
		return TicketOpen
	}
	return TicketClosed
}

// Duration is zero while the ticket is open.
func (t *Ticket) Duration() time.Duration {
	if t.OutTime == nil {
		return 0
	}
	return t.OutTime.Sub(t.InTime)
}
