package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const timeLayout = "2006-01-02 15:04:05"

// Shell is the interactive gate menu.
type Shell struct {
	lot     Lot
	scanner *bufio.Scanner
	out     io.Writer
	tracer  trace.Tracer
}

func NewShell(lot Lot, in io.Reader, out io.Writer, tracer trace.Tracer) *Shell {
	return &Shell{
		lot:     lot,
		scanner: bufio.NewScanner(in),
		out:     out,
		tracer:  tracer,
	}
}

func (s *Shell) Run(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	s.println("Welcome to Parking System!")

	for {
		if ctx.Err() != nil {
			break
		}

		s.printMenu()
		input, ok := s.readLine()
		if !ok {
			break
		}
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := s.tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		keepRunning := s.processCommand(cmdCtx, input)
		cmdSpan.End()

		if !keepRunning {
			break
		}
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) printMenu() {
	s.println("Please select an option. Simply enter the number to choose an action")
	s.println("1 New Vehicle Entering - Allocate Parking Space")
	s.println("2 Vehicle Exiting - Generate Ticket Price")
	s.println("3 Shutdown System")
}

func (s *Shell) processCommand(ctx context.Context, input string) bool {
	span := trace.SpanFromContext(ctx)

	switch strings.ToLower(input) {
	case "1":
		s.handleEntry(ctx)
	case "2":
		s.handleExit(ctx)
	case "3":
		s.println("Exiting from the system!")
		return false
	case "status":
		s.handleStatus(ctx)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", input),
		))
		s.println("Unsupported option. Please enter a number corresponding to the provided menu")
	}
	return true
}

func (s *Shell) handleEntry(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.entry_command")
	defer span.End()

	s.println("Please select vehicle type from menu")
	s.println("1 CAR")
	s.println("2 BIKE")

	category, err := CategoryFromSelection(s.readSelection())
	if err != nil {
		span.AddEvent("invalid_vehicle_type")
		s.println(Message(err))
		return
	}

	vehicleID, ok := s.readVehicleID()
	if !ok {
		span.AddEvent("invalid_registration_number")
		s.println(Message(ErrInvalidVehicleID))
		return
	}

	span.SetAttributes(
		attribute.String("vehicle.registration_number", vehicleID),
		attribute.String("vehicle.category", category.String()),
	)

	receipt, err := s.lot.Park(ctx, category, vehicleID)
	if err != nil {
		span.AddEvent("entry_failed")
		s.println(Message(err))
		return
	}

	ticket := receipt.Ticket
	if receipt.Returning {
		s.println("Welcome back! Thank you for being a regular user of our parking.")
	}
	span.AddEvent("entry_successful", trace.WithAttributes(
		attribute.Int("allocated_spot", ticket.Spot.ID),
	))
	s.printf("Please park your vehicle in spot number: %d\n", ticket.Spot.ID)
	s.printf("Recorded in-time for vehicle number: %s is: %s\n", ticket.VehicleID, ticket.InTime.Format(timeLayout))
}

func (s *Shell) handleExit(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.exit_command")
	defer span.End()

	vehicleID, ok := s.readVehicleID()
	if !ok {
		span.AddEvent("invalid_registration_number")
		s.println(Message(ErrInvalidVehicleID))
		return
	}

	span.SetAttributes(attribute.String("vehicle.registration_number", vehicleID))

	receipt, err := s.lot.Leave(ctx, vehicleID)
	if receipt == nil {
		span.AddEvent("exit_failed")
		s.println(Message(err))
		return
	}

	ticket := receipt.Ticket
	if receipt.Discounted {
		s.println("As a regular user of our parking, you receive a 5% discount.")
	}
	s.printf("Please pay the parking fare: %.2f\n", ticket.Price)
	s.printf("Recorded out-time for vehicle number: %s is: %s\n", ticket.VehicleID, ticket.OutTime.Format(timeLayout))

	if errors.Is(err, ErrPersistence) {
		span.AddEvent("spot_release_pending")
		s.printf("Spot %d could not be marked free yet. Please notify the attendant.\n", ticket.Spot.ID)
		return
	}
	span.AddEvent("exit_successful")
}

func (s *Shell) handleStatus(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "shell.status_command")
	defer span.End()

	spots, err := s.lot.Status(ctx)
	if err != nil {
		span.AddEvent("status_failed")
		s.println(Message(err))
		return
	}

	span.SetAttributes(attribute.Int("spots_count", len(spots)))

	s.println("Spot No.\tType\tStatus")
	for _, spot := range spots {
		status := "occupied"
		if spot.Available {
			status = "free"
		}
		s.printf("%d\t\t%s\t%s\n", spot.ID, spot.Category, status)
	}
}

// readSelection returns -1 when the line is not a number.
func (s *Shell) readSelection() int {
	line, ok := s.readLine()
	if !ok {
		return -1
	}
	selection, err := strconv.Atoi(line)
	if err != nil {
		return -1
	}
	return selection
}

func (s *Shell) readVehicleID() (string, bool) {
	s.println("Please type the vehicle registration number and press enter key")
	line, ok := s.readLine()
	if !ok {
		return "", false
	}
	vehicleID, err := NormalizeVehicleID(line)
	if err != nil {
		return "", false
	}
	return vehicleID, true
}

func (s *Shell) readLine() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

