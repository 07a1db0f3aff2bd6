package parking

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryCar  Category = "CAR"
	CategoryBike Category = "BIKE"
)

const (
	CarRatePerHour  = 1.5
	BikeRatePerHour = 1.0
)

// hourlyRates must hold one entry per Category constant.
var hourlyRates = map[Category]float64{
	CategoryCar:  CarRatePerHour,
	CategoryBike: BikeRatePerHour,
}

func Categories() []Category {
	return []Category{CategoryCar, CategoryBike}
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := hourlyRates[c]
	return ok
}

func HourlyRate(c Category) (float64, error) {
	rate, ok := hourlyRates[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return rate, nil
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// CategoryFromSelection maps the numbered vehicle type menu (1 CAR, 2 BIKE).
func CategoryFromSelection(selection int) (Category, error) {
	switch selection {
	case 1:
		return CategoryCar, nil
	case 2:
		return CategoryBike, nil
	default:
		return "", fmt.Errorf("%w: selection %d", ErrInvalidCategory, selection)
	}
}
