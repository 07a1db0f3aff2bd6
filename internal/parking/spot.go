package parking

type Spot struct {
	ID        int
	Category  Category
	Available bool
}

func NewSpot(id int, category Category, available bool) *Spot {
	return &Spot{
		ID:        id,
		Category:  category,
		Available: available,
	}
}

func (s *Spot) Occupy() {
	s.Available = false
}

func (s *Spot) Free() {
	s.Available = true
}

// SeedSpots lays out the lot: car spots first, then bike spots, ids from 1.
func SeedSpots(carSpots, bikeSpots int) []Spot {
	spots := make([]Spot, 0, carSpots+bikeSpots)
	for i := 0; i < carSpots; i++ {
		spots = append(spots, Spot{ID: len(spots) + 1, Category: CategoryCar, Available: true})
	}
	for i := 0; i < bikeSpots; i++ {
		spots = append(spots, Spot{ID: len(spots) + 1, Category: CategoryBike, Available: true})
	}
	return spots
}
