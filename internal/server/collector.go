package server

import (
	"context"
	"time"

	"parking-system/internal/logging"
	"parking-system/internal/parking"

	"github.com/prometheus/client_golang/prometheus"
)

// spotCollector reports free and occupied spots per category at scrape time.
type spotCollector struct {
	lot  parking.Lot
	desc *prometheus.Desc
}

func newSpotCollector(lot parking.Lot) *spotCollector {
	return &spotCollector{
		lot: lot,
		desc: prometheus.NewDesc(
			"parking_spots",
			"Parking spots by category and state.",
			[]string{"category", "state"},
			nil,
		),
	}
}

func (c *spotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *spotCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	spots, err := c.lot.Status(ctx)
	if err != nil {
		logging.Warn(ctx, "spot metrics unavailable", "error", err)
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}

	counts := map[parking.Category]map[string]int{}
	for _, category := range parking.Categories() {
		counts[category] = map[string]int{"free": 0, "occupied": 0}
	}
	for _, spot := range spots {
		state := "occupied"
		if spot.Available {
			state = "free"
		}
		if _, ok := counts[spot.Category]; ok {
			counts[spot.Category][state]++
		}
	}

	for category, states := range counts {
		for state, n := range states {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), category.String(), state)
		}
	}
}
