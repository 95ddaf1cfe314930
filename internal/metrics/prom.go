package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors holds the Prometheus metrics exposed on /metrics.
type Collectors struct {
	registry *prometheus.Registry

	Calculations   *prometheus.CounterVec
	Duration       prometheus.Histogram
	MissingRecipes prometheus.Counter
	RecipeChanges  *prometheus.CounterVec
}

// NewCollectors builds the collectors on their own registry, together with
// the Go runtime and process collectors.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),

		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafeteria_calculations_total",
				Help: "Order calculations by source and result",
			},
			[]string{"source", "result"},
		),

		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cafeteria_calculation_duration_seconds",
				Help:    "Time spent calculating an order",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		MissingRecipes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cafeteria_missing_recipes_total",
				Help: "Menu slots referencing a recipe absent from the catalog",
			},
		),

		RecipeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cafeteria_recipe_changes_total",
				Help: "Catalog mutations by operation",
			},
			[]string{"op"},
		),
	}

	c.registry.MustRegister(
		c.Calculations,
		c.Duration,
		c.MissingRecipes,
		c.RecipeChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveCalculation records one finished calculation.
func (c *Collectors) ObserveCalculation(source string, elapsed time.Duration, missing int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Calculations.WithLabelValues(source, result).Inc()
	c.Duration.Observe(elapsed.Seconds())
	c.MissingRecipes.Add(float64(missing))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
