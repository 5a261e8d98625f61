package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles Prometheus metrics for the simulation loop and provides
// a ready-to-mount /metrics handler.
type SimCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal       prometheus.Counter
	TickDuration     prometheus.Histogram
	KeplerIterations prometheus.Histogram
	PredictionsTotal prometheus.Counter

	Bodies prometheus.Gauge
	Ships  prometheus.Gauge
}

// NewSimCollector registers simulation Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of simulation steps executed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation step in seconds.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	kepler, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_kepler_iterations",
		Help:    "Newton-Raphson iterations needed per Kepler equation solve.",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}), "sim_kepler_iterations")
	if err != nil {
		return nil, err
	}

	predictions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_predictions_total",
		Help: "Total number of trajectory prediction points computed.",
	}), "sim_predictions_total")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_bodies",
		Help: "Current number of celestial bodies in the knowledge base.",
	}), "sim_bodies")
	if err != nil {
		return nil, err
	}
	ships, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_ships",
		Help: "Current number of ships in the knowledge base.",
	}), "sim_ships")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:         gatherer,
		TicksTotal:       ticks,
		TickDuration:     duration,
		KeplerIterations: kepler,
		PredictionsTotal: predictions,
		Bodies:           bodies,
		Ships:            ships,
	}, nil
}

// ObserveStep records a completed simulation step and its wall-clock duration.
func (c *SimCollector) ObserveStep(d time.Duration) {
	if c == nil {
		return
	}
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

// ObserveKeplerIterations records the iteration count of one orbit solve.
func (c *SimCollector) ObserveKeplerIterations(n int) {
	if c == nil || c.KeplerIterations == nil {
		return
	}
	c.KeplerIterations.Observe(float64(n))
}

// AddPredictions counts freshly computed prediction points.
func (c *SimCollector) AddPredictions(n int) {
	if c == nil || c.PredictionsTotal == nil || n <= 0 {
		return
	}
	c.PredictionsTotal.Add(float64(n))
}

// SetEntityCounts drives the body and ship gauges from the simulation loop.
func (c *SimCollector) SetEntityCounts(bodies, ships int) {
	if c == nil {
		return
	}
	if c.Bodies != nil {
		c.Bodies.Set(float64(bodies))
	}
	if c.Ships != nil {
		c.Ships.Set(float64(ships))
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
