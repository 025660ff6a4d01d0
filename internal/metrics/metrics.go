// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/snapshot"
)

// Metrics holds every collector on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	polls        *prometheus.CounterVec
	writes       *prometheus.CounterVec
	pollDuration prometheus.Gauge
	health       prometheus.Gauge

	counters *prometheus.GaugeVec
	battery  *prometheus.GaugeVec
	signal   *prometheus.GaugeVec
	leak     *prometheus.GaugeVec
	zone     *prometheus.GaugeVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neptun_polls_total",
			Help: "Poll cycles by result.",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neptun_writes_total",
			Help: "Register writes by operation and result.",
		}, []string{"op", "result"}),
		pollDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neptun_poll_duration_seconds",
			Help: "Duration of the last poll cycle.",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neptun_health",
			Help: "Device health code (0 unknown, 1 ok, 2 error, 3 stale, 4 disabled).",
		}),
		counters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neptun_water_counter_m3",
			Help: "Water counter reading in cubic meters.",
		}, []string{"slot", "port"}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neptun_wireless_battery_percent",
			Help: "Wireless sensor battery level.",
		}, []string{"sensor"}),
		signal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neptun_wireless_signal_percent",
			Help: "Wireless sensor signal level.",
		}, []string{"sensor"}),
		leak: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neptun_leak_line_active",
			Help: "1 when a wired leak line reports water.",
		}, []string{"line"}),
		zone: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neptun_zone_open",
			Help: "1 when the zone valves are open.",
		}, []string{"zone"}),
	}

	m.reg.MustRegister(
		m.polls, m.writes, m.pollDuration, m.health,
		m.counters, m.battery, m.signal, m.leak, m.zone,
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObservePoll records one poll cycle outcome.
func (m *Metrics) ObservePoll(err error, d time.Duration) {
	m.polls.WithLabelValues(result(err)).Inc()
	m.pollDuration.Set(d.Seconds())
}

// ObserveWrite records one write attempt. Matches session.Config.OnWrite.
func (m *Metrics) ObserveWrite(op string, err error) {
	m.writes.WithLabelValues(op, result(err)).Inc()
}

// SetHealth publishes the status health code.
func (m *Metrics) SetHealth(h uint16) {
	m.health.Set(float64(h))
}

// Observe updates the device gauges from a snapshot.
func (m *Metrics) Observe(s *snapshot.Snapshot) {
	if s == nil {
		return
	}

	for i := 1; i <= registers.Counters; i++ {
		v, ok := s.Float(registers.WaterCounterKey(i))
		if !ok {
			continue
		}
		slot, port := registers.WaterCounterSlotPort(i)
		m.counters.WithLabelValues(strconv.Itoa(slot), strconv.Itoa(port)).Set(v)
	}

	// sensors can disappear between polls
	m.battery.Reset()
	m.signal.Reset()
	for _, i := range s.InstalledWirelessSensors() {
		id := strconv.Itoa(i)
		if v, ok := s.Int("wireless_" + id + "_battery"); ok {
			m.battery.WithLabelValues(id).Set(float64(v))
		}
		if v, ok := s.Int("wireless_" + id + "_signal"); ok {
			m.signal.WithLabelValues(id).Set(float64(v))
		}
	}

	if raw, ok := s.Raw("leak_sensor_raw"); ok {
		m.leak.Reset()
		for _, line := range s.DetectedLeakLines() {
			m.leak.WithLabelValues(strconv.Itoa(line)).Set(bit(raw&(1<<uint(line-1)) != 0))
		}
	}

	if alarm, ok := s.Raw("alarm_mode_raw"); ok {
		m.zone.WithLabelValues("1").Set(bit(alarm&registers.BitZone1 != 0))
		m.zone.WithLabelValues("2").Set(bit(alarm&registers.BitZone2 != 0))
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
