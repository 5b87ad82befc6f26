// internal/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/clink-feb/internal/poller"
	"github.com/tamzrod/clink-feb/internal/sem"
	"github.com/tamzrod/clink-feb/internal/xadc"
)

// Metrics holds the SEM monitor collectors for every lane.
type Metrics struct {
	SemStatus      *prometheus.GaugeVec
	SemFlag        *prometheus.GaugeVec
	SemHeartbeat   *prometheus.GaugeVec
	SemCounterRaw  *prometheus.GaugeVec
	SemEventsTotal *prometheus.CounterVec
	PollsTotal     *prometheus.CounterVec
	PollErrors     *prometheus.CounterVec
	FebTemperature *prometheus.GaugeVec
	FebVoltage     *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SemStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_sem_status_code",
				Help: "Raw SEM status code of the last successful poll",
			},
			[]string{"lane", "device"},
		),
		SemFlag: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_sem_flag",
				Help: "SEM status flags (essential, uncorrectable), 1 when set",
			},
			[]string{"lane", "device", "flag"},
		),
		SemHeartbeat: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_sem_heartbeat",
				Help: "SEM heartbeat counter",
			},
			[]string{"lane", "device"},
		),
		SemCounterRaw: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_sem_counter_raw",
				Help: "Raw 12-bit SEM event counter as read from the device",
			},
			[]string{"lane", "device", "counter"},
		),
		SemEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clink_feb_sem_events_total",
				Help: "SEM events accumulated across 12-bit counter overflow",
			},
			[]string{"lane", "device", "counter"},
		),
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clink_feb_sem_polls_total",
				Help: "Number of SEM poll cycles",
			},
			[]string{"lane", "device"},
		),
		PollErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clink_feb_sem_poll_errors_total",
				Help: "Number of failed SEM poll cycles",
			},
			[]string{"lane", "device"},
		),
		FebTemperature: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_temperature_celsius",
				Help: "FPGA die temperature from the XADC",
			},
			[]string{"lane", "device"},
		),
		FebVoltage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clink_feb_voltage_volts",
				Help: "FPGA supply rails from the XADC",
			},
			[]string{"lane", "device", "rail"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.SemStatus, m.SemFlag, m.SemHeartbeat, m.SemCounterRaw, m.SemEventsTotal,
		m.PollsTotal, m.PollErrors, m.FebTemperature, m.FebVoltage,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePoll records one poll result.
func (m *Metrics) ObservePoll(res poller.PollResult) {
	lane := strconv.Itoa(res.Lane)

	m.PollsTotal.WithLabelValues(lane, res.Name).Inc()
	if res.Err != nil {
		m.PollErrors.WithLabelValues(lane, res.Name).Inc()
		return
	}

	m.SemStatus.WithLabelValues(lane, res.Name).Set(float64(res.Status.Code))
	m.SemFlag.WithLabelValues(lane, res.Name, "essential").Set(b2f(res.Status.Essential))
	m.SemFlag.WithLabelValues(lane, res.Name, "uncorrectable").Set(b2f(res.Status.Uncorrectable))
	m.SemHeartbeat.WithLabelValues(lane, res.Name).Set(float64(res.Heartbeat))

	for i := 0; i < sem.NumCounters; i++ {
		name := sem.CounterName(i)
		m.SemCounterRaw.WithLabelValues(lane, res.Name, name).Set(float64(res.Counters[i]))
		m.SemEventsTotal.WithLabelValues(lane, res.Name, name).Add(float64(res.Deltas[i]))
	}
}

// ObserveXadc records one XADC reading.
func (m *Metrics) ObserveXadc(lane int, device string, r xadc.Reading) {
	l := strconv.Itoa(lane)
	m.FebTemperature.WithLabelValues(l, device).Set(r.TemperatureC)
	m.FebVoltage.WithLabelValues(l, device, "vccint").Set(r.VccInt)
	m.FebVoltage.WithLabelValues(l, device, "vccaux").Set(r.VccAux)
	m.FebVoltage.WithLabelValues(l, device, "vccbram").Set(r.VccBram)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
