package metrics

import "github.com/prometheus/client_golang/prometheus"

// VaultMetrics counts review commands and their outcomes.
type VaultMetrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// NewVaultMetrics registers the collectors with reg, or the default registerer if nil.
func NewVaultMetrics(reg prometheus.Registerer) *VaultMetrics {
	m := &VaultMetrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redactvault",
			Subsystem: "vault",
			Name:      "commands_total",
			Help:      "Vault commands by kind and outcome",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redactvault",
			Subsystem: "vault",
			Name:      "command_duration_seconds",
			Help:      "Latency of vault commands",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.commandsTotal, m.commandDuration)
	return m
}

// ObserveCommand records one finished command.
func (m *VaultMetrics) ObserveCommand(command, status string, seconds float64) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(seconds)
}
