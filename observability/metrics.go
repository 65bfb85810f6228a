package observability

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LoanMetrics records loan engine activity segmented by operation and
// outcome, plus the monetary running totals.
type LoanMetrics struct {
	operations *prometheus.CounterVec
	interest   prometheus.Counter
	bonuses    prometheus.Counter
}

var (
	loanMetricsOnce sync.Once
	loanRegistry    *LoanMetrics
)

// Loans returns the lazily-initialised loan metrics registry. Collectors are
// registered against the default prometheus registerer on first use.
func Loans() *LoanMetrics {
	loanMetricsOnce.Do(func() {
		loanRegistry = &LoanMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dst",
				Subsystem: "loans",
				Name:      "operations_total",
				Help:      "Loan engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			interest: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dst",
				Subsystem: "loans",
				Name:      "interest_collected_atomic_units",
				Help:      "Cumulative interest collected, in atomic units.",
			}),
			bonuses: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dst",
				Subsystem: "loans",
				Name:      "early_payment_bonus_atomic_units",
				Help:      "Cumulative early-payment bonuses granted, in atomic units.",
			}),
		}
		prometheus.MustRegister(loanRegistry.operations, loanRegistry.interest, loanRegistry.bonuses)
	})
	return loanRegistry
}

// RecordOperation counts one engine call by operation name and outcome label.
func (m *LoanMetrics) RecordOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// AddInterest folds a settled interest amount into the running counter. The
// big integer is narrowed to a float for export; precision loss is acceptable
// for monitoring.
func (m *LoanMetrics) AddInterest(amount *big.Int) {
	if m == nil || m.interest == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.interest.Add(value)
}

// AddBonus folds a granted early-payment bonus into the running counter.
func (m *LoanMetrics) AddBonus(amount *big.Int) {
	if m == nil || m.bonuses == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.bonuses.Add(value)
}
