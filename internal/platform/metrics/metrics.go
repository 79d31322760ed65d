// Package metrics exposes Prometheus counters for ledger activity and a
// collector that counts due reviews from the store on each scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linguist"

// Ledger label values.
const (
	LedgerSkill      = "skill"
	LedgerVocabulary = "vocabulary"
)

// Recorder holds the application counters. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	outcomes    *prometheus.CounterVec
	batchGrades *prometheus.CounterVec
	promotions  *prometheus.CounterVec
	imports     *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Practice outcomes applied, by ledger and result.",
		}, []string{"ledger", "result"}),
		batchGrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_grades_total",
			Help:      "Graded exercise batches, by score band.",
		}, []string{"band"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_evaluations_total",
			Help:      "Promotion evaluations, by result.",
		}, []string{"result"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vocabulary_imports_total",
			Help:      "Vocabulary entries seen by imports, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.outcomes, r.batchGrades, r.promotions, r.imports)
	return r
}

// ObserveOutcome counts one success or failure on ledger.
func (r *Recorder) ObserveOutcome(ledger string, success bool) {
	if r == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	r.outcomes.WithLabelValues(ledger, result).Inc()
}

// ObserveBatch counts a graded batch under the band its score fell in.
func (r *Recorder) ObserveBatch(score float64) {
	if r == nil {
		return
	}
	r.batchGrades.WithLabelValues(BatchBand(score)).Inc()
}

// ObservePromotion counts an evaluation. result is "promoted" or the reason
// code of a refusal.
func (r *Recorder) ObservePromotion(result string) {
	if r == nil {
		return
	}
	r.promotions.WithLabelValues(result).Inc()
}

// ObserveImport adds the per-entry results of one import.
func (r *Recorder) ObserveImport(imported, skipped, invalid int) {
	if r == nil {
		return
	}
	r.imports.WithLabelValues("imported").Add(float64(imported))
	r.imports.WithLabelValues("skipped").Add(float64(skipped))
	r.imports.WithLabelValues("invalid").Add(float64(invalid))
}

// BatchBand names the score band used for the batch grade label.
func BatchBand(score float64) string {
	switch {
	case score >= 80:
		return "80_plus"
	case score >= 60:
		return "60_79"
	case score >= 40:
		return "40_59"
	default:
		return "below_40"
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
