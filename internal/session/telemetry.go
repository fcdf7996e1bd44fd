package session

import (
	"time"

	"github.com/ajitpratap0/colpir/pkg/metrics"
)

// Sizes are the encoded sizes in bytes of the protocol artifacts.
type Sizes struct {
	PublicMatrix int `json:"public_matrix"`
	PackedDB     int `json:"packed_db"`
	Hint         int `json:"hint"`
	Query        int `json:"query"`
	Answer       int `json:"answer"`
	Proof        int `json:"proof,omitempty"`
}

// PhaseTiming is the wall-clock duration of one phase.
type PhaseTiming struct {
	Phase    string        `json:"phase"`
	Duration time.Duration `json:"duration_ns"`
}

// Telemetry collects derived sizes and timings of a session.
type Telemetry struct {
	SessionID string          `json:"session_id"`
	N         uint64          `json:"n"`
	BitWidth  uint            `json:"bit_width"`
	Rows      int             `json:"rows"`
	Cols      int             `json:"cols"`
	LWEDim    int             `json:"lwe_dimension"`
	Digits    int             `json:"digits_per_entry"`
	FakeHint  bool            `json:"fake_hint"`
	Sizes     Sizes           `json:"sizes"`
	Phases    []PhaseTiming   `json:"phases"`
	Benchmark *BenchmarkStats `json:"benchmark,omitempty"`
}

// record stores the latest duration of phase, keeping first-seen order.
func (t *Telemetry) record(phase string, d time.Duration) {
	for i := range t.Phases {
		if t.Phases[i].Phase == phase {
			t.Phases[i].Duration = d
			return
		}
	}
	t.Phases = append(t.Phases, PhaseTiming{Phase: phase, Duration: d})
}

// Phase returns the recorded duration of phase.
func (t *Telemetry) Phase(phase string) (time.Duration, bool) {
	for _, p := range t.Phases {
		if p.Phase == phase {
			return p.Duration, true
		}
	}
	return 0, false
}

// publish exports the artifact sizes as gauges.
func (t *Telemetry) publish() {
	metrics.ArtifactBytes.WithLabelValues("matrix_a").Set(float64(t.Sizes.PublicMatrix))
	metrics.ArtifactBytes.WithLabelValues("packed_db").Set(float64(t.Sizes.PackedDB))
	metrics.ArtifactBytes.WithLabelValues("hint").Set(float64(t.Sizes.Hint))
	metrics.ArtifactBytes.WithLabelValues("query").Set(float64(t.Sizes.Query))
	metrics.ArtifactBytes.WithLabelValues("answer").Set(float64(t.Sizes.Answer))
	metrics.ArtifactBytes.WithLabelValues("proof").Set(float64(t.Sizes.Proof))
}
