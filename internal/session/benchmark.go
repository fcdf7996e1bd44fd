package session

import (
	"context"
	"time"

	"github.com/gonum/stat"
)

// LatencyStats summarizes repeated measurements of one phase.
type LatencyStats struct {
	Mean   time.Duration `json:"mean_ns"`
	StdDev time.Duration `json:"stddev_ns"`
}

// BenchmarkStats summarizes the online phases over throw-away queries.
type BenchmarkStats struct {
	Repetitions int          `json:"repetitions"`
	Query       LatencyStats `json:"query"`
	Answer      LatencyStats `json:"answer"`
	Recover     LatencyStats `json:"recover"`
}

func summarize(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if len(samples) == 1 {
		std = 0
	}
	return LatencyStats{
		Mean:   time.Duration(mean * float64(time.Second)),
		StdDev: time.Duration(std * float64(time.Second)),
	}
}

// Benchmark times query, answer and recover over reps fresh queries for
// index. The queries never replace a caller's query handle.
func (s *Session) Benchmark(ctx context.Context, index uint64, reps int) (*BenchmarkStats, error) {
	if err := s.require(StateHinted, "benchmark"); err != nil {
		return nil, err
	}
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}

	var queries, answers, recovers []float64
	for range reps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		ct, sk, err := s.engine.Query(s.params, index)
		if err != nil {
			return nil, s.fail(wrapEngine(err, "query"))
		}
		queries = append(queries, time.Since(start).Seconds())

		start = time.Now()
		ans, err := s.engine.Answer(ct, s.packed)
		if err != nil {
			return nil, s.fail(wrapEngine(err, "answer"))
		}
		answers = append(answers, time.Since(start).Seconds())

		start = time.Now()
		if _, err := s.engine.Recover(s.params, s.hint, ans, sk, index); err != nil {
			return nil, s.fail(wrapEngine(err, "recover"))
		}
		recovers = append(recovers, time.Since(start).Seconds())
	}

	stats := &BenchmarkStats{
		Repetitions: reps,
		Query:       summarize(queries),
		Answer:      summarize(answers),
		Recover:     summarize(recovers),
	}
	s.telemetry.Benchmark = stats
	return stats, nil
}
