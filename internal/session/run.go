package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/metrics"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// RunOptions selects the optional online steps.
type RunOptions struct {
	Prove       bool
	Repetitions int // extra timed throw-away queries
}

// Result is the outcome of one complete query.
type Result struct {
	SessionID string `json:"session_id"`
	Index     uint64 `json:"index"`
	Recovered uint64 `json:"recovered"`
	Expected  uint64 `json:"expected"`
	Checked   bool   `json:"checked"`
	Match     bool   `json:"match"`
	Proved    bool   `json:"proved"`
	Verified  bool   `json:"verified"`
}

// Run performs the offline phase if needed, then queries index, optionally
// proves and verifies the answer, recovers the entry and compares it with
// the database. Verification and mismatch failures are returned together
// with a non-nil Result; other failures return no Result.
func (s *Session) Run(ctx context.Context, index uint64, opts RunOptions) (*Result, error) {
	res, err := s.run(ctx, index, opts)
	switch {
	case res == nil:
		metrics.SessionOutcomes.WithLabelValues("error").Inc()
	case pirerrors.IsType(err, pirerrors.ErrorTypeMismatch):
		metrics.SessionOutcomes.WithLabelValues("mismatch").Inc()
	case pirerrors.IsType(err, pirerrors.ErrorTypeVerification):
		metrics.SessionOutcomes.WithLabelValues("verification_failed").Inc()
	case !res.Checked:
		metrics.SessionOutcomes.WithLabelValues("unchecked").Inc()
	default:
		metrics.SessionOutcomes.WithLabelValues("match").Inc()
	}
	return res, err
}

func (s *Session) run(ctx context.Context, index uint64, opts RunOptions) (*Result, error) {
	if s.state == StateUninitialized && s.err == nil {
		if err := s.Offline(ctx); err != nil {
			return nil, err
		}
	}

	q, err := s.Query(ctx, index)
	if err != nil {
		return nil, err
	}
	expected, err := s.db.At(index)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.Answer(ctx, q); err != nil {
		return nil, err
	}

	res := &Result{SessionID: s.id, Index: index, Expected: expected}

	var verifyErr error
	if opts.Prove {
		if err := s.Prove(ctx, q); err != nil {
			return nil, err
		}
		res.Proved = true
		verifyErr = s.Verify(ctx, q)
		if verifyErr != nil && !pirerrors.IsType(verifyErr, pirerrors.ErrorTypeVerification) {
			return nil, verifyErr
		}
		res.Verified = verifyErr == nil
	}

	res.Recovered, err = s.Recover(ctx, q)
	if err != nil {
		return nil, err
	}

	if opts.Repetitions > 0 {
		if _, err := s.Benchmark(ctx, index, opts.Repetitions); err != nil {
			return nil, err
		}
	}
	s.telemetry.publish()

	var mismatchErr error
	if !s.config.FakeHint {
		res.Checked = true
		res.Match = res.Recovered == res.Expected
		if !res.Match {
			mismatchErr = pirerrors.New(pirerrors.ErrorTypeMismatch, "recovered value differs from database").
				WithDetail("index", index).
				WithDetail("expected", res.Expected).
				WithDetail("recovered", res.Recovered)
		}
	}

	s.logger.Info("query complete",
		zap.Uint64("index", index),
		zap.Uint64("expected", res.Expected),
		zap.Uint64("recovered", res.Recovered),
		zap.Bool("checked", res.Checked),
		zap.Bool("match", res.Match),
		zap.Bool("proved", res.Proved),
		zap.Bool("verified", res.Verified))

	return res, errors.Join(verifyErr, mismatchErr)
}
