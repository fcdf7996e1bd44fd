package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/simplepir"
)

// Query is the client and server state of one query.
type Query struct {
	Index uint64
	State QueryState

	ct    *simplepir.Ciphertext
	sk    *simplepir.Secret
	ans   *simplepir.Answer
	proof *simplepir.Proof
}

// Query bounds-checks index and creates a query for it. An index outside
// [0, N) aborts the session before the engine is called.
func (s *Session) Query(ctx context.Context, index uint64) (*Query, error) {
	if err := s.require(StateHinted, "query"); err != nil {
		return nil, err
	}
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}

	q := &Query{Index: index, State: QueryStateQueried}
	err := s.phase(ctx, "query", func(context.Context) error {
		ct, sk, err := s.engine.Query(s.params, index)
		if err != nil {
			return s.fail(wrapEngine(err, "query"))
		}
		q.ct, q.sk = ct, sk
		s.telemetry.Sizes.Query = ct.SizeBytes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Session) requireQuery(q *Query, want QueryState, phase string) error {
	if err := s.require(StateHinted, phase); err != nil {
		return err
	}
	if q == nil || q.State != want {
		got := "none"
		if q != nil {
			got = q.State.String()
		}
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "query phase out of order").
			WithDetail("phase", phase).
			WithDetail("query_state", got).
			WithDetail("required", want.String()))
	}
	return nil
}

// Answer computes the server response to q.
func (s *Session) Answer(ctx context.Context, q *Query) error {
	if err := s.requireQuery(q, QueryStateQueried, "answer"); err != nil {
		return err
	}

	return s.phase(ctx, "answer", func(context.Context) error {
		ans, err := s.engine.Answer(q.ct, s.packed)
		if err != nil {
			return s.fail(wrapEngine(err, "answer"))
		}
		q.ans = ans
		q.State = QueryStateAnswered
		s.telemetry.Sizes.Answer = ans.SizeBytes()
		return nil
	})
}

// Prove attaches a proof that the answer used the committed database.
func (s *Session) Prove(ctx context.Context, q *Query) error {
	if err := s.requireQuery(q, QueryStateAnswered, "prove"); err != nil {
		return err
	}

	return s.phase(ctx, "prove", func(context.Context) error {
		proof, err := s.engine.Prove(s.digest, q.ct, q.ans, s.packed)
		if err != nil {
			return s.fail(wrapEngine(err, "prove"))
		}
		q.proof = proof
		s.telemetry.Sizes.Proof = proof.SizeBytes()
		return nil
	})
}

// Verify checks the proof of q. A rejected proof is a verification error;
// it does not abort the session and does not prevent recovery.
func (s *Session) Verify(ctx context.Context, q *Query) error {
	if err := s.requireQuery(q, QueryStateAnswered, "verify"); err != nil {
		return err
	}
	if q.proof == nil {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "missing proof").
			WithDetail("phase", "verify"))
	}

	return s.phase(ctx, "verify", func(ctx context.Context) error {
		err := s.engine.Verify(s.params, s.hint, s.digest, q.ct, q.ans, q.proof)
		if err == nil {
			return nil
		}
		if !pirerrors.IsType(err, pirerrors.ErrorTypeVerification) {
			return s.fail(wrapEngine(err, "verify"))
		}
		s.log(ctx).Warn("proof rejected", zap.Uint64("index", q.Index), zap.Error(err))
		observability.AddEvent(ctx, "proof_rejected", attribute.Int64("index", int64(q.Index)))
		return pirerrors.Wrap(err, pirerrors.ErrorTypeVerification, "verification failed").
			WithDetail("index", q.Index)
	})
}

// Recover decodes the entry from the answer of q. The hinted state stays
// usable for further queries.
func (s *Session) Recover(ctx context.Context, q *Query) (uint64, error) {
	if err := s.requireQuery(q, QueryStateAnswered, "recover"); err != nil {
		return 0, err
	}

	var v uint64
	err := s.phase(ctx, "recover", func(context.Context) error {
		var err error
		v, err = s.engine.Recover(s.params, s.hint, q.ans, q.sk, q.Index)
		if err != nil {
			return s.fail(wrapEngine(err, "recover"))
		}
		return nil
	})
	return v, err
}
