// Package session orchestrates a PIR session over a quantized database. It
// owns the protocol state machine:
//
//	Uninitialized -> Init -> Parametrized
//	Parametrized -> PackDatabase -> DatabasePacked
//	DatabasePacked -> GenerateHint -> Commit -> Hinted
//	Hinted -> Query -> Answer -> [Prove -> Verify] -> Recover
//
// Offline results are reused by any number of queries. Any precondition
// violation is fatal: the error is kept and returned by every later call.
package session

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/logger"
	"github.com/ajitpratap0/colpir/pkg/metrics"
	"github.com/ajitpratap0/colpir/pkg/observability"
	"github.com/ajitpratap0/colpir/pkg/pirerrors"
	"github.com/ajitpratap0/colpir/pkg/simplepir"
)

// Config controls offline behaviour.
type Config struct {
	// FakeHint replaces the hint with a zero matrix for offline timing.
	// Recovery is then meaningless and is not checked.
	FakeHint bool
}

// Session drives one engine over one database.
type Session struct {
	id     string
	engine Engine
	db     *ingest.Database
	config Config
	base   *zap.Logger
	logger *zap.Logger

	state State
	err   error

	params *simplepir.Params
	matrix *simplepir.Matrix
	packed *simplepir.PackedMatrix
	hint   *simplepir.Matrix
	digest simplepir.Digest

	telemetry *Telemetry
}

// New creates a session. The session takes ownership of db.
func New(engine Engine, db *ingest.Database, config Config, log *zap.Logger) *Session {
	id := uuid.NewString()
	t := &Telemetry{SessionID: id, FakeHint: config.FakeHint}
	if db != nil {
		t.N = db.Len()
		t.BitWidth = uint(db.Width())
	}
	return &Session{
		id:        id,
		engine:    engine,
		db:        db,
		config:    config,
		base:      log,
		logger:    log.With(zap.String("session_id", id)),
		telemetry: t,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the offline state.
func (s *Session) State() State { return s.state }

// Err returns the fatal error that aborted the session, if any.
func (s *Session) Err() error { return s.err }

// Telemetry returns the sizes and timings collected so far.
func (s *Session) Telemetry() *Telemetry { return s.telemetry }

// Params returns the public parameters once initialized.
func (s *Session) Params() *simplepir.Params { return s.params }

// Digest returns the commitment once hinted.
func (s *Session) Digest() simplepir.Digest { return s.digest }

// fail makes err the sticky session error.
func (s *Session) fail(err error) error {
	if s.err == nil {
		s.err = err
		s.logger.Error("session aborted", zap.Error(err), zap.Stringer("state", s.state))
	}
	return s.err
}

// log returns the session logger annotated with the values of ctx.
func (s *Session) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.base)
}

// require checks that no fatal error occurred and the session is in want.
func (s *Session) require(want State, phase string) error {
	if s.err != nil {
		return s.err
	}
	if s.state != want {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "phase out of order").
			WithDetail("phase", phase).
			WithDetail("state", s.state.String()).
			WithDetail("required", want.String()))
	}
	return nil
}

func (s *Session) checkIndex(index uint64) error {
	if index >= s.params.N {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "index out of range").
			WithDetail("index", index).
			WithDetail("n", s.params.N))
	}
	return nil
}

// wrapEngine names the phase of an engine error, keeping its type. Untyped
// errors become internal errors.
func wrapEngine(err error, phase string) error {
	return pirerrors.Wrap(err, pirerrors.TypeOf(err), "engine failure").WithDetail("phase", phase)
}

// phase runs fn inside a span and records its duration. The context passed
// to fn carries the session and phase for logging.
func (s *Session) phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx = logger.NewContext(ctx, logger.SessionIDKey, s.id)
	ctx = logger.NewContext(ctx, logger.PhaseKey, name)
	ctx, end := observability.StartPhase(ctx, name, attribute.String("session_id", s.id))
	timer := metrics.NewTimer(name)

	err := fn(ctx)
	d := timer.ObserveDuration()
	end(err)

	s.telemetry.record(name, d)
	s.log(ctx).Debug("phase finished", zap.Duration("duration", d), zap.Error(err))
	return err
}

// Init asks the engine for public parameters sized for the database.
func (s *Session) Init(ctx context.Context) error {
	if err := s.require(StateUninitialized, "init"); err != nil {
		return err
	}
	if s.db == nil || s.db.Len() == 0 {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeStructural, "empty dataset"))
	}

	return s.phase(ctx, "init", func(context.Context) error {
		params, err := s.engine.Init(s.db.Len(), uint(s.db.Width()))
		if err != nil {
			return s.fail(wrapEngine(err, "init"))
		}
		s.params = params
		s.state = StateParametrized

		s.telemetry.Rows = params.L
		s.telemetry.Cols = params.M
		s.telemetry.LWEDim = params.LWEDim
		s.telemetry.Digits = params.Digits
		s.telemetry.Sizes.PublicMatrix = params.A.SizeBytes()
		return nil
	})
}

// PackDatabase lays the database out for the engine and packs it for
// answering.
func (s *Session) PackDatabase(ctx context.Context) error {
	if err := s.require(StateParametrized, "pack"); err != nil {
		return err
	}
	if s.db.Len() != s.params.N {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "database length differs from parameters").
			WithDetail("entries", s.db.Len()).
			WithDetail("n", s.params.N))
	}

	return s.phase(ctx, "pack", func(context.Context) error {
		matrix, err := s.engine.PackDatabase(s.db.Entries(), s.params)
		if err != nil {
			return s.fail(wrapEngine(err, "pack"))
		}
		s.matrix = matrix
		s.packed = s.engine.PackMatrixForAnswer(matrix)
		s.state = StateDatabasePacked
		s.telemetry.Sizes.PackedDB = s.packed.SizeBytes()
		return nil
	})
}

// GenerateHint computes the hint, or a fake one when configured.
func (s *Session) GenerateHint(ctx context.Context) error {
	if err := s.require(StateDatabasePacked, "hint"); err != nil {
		return err
	}

	return s.phase(ctx, "hint", func(context.Context) error {
		if s.config.FakeHint {
			s.hint = s.engine.GenerateFakeHint(s.params)
		} else {
			hint, err := s.engine.GenerateHint(s.params, s.matrix)
			if err != nil {
				return s.fail(wrapEngine(err, "hint"))
			}
			s.hint = hint
		}
		s.telemetry.Sizes.Hint = s.hint.SizeBytes()
		return nil
	})
}

// Commit hashes the public parameters and the hint.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.require(StateDatabasePacked, "commit"); err != nil {
		return err
	}
	if s.hint == nil {
		return s.fail(pirerrors.New(pirerrors.ErrorTypeProtocol, "missing hint").
			WithDetail("phase", "commit"))
	}

	return s.phase(ctx, "commit", func(context.Context) error {
		s.digest = s.engine.CommitHash(s.params, s.hint)
		s.state = StateHinted
		s.logger.Info("offline phase complete",
			zap.Uint64("n", s.params.N),
			zap.Int("rows", s.params.L),
			zap.Int("cols", s.params.M),
			zap.Bool("fake_hint", s.config.FakeHint))
		return nil
	})
}

// Offline runs Init, PackDatabase, GenerateHint and Commit.
func (s *Session) Offline(ctx context.Context) error {
	for _, step := range []func(context.Context) error{s.Init, s.PackDatabase, s.GenerateHint, s.Commit} {
		if err := step(ctx); err != nil {
			return err
		}
	}
	s.telemetry.publish()
	return nil
}
