// Package profiling captures pprof CPU and heap profiles around a CLI run.
package profiling

import (
	"errors"
	"os"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Config names the profile files. Empty names disable that profile.
type Config struct {
	CPUFile    string
	MemoryFile string
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPUFile != "" || c.MemoryFile != ""
}

// Profiler writes the profiles selected by its Config.
type Profiler struct {
	config  Config
	logger  *zap.Logger
	cpuFile *os.File
}

// NewProfiler creates a profiler.
func NewProfiler(config Config, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{config: config, logger: logger}
}

// Start begins CPU profiling when requested.
func (p *Profiler) Start() error {
	if p.config.CPUFile == "" {
		return nil
	}

	file, err := os.Create(p.config.CPUFile)
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to create CPU profile file").
			WithDetail("path", p.config.CPUFile)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to start CPU profiling")
	}
	p.cpuFile = file
	p.logger.Debug("profiling started", zap.String("cpu_profile", p.config.CPUFile))
	return nil
}

// Stop ends CPU profiling and writes the heap profile.
func (p *Profiler) Stop() error {
	var errs []error

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to close CPU profile"))
		} else {
			p.logger.Info("CPU profile saved", zap.String("file", p.cpuFile.Name()))
		}
		p.cpuFile = nil
	}

	if p.config.MemoryFile != "" {
		if err := p.saveMemoryProfile(); err != nil {
			errs = append(errs, err)
		} else {
			p.logger.Info("memory profile saved", zap.String("file", p.config.MemoryFile))
		}
	}
	return errors.Join(errs...)
}

func (p *Profiler) saveMemoryProfile() error {
	file, err := os.Create(p.config.MemoryFile)
	if err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to create memory profile file").
			WithDetail("path", p.config.MemoryFile)
	}
	defer file.Close()

	runtime.GC() // Force GC before heap profile
	if err := pprof.WriteHeapProfile(file); err != nil {
		return pirerrors.Wrap(err, pirerrors.ErrorTypeInternal, "failed to write memory profile")
	}
	return file.Close()
}
