package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/roach88/bfc/internal/compiler"
	"github.com/roach88/bfc/internal/config"
	"github.com/roach88/bfc/internal/engine"
	"github.com/roach88/bfc/internal/store"
)

// stdinName is the path argument that reads source from standard input.
const stdinName = "-"

// readSource reads a program from path, or from the command's stdin when
// path is "-". The returned name labels the source in diagnostics.
func readSource(cmd *cobra.Command, path string) (string, []byte, error) {
	if path == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "<stdin>", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return path, nil, err
	}
	return path, data, nil
}

// sourceErrCode picks the E-code for a readSource failure.
func sourceErrCode(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrCodeNotFound
	}
	return ErrCodeReadFailed
}

// ConfigFlags are the configuration flags shared by run, trace and
// compile. Flags the user set override the --config file, which
// overrides the defaults.
type ConfigFlags struct {
	File          string
	TapeSize      int
	PointerPolicy string
	EOFPolicy     string
	BracketPolicy string
	MaxDepth      int
	MaxSteps      int64
	Coalesce      bool
}

// bind registers the flags on cmd.
func (f *ConfigFlags) bind(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.File, "config", "", "configuration file (.yaml, .yml or .cue)")
	flags.IntVar(&f.TapeSize, "tape-size", def.TapeSize, "number of tape cells")
	flags.StringVar(&f.PointerPolicy, "pointer", string(def.PointerPolicy),
		fmt.Sprintf("pointer out of range policy %v", engine.ValidPointerPolicies))
	flags.StringVar(&f.EOFPolicy, "eof", string(def.EOFPolicy),
		fmt.Sprintf("end of input policy %v", engine.ValidEOFPolicies))
	flags.StringVar(&f.BracketPolicy, "brackets", string(def.BracketPolicy),
		fmt.Sprintf("bracket anomaly policy %v", compiler.ValidBracketPolicies))
	flags.IntVar(&f.MaxDepth, "max-depth", def.MaxDepth, "maximum loop nesting (0 = unlimited)")
	flags.Int64Var(&f.MaxSteps, "max-steps", def.MaxSteps, "maximum steps per run (0 = unlimited)")
	flags.BoolVar(&f.Coalesce, "coalesce", def.Coalesce, "merge adjacent moves and adds (requires --pointer wrap)")
}

// resolve builds the effective configuration.
func (f *ConfigFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.File != "" {
		loaded, err := config.Load(f.File)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tape-size") {
		cfg.TapeSize = f.TapeSize
	}
	if flags.Changed("pointer") {
		cfg.PointerPolicy = engine.PointerPolicy(f.PointerPolicy)
	}
	if flags.Changed("eof") {
		cfg.EOFPolicy = engine.EOFPolicy(f.EOFPolicy)
	}
	if flags.Changed("brackets") {
		cfg.BracketPolicy = compiler.BracketPolicy(f.BracketPolicy)
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = f.MaxDepth
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = f.MaxSteps
	}
	if flags.Changed("coalesce") {
		cfg.Coalesce = f.Coalesce
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore opens the database at path. The returned close function is
// safe to call more than once; it is also registered with atexit so the
// database is closed when the process exits through atexit.Exit.
func openStore(path string, logger *slog.Logger) (*store.Store, func(), error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing database", "path", path, "error", err)
			}
		})
	}
	atexit.Register(closeFn)
	return st, closeFn, nil
}
