// Package cli implements the larder command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/log"
	"github.com/mesh-intelligence/larder/internal/paths"
	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/convert"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks bad flags and arguments.
var errUsage = errors.New("usage")

// userErrors are the failures caused by input rather than by the system.
var userErrors = []error{
	errUsage,
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidQuery,
	types.ErrInvalidTableName,
	types.ErrDuplicateID,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrURIEmpty,
	types.ErrInvalidPolicy,
	types.ErrSyncStrategyUnknown,
	types.ErrBatchSizeInvalid,
	types.ErrBatchIntervalInvalid,
	codec.ErrMalformed,
	codec.ErrUnencodable,
	convert.ErrUnsupportedType,
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	if lo.ContainsBy(userErrors, func(target error) bool { return errors.Is(err, target) }) {
		return exitUserError
	}
	return exitSysError
}

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	policy    string
	logLevel  string
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	log       *logrus.Logger
}

// NewRootCmd creates the top-level "larder" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "larder",
		Short: "Convert and store documents across keyed representations",
		Long: "Larder converts documents between keyed representations and stores\n" +
			"them in a SQLite or MongoDB document store.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite or mongo")
	pf.StringVar(&a.flags.policy, "policy", "", "unsigned range policy: signed-bound or strict")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (default info)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newConvertCmd(a),
		newStoreCmd(a),
		newGetCmd(a),
		newFindCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// setup resolves the config directory, loads config.yaml and builds the
// logger.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(dir)
	if err != nil {
		return err
	}
	level := lo.CoalesceOrEmpty(a.flags.logLevel, v.GetString(keyLogLevel))
	l, err := log.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	a.configDir = dir
	a.v = v
	a.log = l
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}
