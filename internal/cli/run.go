package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Yeseh/cortex-sub001/internal/config"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
// A signal on sigCh cancels the context passed to the running command.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if len(args) < minArgs {
		printUsage(out, nil)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride:  flags.workDir,
		ConfigPath:       flags.configPath,
		StoreOverride:    flags.store,
		StoreDirOverride: flags.storeDir,
		Env:              env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	a := &app{cfg: cfg, in: in, out: out, logger: logger}
	cmds := commands(a)

	if len(flags.remaining) == 0 {
		printUsage(out, cmds)

		return 0
	}

	name := flags.remaining[0]

	if name == "-h" || name == helpFlag {
		printUsage(out, cmds)

		return 0
	}

	var cmd *Command

	for _, c := range cmds {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut, cmds)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	return cmd.Run(ctx, NewIO(out, errOut), flags.remaining[1:])
}

type globalFlags struct {
	workDir    string
	configPath string
	store      string
	storeDir   string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// valueFlag describes a global flag that takes a value.
type valueFlag struct {
	short  string
	long   string
	target func(*globalFlags) *string
}

var valueFlags = []valueFlag{
	{short: "-C", long: "--cwd", target: func(f *globalFlags) *string { return &f.workDir }},
	{short: "-c", long: "--config", target: func(f *globalFlags) *string { return &f.configPath }},
	{short: "-s", long: "--store", target: func(f *globalFlags) *string { return &f.store }},
	{long: "--store-dir", target: func(f *globalFlags) *string { return &f.storeDir }},
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	for _, vf := range valueFlags {
		if arg == vf.long || (vf.short != "" && arg == vf.short) {
			if idx+1 >= len(args) {
				return consumedNone, fmt.Errorf("%w: %s", config.ErrFlagRequiresArg, arg)
			}

			*vf.target(flags) = args[idx+1]

			return consumedTwo, nil
		}

		if after, ok := strings.CutPrefix(arg, vf.long+"="); ok {
			*vf.target(flags) = after

			return consumedOne, nil
		}
	}

	// -Cdir form
	if after, ok := strings.CutPrefix(arg, "-C"); ok && after != "" {
		flags.workDir = after

		return consumedOne, nil
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", config.ErrUnknownFlag, arg)
	}

	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer, cmds []*Command) {
	fprintln(writer, `cortex - hierarchical memory store

Usage: cortex [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  -s, --store <name>     Use a registered store
      --store-dir <dir>  Use the store rooted at <dir>

Commands:`)

	if cmds == nil {
		cmds = commands(&app{})
	}

	for _, c := range cmds {
		fprintln(writer, c.HelpLine())
	}

	fprintln(writer, `
Run 'cortex <command> --help' for more information on a command.`)
}
