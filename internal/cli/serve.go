package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/mcpserver"
)

// Version is reported to MCP clients. Set with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

var errNoStdin = errors.New("serve needs stdin")

// ServeCmd returns the serve command.
func ServeCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("serve", flag.ContinueOnError),
		Usage: "serve",
		Short: "Serve the store as MCP tools on stdio",
		Long: `Run an MCP server on stdin/stdout exposing the memory operations as
tools (add_memory, get_memory, update_memory, remove_memory, move_memory,
list_memories, reindex_store, prune_memories). Logs go to stderr.`,
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			err := requireArgs(args, 0, nil)
			if err != nil {
				return err
			}

			if a.in == nil {
				return errNoStdin
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			err = mcpserver.New(svc, a.logger, Version).Listen(ctx, a.in, a.out)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}
}
