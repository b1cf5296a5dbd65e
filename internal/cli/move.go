package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"
)

var errMoveArgs = errors.New("source and destination paths are required")

// MoveCmd returns the move command.
func MoveCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("move", flag.ContinueOnError),
		Usage: "move <from> <to>",
		Short: "Move a memory",
		Long: `Move a memory to a new path. Metadata is kept as is.

The destination category must already exist (see 'cortex category create').`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := requireArgs(args, 2, errMoveArgs)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			err = svc.MoveMemory(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			io.Println("moved", args[0], "->", args[1])

			return nil
		},
	}
}
