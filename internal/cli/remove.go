package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// RemoveCmd returns the remove command.
func RemoveCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("remove", flag.ContinueOnError),
		Usage: "remove <path>",
		Short: "Remove a memory",
		Long:  "Delete a memory and drop it from the category indexes.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := requireArgs(args, 1, errPathRequired)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			err = svc.RemoveMemory(ctx, args[0])
			if err != nil {
				return err
			}

			io.Println("removed", args[0])

			return nil
		},
	}
}
