package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// ReindexCmd returns the reindex command.
func ReindexCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("reindex", flag.ContinueOnError),
		Usage: "reindex",
		Short: "Rebuild all category indexes",
		Long: `Scan the store and rewrite every index file from the memory files.

Files whose names are not valid slugs are renamed to their normalized slug.
Name collisions get -2, -3, ... suffixes. Every rename or skipped entry is
reported as a warning; warnings do not fail the command.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := requireArgs(args, 0, nil)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			res, err := svc.Reindex(ctx)
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				io.Warn(w)
			}

			io.Printf("reindexed %d memories in %d categories\n", res.Memories, res.Categories)

			return nil
		},
	}
}
