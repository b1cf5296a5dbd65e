package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/service"
)

// PruneCmd returns the prune command.
func PruneCmd(a *app) *Command {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	fs.Bool("dry-run", false, "Only print what would be removed")

	return &Command{
		Flags: fs,
		Usage: "prune [--dry-run]",
		Short: "Remove expired memories",
		Long: `Remove every memory whose expires_at is in the past, following the
category indexes from the store root.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			err := requireArgs(args, 0, nil)
			if err != nil {
				return err
			}

			dryRun, _ := fs.GetBool("dry-run")

			svc, err := a.service()
			if err != nil {
				return err
			}

			res, err := svc.Prune(ctx, service.PruneOptions{DryRun: dryRun})
			if err != nil {
				return err
			}

			verb := "removed"
			if res.DryRun {
				verb = "would remove"
			}

			for _, path := range res.Pruned {
				io.Println(verb, path)
			}

			if len(res.Pruned) == 0 {
				io.Println("nothing to prune")
			}

			return nil
		},
	}
}
