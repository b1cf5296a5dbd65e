package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/service"
)

// UpdateCmd returns the update command.
func UpdateCmd(a *app) *Command {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.StringP("content", "m", "", "Replace the body")
	fs.StringSliceP("tags", "t", nil, "Replace the tags (empty value clears them)")
	fs.String("expires-at", "", "Set the expiry (RFC 3339)")
	fs.Bool("clear-expiry", false, "Remove the expiry")
	fs.String("summary", "", "Replace the index summary")

	return &Command{
		Flags: fs,
		Usage: "update <path> [flags]",
		Short: "Update a memory",
		Long: `Change the body or metadata of an existing memory.

Only the given flags are applied; updated_at is refreshed.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execUpdate(ctx, io, a, fs, args)
		},
	}
}

func execUpdate(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	err := requireArgs(args, 1, errPathRequired)
	if err != nil {
		return err
	}

	in := service.UpdateInput{Path: args[0]}

	if fs.Changed("content") {
		content, _ := fs.GetString("content")
		in.Content = &content
	}

	if fs.Changed("tags") {
		in.Tags, _ = fs.GetStringSlice("tags")
		if in.Tags == nil {
			in.Tags = []string{}
		}
	}

	if raw, _ := fs.GetString("expires-at"); fs.Changed("expires-at") {
		in.ExpiresAt, err = parseExpiry(raw)
		if err != nil {
			return err
		}
	}

	in.ClearExpiry, _ = fs.GetBool("clear-expiry")
	in.Summary, _ = fs.GetString("summary")

	svc, err := a.service()
	if err != nil {
		return err
	}

	_, err = svc.UpdateMemory(ctx, in)
	if err != nil {
		return err
	}

	io.Println("updated", in.Path)

	return nil
}
