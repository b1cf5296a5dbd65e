package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/service"
)

// AddCmd returns the add command.
func AddCmd(a *app) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("content", "m", "", "Memory body (default: read from stdin)")
	fs.StringSliceP("tags", "t", nil, "Comma-separated tags")
	fs.String("source", "", "Who produced the memory (default \"user\")")
	fs.String("expires-at", "", "Expiry time in RFC 3339")
	fs.String("summary", "", "One-line summary kept in the category index")

	return &Command{
		Flags: fs,
		Usage: "add <path> [flags]",
		Short: "Add a memory",
		Long: `Add a new memory at <path> (category/.../slug).

Missing categories are created. Fails if a memory already exists at <path>.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execAdd(ctx, io, a, fs, args)
		},
	}
}

func execAdd(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	err := requireArgs(args, 1, errPathRequired)
	if err != nil {
		return err
	}

	in := service.AddInput{Path: args[0]}
	in.Tags, _ = fs.GetStringSlice("tags")
	in.Source, _ = fs.GetString("source")
	in.Summary, _ = fs.GetString("summary")

	if raw, _ := fs.GetString("expires-at"); fs.Changed("expires-at") {
		in.ExpiresAt, err = parseExpiry(raw)
		if err != nil {
			return err
		}
	}

	content, _ := fs.GetString("content")

	in.Content, err = a.readContent(content, fs.Changed("content"))
	if err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}

	m, err := svc.AddMemory(ctx, in)
	if err != nil {
		return err
	}

	io.Printf("added %s (created %s)\n", in.Path, m.Metadata.CreatedAt.Format(time.RFC3339))

	return nil
}
