package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/service"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.Bool("include-expired", false, "Show the memory even if it has expired")

	return &Command{
		Flags: fs,
		Usage: "show <path>",
		Short: "Show a memory",
		Long:  "Print a memory exactly as stored: metadata block followed by the body.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execShow(ctx, io, a, fs, args)
		},
	}
}

func execShow(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	err := requireArgs(args, 1, errPathRequired)
	if err != nil {
		return err
	}

	includeExpired, _ := fs.GetBool("include-expired")

	svc, err := a.service()
	if err != nil {
		return err
	}

	m, err := svc.GetMemory(ctx, args[0], service.GetOptions{IncludeExpired: includeExpired})
	if err != nil {
		return err
	}

	data, err := memory.Marshal(m)
	if err != nil {
		return err
	}

	io.Printf("%s", data)

	return nil
}
