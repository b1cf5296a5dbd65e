package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// CategoryCmd returns the category command.
func CategoryCmd(a *app) *Command {
	fs := flag.NewFlagSet("category", flag.ContinueOnError)
	fs.StringP("description", "d", "", "Category description (create)")

	return &Command{
		Flags: fs,
		Usage: "category <create|delete|describe> <path>",
		Short: "Manage categories",
		Long: `Manage categories.

  create <path> [-d text]       Create a category and its parents
  delete <path>                 Delete an empty category
  describe <path> <text>        Set the description ("" clears it)`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execCategory(ctx, io, a, fs, args)
		},
	}
}

func execCategory(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errActionRequired
	}

	action, rest := args[0], args[1:]

	svc, err := a.service()
	if err != nil {
		return err
	}

	switch action {
	case "create":
		err = requireArgs(rest, 1, errCategoryRequired)
		if err != nil {
			return err
		}

		description, _ := fs.GetString("description")

		err = svc.CreateCategory(ctx, rest[0], description)
		if err != nil {
			return err
		}

		io.Println("created", rest[0])
	case "delete":
		err = requireArgs(rest, 1, errCategoryRequired)
		if err != nil {
			return err
		}

		err = svc.DeleteCategory(ctx, rest[0])
		if err != nil {
			return err
		}

		io.Println("deleted", rest[0])
	case "describe":
		err = requireArgs(rest, 2, fmt.Errorf("%w and description", errCategoryRequired))
		if err != nil {
			return err
		}

		err = svc.DescribeCategory(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}

		io.Println("described", rest[0])
	default:
		return fmt.Errorf("%w: %s", errUnknownAction, action)
	}

	return nil
}
