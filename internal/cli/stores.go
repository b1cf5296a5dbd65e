package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/config"
)

var errStoreArgs = errors.New("store name is required")

// StoreCmd returns the store command.
func StoreCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("store", flag.ContinueOnError),
		Usage: "store <list|add|remove> [name] [root]",
		Short: "Manage the store registry",
		Long: `Manage named stores.

  list                  Print registered stores ("*" marks the selected one)
  add <name> <root>     Register a store rooted at <root>
  remove <name>         Unregister a store (files are kept)`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execStore(io, a, args)
		},
	}
}

func execStore(io *IO, a *app, args []string) error {
	if len(args) == 0 {
		return errActionRequired
	}

	action, rest := args[0], args[1:]

	reg, err := config.LoadRegistry(a.cfg.RegistryPath())
	if err != nil {
		return err
	}

	switch action {
	case "list":
		err = requireArgs(rest, 0, nil)
		if err != nil {
			return err
		}

		for _, name := range reg.Names() {
			root, _ := reg.Resolve(name)

			marker := " "
			if name == a.cfg.StoreName && a.cfg.StoreDir == "" {
				marker = "*"
			}

			io.Printf("%s %s\t%s\n", marker, name, root)
		}

		return nil
	case "add":
		err = requireArgs(rest, 2, fmt.Errorf("%w with root", errStoreArgs))
		if err != nil {
			return err
		}

		root := rest[1]
		if !filepath.IsAbs(root) {
			root = filepath.Join(a.cfg.EffectiveCwd, root)
		}

		err = reg.Add(rest[0], root)
		if err != nil {
			return err
		}

		err = reg.Save()
		if err != nil {
			return err
		}

		io.Println("registered", rest[0], "at", root)

		return nil
	case "remove":
		err = requireArgs(rest, 1, errStoreArgs)
		if err != nil {
			return err
		}

		err = reg.Remove(rest[0])
		if err != nil {
			return err
		}

		err = reg.Save()
		if err != nil {
			return err
		}

		io.Println("unregistered", rest[0])

		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownAction, action)
	}
}
