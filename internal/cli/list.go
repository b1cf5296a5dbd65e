package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/Yeseh/cortex-sub001/internal/service"
)

// ListCmd returns the list command.
func ListCmd(a *app) *Command {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.Bool("include-expired", false, "Include expired memories (marked [expired])")
	fs.String("match", "", "Only list memory paths matching a glob (e.g. 'project/*-notes')")
	fs.Bool("json", false, "Print the listing as JSON")

	return &Command{
		Flags: fs,
		Usage: "list [category] [flags]",
		Short: "List a category",
		Long: `List the memories and subcategories directly inside a category,
read from its index. Without a category the store root is listed.

Subcategory counts include every memory below them.`,
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return execList(ctx, io, a, fs, args)
		},
	}
}

func execList(ctx context.Context, io *IO, a *app, fs *flag.FlagSet, args []string) error {
	category := ""

	if len(args) > 0 {
		err := requireArgs(args, 1, nil)
		if err != nil {
			return err
		}

		category = args[0]
	}

	opts := service.ListOptions{}
	opts.IncludeExpired, _ = fs.GetBool("include-expired")
	opts.Match, _ = fs.GetString("match")
	asJSON, _ := fs.GetBool("json")

	svc, err := a.service()
	if err != nil {
		return err
	}

	listing, err := svc.List(ctx, category, opts)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(listing, "", "  ")
		if err != nil {
			return fmt.Errorf("encode listing: %w", err)
		}

		io.Println(string(data))

		return nil
	}

	for _, m := range listing.Memories {
		io.Println(formatListedMemory(m))
	}

	for _, sub := range listing.Subcategories {
		line := fmt.Sprintf("%s/ (%d)", sub.Path, sub.MemoryCount)
		if sub.Description != "" {
			line += " - " + sub.Description
		}

		io.Println(line)
	}

	return nil
}

func formatListedMemory(m service.ListedMemory) string {
	var b strings.Builder

	b.WriteString(m.Path)

	if m.TokenEstimate != nil {
		fmt.Fprintf(&b, " ~%d tokens", *m.TokenEstimate)
	}

	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(m.Tags, ", "))
	}

	if m.IsExpired {
		b.WriteString(" [expired]")
	}

	if m.Summary != "" {
		b.WriteString(" - ")
		b.WriteString(m.Summary)
	}

	return b.String()
}
