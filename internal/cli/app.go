package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Yeseh/cortex-sub001/internal/config"
	"github.com/Yeseh/cortex-sub001/internal/service"
	"github.com/Yeseh/cortex-sub001/internal/store"
	"github.com/Yeseh/cortex-sub001/internal/tokens"
)

// Usage errors.
var (
	errPathRequired     = errors.New("memory path is required")
	errCategoryRequired = errors.New("category path is required")
	errActionRequired   = errors.New("action is required")
	errUnknownAction    = errors.New("unknown action")
	errTooManyArgs      = errors.New("too many arguments")
)

// app carries the resolved configuration to the commands. The store is
// opened lazily so commands that do not need one (print-config, store)
// work without a resolvable store.
type app struct {
	cfg    config.Config
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func commands(a *app) []*Command {
	return []*Command{
		AddCmd(a),
		ShowCmd(a),
		UpdateCmd(a),
		RemoveCmd(a),
		MoveCmd(a),
		ListCmd(a),
		PruneCmd(a),
		ReindexCmd(a),
		CategoryCmd(a),
		StoreCmd(a),
		ServeCmd(a),
		PrintConfigCmd(a),
	}
}

func (a *app) storeRoot() (string, error) {
	reg, err := config.LoadRegistry(a.cfg.RegistryPath())
	if err != nil {
		return "", err
	}

	return a.cfg.ResolveStore(reg)
}

func (a *app) service() (*service.Service, error) {
	root, err := a.storeRoot()
	if err != nil {
		return nil, err
	}

	estimator, err := tokens.New(a.cfg.Tokenizer, a.cfg.Encoding, a.logger)
	if err != nil {
		return nil, err
	}

	fs, err := store.New(root, store.Options{Tokens: estimator, Logger: a.logger})
	if err != nil {
		return nil, err
	}

	return service.New(fs, service.Options{Now: time.Now, Logger: a.logger}), nil
}

// readContent returns the --content flag value, or stdin when the flag
// was not given.
func (a *app) readContent(content string, changed bool) (string, error) {
	if changed || a.in == nil {
		return content, nil
	}

	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	return string(data), nil
}

func parseExpiry(raw string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("--expires-at must be RFC 3339 (2006-01-02T15:04:05Z): %w", err)
	}

	return &t, nil
}

func requireArgs(args []string, n int, missing error) error {
	if len(args) < n {
		return missing
	}

	if len(args) > n {
		return fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(args[n:], " "))
	}

	return nil
}
