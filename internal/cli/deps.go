package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/gateway/catalog"
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// ProfileResolver resolves profile selections.
type ProfileResolver interface {
	Find(ctx context.Context, profileName string) (domain.Profile, error)
}

// LocationResolver resolves addresses to coordinates.
type LocationResolver interface {
	Get(ctx context.Context, address string) (domain.Coordinate, error)
}

// ConfigManager stores profile config payloads.
type ConfigManager interface {
	Path() string
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
}

type productReader interface {
	ProductByID(ctx context.Context, productID string) (domain.Product, error)
}

// ServeFunc runs handler on addr until ctx is done.
type ServeFunc func(ctx context.Context, addr string, handler http.Handler) error

// Dependencies wires runtime services.
type Dependencies struct {
	Catalog    catalog.Reader
	Writer     catalog.Writer
	Profiles   ProfileResolver
	Location   LocationResolver
	Config     ConfigManager
	Serve      ServeFunc
	ListenAddr string
	Version    string
}

var errVersionShown = fmt.Errorf("version shown")

// Execute runs the CLI with injected dependencies.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil || err == errVersionShown {
		return 0
	}
	var controlled *exitError
	if errors.As(err, &controlled) {
		return controlled.code
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return 2
	}

	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}
