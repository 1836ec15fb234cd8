package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mekedron/grocer-cli/internal/cli"
	"github.com/mekedron/grocer-cli/internal/config"
	"github.com/mekedron/grocer-cli/internal/gateway/catalog"
	"github.com/mekedron/grocer-cli/internal/gateway/catalogdb"
	locationgateway "github.com/mekedron/grocer-cli/internal/gateway/location"
	"github.com/mekedron/grocer-cli/internal/server"
	"github.com/mekedron/grocer-cli/internal/service/profile"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(); err != nil {
		return fail(err)
	}
	runtime, err := config.ResolveRuntime(os.Getenv)
	if err != nil {
		return fail(err)
	}
	store, err := config.NewStore()
	if err != nil {
		return fail(err)
	}
	profiles := profile.NewResolver(store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	deps := cli.Dependencies{
		Profiles:   profiles,
		Location:   locationgateway.NewClient(),
		Config:     store,
		Serve:      server.Serve,
		ListenAddr: runtime.ListenAddr,
		Version:    version,
	}

	if runtime.DatabaseURL != "" {
		source, err := catalogdb.Open(ctx, runtime.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		defer source.Close()
		deps.Catalog = source
	} else {
		client := catalog.NewClient(
			catalog.WithBaseURL(resolveAPIURL(ctx, runtime, profiles, args)),
			catalog.WithRequestMinInterval(runtime.MinInterval),
		)
		deps.Catalog = client
		deps.Writer = client
	}

	return cli.Execute(ctx, args, deps, os.Stdout, os.Stderr)
}

// resolveAPIURL prefers GROCER_API_URL, then the selected profile's api url.
func resolveAPIURL(ctx context.Context, runtime config.Runtime, profiles *profile.Resolver, args []string) string {
	if runtime.APIURL != "" {
		return runtime.APIURL
	}
	selected, ok, err := profiles.Lookup(ctx, profileArg(args))
	if err != nil || !ok {
		return catalog.DefaultBaseURL
	}
	if apiURL := strings.TrimSpace(selected.APIURL); apiURL != "" {
		return apiURL
	}
	return catalog.DefaultBaseURL
}

// profileArg finds the --profile value before cobra parses the command line.
func profileArg(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if value, ok := strings.CutPrefix(arg, "--profile="); ok {
			return value
		}
		if arg == "--profile" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func fail(err error) int {
	_, _ = os.Stderr.WriteString(err.Error() + "\n")
	return 1
}
