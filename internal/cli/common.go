package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/grocer-cli/internal/config"
	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/gateway/catalog"
	"github.com/mekedron/grocer-cli/internal/gateway/catalogdb"
	"github.com/mekedron/grocer-cli/internal/service/output"
	"github.com/mekedron/grocer-cli/internal/service/profile"
	"github.com/spf13/cobra"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

const (
	codeInvalidArgument = "GROCER_INVALID_ARGUMENT"
	codeUpstream        = "GROCER_UPSTREAM_ERROR"
	codeLocation        = "GROCER_LOCATION_RESOLVE_ERROR"
	codeProfile         = "GROCER_PROFILE_ERROR"
	codeNotFound        = "GROCER_NOT_FOUND"
	codeValidation      = "GROCER_VALIDATION_ERROR"
)

type globalFlags struct {
	Format  string
	Profile string
	Address string
	Lat     float64
	Lon     float64
	Geohash string
	Locale  string
	Output  string
	Verbose bool
}

const (
	sharedGlobalFlagAnnotation = "grocer_cli_shared_global"
	defaultLocale              = "en"
)

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Profile name for saved local defaults.")
	})
	addSharedGlobalFlag(cmd, "address", func() {
		cmd.Flags().StringVar(&flags.Address, "address", "", "Reference address for distances. Geocoded to coordinates. Cannot be combined with --lat/--lon or --geohash.")
	})
	addSharedGlobalFlag(cmd, "lat", func() {
		cmd.Flags().Float64Var(&flags.Lat, "lat", 0, "Reference latitude in decimal degrees (requires --lon).")
	})
	addSharedGlobalFlag(cmd, "lon", func() {
		cmd.Flags().Float64Var(&flags.Lon, "lon", 0, "Reference longitude in decimal degrees (requires --lat).")
	})
	addSharedGlobalFlag(cmd, "geohash", func() {
		cmd.Flags().StringVar(&flags.Geohash, "geohash", "", "Reference point as a geohash cell, for example qqguwv1.")
	})
	addSharedGlobalFlag(cmd, "locale", func() {
		cmd.Flags().StringVar(&flags.Locale, "locale", defaultLocale, "Locale in BCP-47 format used for name ordering, for example id-ID.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Also write rendered output to this file.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace and detailed error diagnostics).")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

func resolveProfileLabel(profileName string) string {
	profile := strings.TrimSpace(profileName)
	if profile == "" {
		return "anonymous"
	}
	return profile
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	if err := output.WriteOutput(cmd.OutOrStdout(), text, outputPath); err != nil {
		return err
	}
	return nil
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	if err := output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath); err != nil {
		return err
	}
	return nil
}

func writeWarnings(cmd *cobra.Command, warnings []string) {
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	locale string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildErrorEnvelope(profile, locale, code, message, []string{})
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

// session carries the resolved global options of one command run.
type session struct {
	cmd       *cobra.Command
	flags     *globalFlags
	format    output.Format
	profile   string
	locale    string
	reference *domain.Coordinate
}

func (s *session) fail(code, message string) error {
	return emitError(s.cmd, s.format, s.profile, s.locale, s.flags.Output, code, message)
}

// emit writes data as a machine envelope, or table text in table mode.
func (s *session) emit(data any, table string, warnings []string) error {
	if s.format == output.FormatTable {
		writeWarnings(s.cmd, warnings)
		return writeTable(s.cmd, table, s.flags.Output)
	}
	env := output.BuildEnvelope(s.profile, s.locale, data, warnings, nil)
	return writeMachinePayload(s.cmd, env, s.format, s.flags.Output)
}

// newSession parses output options and resolves the reference point.
// Errors are already written to the output when a non-nil error is returned.
func newSession(ctx context.Context, cmd *cobra.Command, deps Dependencies, flags *globalFlags) (*session, error) {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return nil, err
	}
	s := &session{
		cmd:     cmd,
		flags:   flags,
		format:  format,
		profile: resolveProfileLabel(flags.Profile),
		locale:  strings.TrimSpace(flags.Locale),
	}
	if s.locale == "" {
		s.locale = defaultLocale
	}
	if err := s.resolveReference(ctx, deps); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) resolveReference(ctx context.Context, deps Dependencies) error {
	address := strings.TrimSpace(s.flags.Address)
	hash := strings.TrimSpace(s.flags.Geohash)
	latSet := s.cmd.Flags().Changed("lat")
	lonSet := s.cmd.Flags().Changed("lon")

	sources := 0
	for _, set := range []bool{address != "", hash != "", latSet || lonSet} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return s.fail(codeInvalidArgument, "Use only one of --address, --geohash, or --lat/--lon.")
	}

	switch {
	case latSet || lonSet:
		if !latSet || !lonSet {
			return s.fail(codeInvalidArgument, "Both --lat and --lon must be provided together.")
		}
		point := domain.Coordinate{Lat: s.flags.Lat, Lon: s.flags.Lon}
		if err := point.Validate(); err != nil {
			return s.fail(codeInvalidArgument, err.Error())
		}
		s.reference = &point
		return nil
	case hash != "":
		point, err := domain.CoordinateFromGeohash(hash)
		if err != nil {
			return s.fail(codeInvalidArgument, err.Error())
		}
		s.reference = &point
		return nil
	case address != "":
		return s.geocode(ctx, deps, address)
	}

	return s.resolveProfileReference(ctx, deps)
}

func (s *session) geocode(ctx context.Context, deps Dependencies, address string) error {
	if deps.Location == nil {
		return s.fail(codeLocation, "Location resolver is not available.")
	}
	point, err := deps.Location.Get(ctx, address)
	if err != nil {
		return s.fail(codeLocation, err.Error())
	}
	s.reference = &point
	return nil
}

// resolveProfileReference falls back to the saved profile. Running without any
// config is allowed and leaves the reference unset.
func (s *session) resolveProfileReference(ctx context.Context, deps Dependencies) error {
	if deps.Profiles == nil {
		return nil
	}
	selected, err := deps.Profiles.Find(ctx, s.flags.Profile)
	if err != nil {
		if strings.TrimSpace(s.flags.Profile) == "" &&
			(errors.Is(err, config.ErrConfigNotFound) || errors.Is(err, profile.ErrDefaultProfileNotFound)) {
			return nil
		}
		return s.fail(codeProfile, err.Error())
	}
	s.profile = selected.Name
	if !s.cmd.Flags().Changed("locale") && strings.TrimSpace(selected.Locale) != "" {
		s.locale = strings.TrimSpace(selected.Locale)
	}
	if selected.Location != nil {
		point := *selected.Location
		s.reference = &point
		return nil
	}
	if address := strings.TrimSpace(selected.Address); address != "" {
		return s.geocode(ctx, deps, address)
	}
	return nil
}

// catalogError maps catalog failures onto envelope error codes.
func (s *session) catalogError(err error) error {
	if err == nil {
		err = catalog.ErrUpstream
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return s.fail(codeValidation, validationErr.Error())
	}
	if errors.Is(err, catalogdb.ErrNotFound) {
		return s.fail(codeNotFound, err.Error())
	}

	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		code := codeUpstream
		if apiErr.Status == 404 {
			code = codeNotFound
		}
		if s.flags.Verbose {
			return s.fail(code, apiErr.Detail())
		}
		return s.fail(code, fmt.Sprintf("%s (status %d)", apiErr.Message, apiErr.Status))
	}
	if s.flags.Verbose {
		return s.fail(codeUpstream, err.Error())
	}
	return s.fail(codeUpstream, catalog.ErrUpstream.Error()+" (use --verbose for details)")
}

func requiredArg(name string) string {
	return fmt.Sprintf("%s is required", name)
}
