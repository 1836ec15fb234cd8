package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/grocer-cli/internal/config"
	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var profileName string
	var lat float64
	var lon float64
	var geohash string
	var address string
	var apiURL string
	var locale string
	var makeDefault bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create or update a local profile (home location, API url, locale).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Config == nil {
				return fmt.Errorf("config store is not available")
			}
			name := strings.TrimSpace(profileName)
			if name == "" {
				return errors.New(requiredArg("--profile-name"))
			}

			location, err := configuredLocation(cmd, lat, lon, geohash)
			if err != nil {
				return err
			}
			if location != nil && strings.TrimSpace(address) != "" {
				return fmt.Errorf("use either --address or a coordinate, not both")
			}
			if tag := strings.TrimSpace(locale); tag != "" {
				if _, err := language.Parse(tag); err != nil {
					return fmt.Errorf("invalid --locale value %q", locale)
				}
			}

			existingCfg, loadErr := deps.Config.Load(cmd.Context())
			if loadErr != nil && !errors.Is(loadErr, config.ErrConfigNotFound) && !overwrite {
				return fmt.Errorf("%w (use --overwrite to replace it)", loadErr)
			}
			if loadErr != nil || overwrite {
				existingCfg = domain.Config{}
			}

			index := findProfileIndex(existingCfg, name)
			created := index < 0
			if created {
				existingCfg.Profiles = append(existingCfg.Profiles, domain.Profile{Name: name})
				index = len(existingCfg.Profiles) - 1
			}
			selected := &existingCfg.Profiles[index]
			if location != nil {
				selected.Location = location
				selected.Address = ""
			}
			if trimmed := strings.TrimSpace(address); trimmed != "" {
				selected.Address = trimmed
				selected.Location = nil
			}
			if trimmed := strings.TrimSpace(apiURL); trimmed != "" {
				selected.APIURL = trimmed
			}
			if trimmed := strings.TrimSpace(locale); trimmed != "" {
				selected.Locale = trimmed
			}
			if makeDefault || len(existingCfg.Profiles) == 1 {
				for i := range existingCfg.Profiles {
					existingCfg.Profiles[i].IsDefault = i == index
				}
			}

			if err := deps.Config.Save(cmd.Context(), existingCfg); err != nil {
				return err
			}
			if created {
				return writeTable(cmd, fmt.Sprintf("Profile %q saved to %s.", name, deps.Config.Path()), "")
			}
			return writeTable(cmd, fmt.Sprintf("Profile %q updated in %s.", name, deps.Config.Path()), "")
		},
	}

	cmd.Flags().StringVar(&profileName, "profile-name", "default", "Profile name")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Home latitude (requires --lon)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Home longitude (requires --lat)")
	cmd.Flags().StringVar(&geohash, "geohash", "", "Home location as a geohash cell")
	cmd.Flags().StringVar(&address, "address", "", "Home address, geocoded when a command needs a reference point")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Catalog API base url, for example http://localhost:5000/api/")
	cmd.Flags().StringVar(&locale, "locale", "", "Locale for name ordering, for example id-ID")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default profile")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Discard the existing config and start fresh")
	return cmd
}

func configuredLocation(cmd *cobra.Command, lat, lon float64, geohash string) (*domain.Coordinate, error) {
	latSet := cmd.Flags().Changed("lat")
	lonSet := cmd.Flags().Changed("lon")
	hash := strings.TrimSpace(geohash)
	if (latSet || lonSet) && hash != "" {
		return nil, fmt.Errorf("use either --lat/--lon or --geohash")
	}
	if hash != "" {
		point, err := domain.CoordinateFromGeohash(hash)
		if err != nil {
			return nil, err
		}
		return &point, nil
	}
	if !latSet && !lonSet {
		return nil, nil
	}
	if !latSet || !lonSet {
		return nil, fmt.Errorf("both --lat and --lon must be provided together")
	}
	point := domain.Coordinate{Lat: lat, Lon: lon}
	if err := point.Validate(); err != nil {
		return nil, err
	}
	return &point, nil
}

func findProfileIndex(cfg domain.Config, profileName string) int {
	trimmed := strings.TrimSpace(profileName)
	for i, profile := range cfg.Profiles {
		if strings.EqualFold(strings.TrimSpace(profile.Name), trimmed) {
			return i
		}
	}
	return -1
}
