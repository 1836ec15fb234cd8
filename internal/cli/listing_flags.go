package cli

import (
	"fmt"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/service/listing"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// listingFlags are the filter, sort and page options shared by list commands.
type listingFlags struct {
	Query string
	Sort  string
	Desc  bool
	Page  int
}

func addListingFlags(cmd *cobra.Command, flags *listingFlags, keys []listing.SortKey) {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, string(key))
	}
	cmd.Flags().StringVar(&flags.Query, "query", "", "Case-insensitive name filter (optional)")
	cmd.Flags().StringVar(&flags.Sort, "sort", string(listing.SortNone), "Sort key: "+strings.Join(names, ", "))
	cmd.Flags().BoolVar(&flags.Desc, "desc", false, "Reverse the sort order")
	cmd.Flags().IntVar(&flags.Page, "page", 1, "1-based page number; out-of-range pages show page 1")
}

// query builds the engine query for these flags.
func (f listingFlags) query(fields supportChecker, reference *domain.Coordinate, locale string, pageSize int) (listing.Query, error) {
	key, err := listing.ParseSortKey(f.Sort)
	if err != nil {
		return listing.Query{}, fmt.Errorf("invalid --sort value %q", f.Sort)
	}
	if !fields.Supports(key) {
		return listing.Query{}, fmt.Errorf("--sort %s is not available for this listing", key)
	}
	if key == listing.SortDistance && reference == nil {
		return listing.Query{}, fmt.Errorf("--sort distance requires a reference point: use --address, --geohash, --lat/--lon, or a profile location")
	}
	tag, err := parseLocale(locale)
	if err != nil {
		return listing.Query{}, err
	}
	direction := listing.Ascending
	if f.Desc {
		direction = listing.Descending
	}
	return listing.Query{
		Text: f.Query,
		Order: listing.Order{
			Key:       key,
			Direction: direction,
			Reference: reference,
			Locale:    tag,
		},
		Page:     f.Page,
		PageSize: pageSize,
	}, nil
}

type supportChecker interface {
	Supports(key listing.SortKey) bool
}

func parseLocale(raw string) (language.Tag, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("invalid --locale value %q", raw)
	}
	return tag, nil
}
