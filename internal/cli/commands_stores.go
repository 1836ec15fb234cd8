package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/service/listing"
	"github.com/mekedron/grocer-cli/internal/service/views"
	"github.com/spf13/cobra"
)

func newStoresCommand(deps Dependencies) *cobra.Command {
	stores := &cobra.Command{
		Use:   "stores",
		Short: "List, inspect, and manage grocery stores.",
	}
	stores.AddCommand(newStoresListCommand(deps))
	stores.AddCommand(newStoresShowCommand(deps))
	stores.AddCommand(newStoresCreateCommand(deps))
	stores.AddCommand(newStoresUpdateCommand(deps))
	stores.AddCommand(newStoresDeleteCommand(deps))
	return stores
}

func newStoresListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var list listingFlags
	var radius float64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stores, optionally by distance from a reference point.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
				return s.fail(codeInvalidArgument, "--radius must be a finite number >= 0")
			}
			if radius > 0 && s.reference == nil {
				return s.fail(codeInvalidArgument, "--radius requires a reference point: use --address, --geohash, --lat/--lon, or a profile location")
			}
			query, err := list.query(listing.StoreFields, s.reference, s.locale, listing.StorePageSize)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if deps.Catalog == nil {
				return s.fail(codeUpstream, "catalog source is not available")
			}

			batch, err := deps.Catalog.Stores(cmd.Context())
			if err != nil {
				return s.catalogError(err)
			}
			candidates := batch.Items
			if radius > 0 {
				candidates = listing.NewIndex(candidates).Within(*s.reference, radius)
			}
			page, err := listing.Run(candidates, listing.StoreFields, query)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}

			warnings := append(batch.Warnings(), views.PageWarnings(page)...)
			data := views.StoreRows(page, s.reference)
			if radius > 0 {
				data["radius_m"] = radius
			}
			return s.emit(data, views.StoresTable(page, s.reference), warnings)
		},
	}

	addListingFlags(cmd, &list, []listing.SortKey{listing.SortNone, listing.SortName, listing.SortDistance})
	cmd.Flags().Float64Var(&radius, "radius", 0, "Only include stores within this many meters of the reference point")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newStoresShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var list listingFlags

	cmd := &cobra.Command{
		Use:   "show <store-id>",
		Short: "Show store details and its products.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			storeID := strings.TrimSpace(args[0])
			if storeID == "" {
				return s.fail(codeInvalidArgument, requiredArg("store-id"))
			}
			query, err := list.query(listing.ProductFields, s.reference, s.locale, listing.ProductPageSize)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if deps.Catalog == nil {
				return s.fail(codeUpstream, "catalog source is not available")
			}

			store, err := deps.Catalog.StoreByID(cmd.Context(), storeID)
			if err != nil {
				return s.catalogError(err)
			}
			products, err := deps.Catalog.ProductsByStore(cmd.Context(), storeID)
			if err != nil {
				return s.catalogError(err)
			}
			page, err := listing.Run(products.Items, listing.ProductFields, query)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}

			warnings := append(products.Warnings(), views.PageWarnings(page)...)
			return s.emit(
				views.StoreDetail(store, s.reference, page),
				views.StoreDetailTable(store, s.reference, page),
				warnings,
			)
		},
	}

	addListingFlags(cmd, &list, []listing.SortKey{listing.SortNone, listing.SortName, listing.SortPrice})
	addGlobalFlags(cmd, &flags)
	return cmd
}

type storeInput struct {
	Name         string
	Address      string
	Lat          float64
	Lon          float64
	ContactInfo  string
	OpeningHours string
	Description  string
	ImageLink    string
}

func addStoreInputFlags(cmd *cobra.Command, input *storeInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "Store name")
	cmd.Flags().StringVar(&input.Address, "store-address", "", "Street address shown for the store")
	cmd.Flags().Float64Var(&input.Lat, "store-lat", 0, "Store latitude (requires --store-lon)")
	cmd.Flags().Float64Var(&input.Lon, "store-lon", 0, "Store longitude (requires --store-lat)")
	cmd.Flags().StringVar(&input.ContactInfo, "contact", "", "Contact information")
	cmd.Flags().StringVar(&input.OpeningHours, "hours", "", "Opening hours, for example \"8 AM - 9 PM\"")
	cmd.Flags().StringVar(&input.Description, "description", "", "Store description")
	cmd.Flags().StringVar(&input.ImageLink, "image", "", "Image url")
}

func (in storeInput) toStore(cmd *cobra.Command) (domain.Store, error) {
	store := domain.Store{
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		ContactInfo:  strings.TrimSpace(in.ContactInfo),
		OpeningHours: strings.TrimSpace(in.OpeningHours),
		Description:  strings.TrimSpace(in.Description),
		ImageLink:    strings.TrimSpace(in.ImageLink),
	}
	latSet := cmd.Flags().Changed("store-lat")
	lonSet := cmd.Flags().Changed("store-lon")
	if latSet != lonSet {
		return domain.Store{}, fmt.Errorf("--store-lat and --store-lon must be provided together")
	}
	if latSet {
		location := domain.Coordinate{Lat: in.Lat, Lon: in.Lon}
		if err := location.Validate(); err != nil {
			return domain.Store{}, err
		}
		store.Location = &location
	}
	return store, nil
}

func newStoresCreateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input storeInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a store in the catalog.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			store, err := input.toStore(cmd)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if store.Name == "" {
				return s.fail(codeInvalidArgument, requiredArg("--name"))
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			created, err := deps.Writer.CreateStore(cmd.Context(), store)
			if err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"store": views.Store(created, s.reference)},
				fmt.Sprintf("Store %s created (%s).", created.Name, created.ID),
				nil,
			)
		},
	}

	addStoreInputFlags(cmd, &input)
	_ = cmd.MarkFlagRequired("name")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newStoresUpdateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input storeInput

	cmd := &cobra.Command{
		Use:   "update <store-id>",
		Short: "Update fields of an existing store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			store, err := input.toStore(cmd)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if store == (domain.Store{}) {
				return s.fail(codeInvalidArgument, "nothing to update: pass at least one store field flag")
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			updated, err := deps.Writer.UpdateStore(cmd.Context(), args[0], store)
			if err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"store": views.Store(updated, s.reference)},
				fmt.Sprintf("Store %s updated.", updated.ID),
				nil,
			)
		},
	}

	addStoreInputFlags(cmd, &input)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newStoresDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <store-id>",
		Short: "Delete a store from the catalog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			if err := deps.Writer.DeleteStore(cmd.Context(), args[0]); err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"deleted": true, "store_id": args[0]},
				fmt.Sprintf("Store %s deleted.", args[0]),
				nil,
			)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}
