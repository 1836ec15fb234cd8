package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/service/listing"
	"github.com/mekedron/grocer-cli/internal/service/views"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newProductsCommand(deps Dependencies) *cobra.Command {
	products := &cobra.Command{
		Use:   "products",
		Short: "Compare products across stores and manage catalog products.",
	}
	products.AddCommand(newProductsListCommand(deps))
	products.AddCommand(newProductsShowCommand(deps))
	products.AddCommand(newProductsCreateCommand(deps))
	products.AddCommand(newProductsUpdateCommand(deps))
	products.AddCommand(newProductsDeleteCommand(deps))
	return products
}

func newProductsListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var list listingFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products joined with their stores.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			query, err := list.query(listing.ListingFields, s.reference, s.locale, listing.ProductPageSize)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if deps.Catalog == nil {
				return s.fail(codeUpstream, "catalog source is not available")
			}

			products, err := deps.Catalog.Products(cmd.Context())
			if err != nil {
				return s.catalogError(err)
			}
			stores, err := deps.Catalog.Stores(cmd.Context())
			if err != nil {
				return s.catalogError(err)
			}
			joined := listing.Join(products.Items, stores.Items)
			page, err := listing.Run(joined, listing.ListingFields, query)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}

			warnings := append(products.Warnings(), stores.Warnings()...)
			if orphans := len(products.Items) - len(joined); orphans > 0 {
				warnings = append(warnings, fmt.Sprintf("%d products skipped: store not found", orphans))
			}
			warnings = append(warnings, views.PageWarnings(page)...)
			return s.emit(views.ListingRows(page, s.reference), views.ListingsTable(page, s.reference), warnings)
		},
	}

	addListingFlags(cmd, &list, []listing.SortKey{listing.SortNone, listing.SortName, listing.SortPrice, listing.SortDistance})
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProductsShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			reader, ok := deps.Catalog.(productReader)
			if !ok {
				return s.fail(codeUpstream, "product lookup is not available for this source")
			}
			product, err := reader.ProductByID(cmd.Context(), args[0])
			if err != nil {
				return s.catalogError(err)
			}
			table := fmt.Sprintf("%s (%s)\nPrice: %s\nStore: %s", product.Name, product.ID, product.Price.StringFixed(2), product.StoreID)
			if description := strings.TrimSpace(product.Description); description != "" {
				table += "\n" + description
			}
			return s.emit(map[string]any{"product": views.Product(product)}, table, nil)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

type productInput struct {
	Name        string
	Price       string
	StoreID     string
	Description string
	ImageLink   string
}

func addProductInputFlags(cmd *cobra.Command, input *productInput) {
	cmd.Flags().StringVar(&input.Name, "name", "", "Product name")
	cmd.Flags().StringVar(&input.Price, "price", "", "Price as a decimal number, for example 12500.50")
	cmd.Flags().StringVar(&input.StoreID, "store-id", "", "Owning store id")
	cmd.Flags().StringVar(&input.Description, "description", "", "Product description")
	cmd.Flags().StringVar(&input.ImageLink, "image", "", "Image url")
}

func (in productInput) toProduct() (domain.Product, error) {
	product := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		StoreID:     strings.TrimSpace(in.StoreID),
		Description: strings.TrimSpace(in.Description),
		ImageLink:   strings.TrimSpace(in.ImageLink),
	}
	if strings.TrimSpace(in.Price) == "" {
		return domain.Product{}, errors.New(requiredArg("--price"))
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}
	product.Price = price
	if product.Name == "" {
		return domain.Product{}, errors.New(requiredArg("--name"))
	}
	if product.StoreID == "" {
		return domain.Product{}, errors.New(requiredArg("--store-id"))
	}
	return product, nil
}

// toChanges keeps only the flags given on the command line.
func (in productInput) toChanges(cmd *cobra.Command) (domain.ProductChanges, error) {
	var changes domain.ProductChanges
	flags := cmd.Flags()
	if flags.Changed("name") {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return changes, errors.New("--name must not be empty")
		}
		changes.Name = &name
	}
	if flags.Changed("store-id") {
		storeID := strings.TrimSpace(in.StoreID)
		if storeID == "" {
			return changes, errors.New("--store-id must not be empty")
		}
		changes.StoreID = &storeID
	}
	if flags.Changed("price") {
		price, err := parsePrice(in.Price)
		if err != nil {
			return changes, err
		}
		changes.Price = &price
	}
	if flags.Changed("description") {
		description := strings.TrimSpace(in.Description)
		changes.Description = &description
	}
	if flags.Changed("image") {
		imageLink := strings.TrimSpace(in.ImageLink)
		changes.ImageLink = &imageLink
	}
	if changes.IsEmpty() {
		return changes, errors.New("nothing to update: pass at least one of --name, --price, --store-id, --description, --image")
	}
	return changes, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --price value %q", raw)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("--price must be >= 0")
	}
	return price, nil
}

func newProductsCreateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input productInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product for a store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			product, err := input.toProduct()
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			created, err := deps.Writer.CreateProduct(cmd.Context(), product)
			if err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"product": views.Product(created)},
				fmt.Sprintf("Product %s created (%s).", created.Name, created.ID),
				nil,
			)
		},
	}

	addProductInputFlags(cmd, &input)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProductsUpdateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input productInput

	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update fields of an existing product.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			changes, err := input.toChanges(cmd)
			if err != nil {
				return s.fail(codeInvalidArgument, err.Error())
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			updated, err := deps.Writer.UpdateProduct(cmd.Context(), args[0], changes)
			if err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"product": views.Product(updated)},
				fmt.Sprintf("Product %s updated.", updated.ID),
				nil,
			)
		},
	}

	addProductInputFlags(cmd, &input)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProductsDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product from the catalog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), cmd, deps, &flags)
			if err != nil {
				return err
			}
			if deps.Writer == nil {
				return s.fail(codeUpstream, "catalog writes are not available for this source")
			}
			if err := deps.Writer.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return s.catalogError(err)
			}
			return s.emit(
				map[string]any{"deleted": true, "product_id": args[0]},
				fmt.Sprintf("Product %s deleted.", args[0]),
				nil,
			)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}
