// Package views turns listing pages into machine payloads and table text.
package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/service/listing"
	"github.com/mekedron/grocer-cli/internal/service/output"
)

const (
	geohashPrecision = 7
	noValue          = "-"
)

// StoreRows builds the payload for a page of stores.
func StoreRows(page listing.Page[domain.Store], reference *domain.Coordinate) map[string]any {
	rows := make([]map[string]any, 0, len(page.Items))
	for _, store := range page.Items {
		rows = append(rows, storeRow(store, reference))
	}
	return pagePayload(rows, page, reference)
}

// ListingRows builds the payload for a page of joined product listings.
func ListingRows(page listing.Page[domain.JoinedListing], reference *domain.Coordinate) map[string]any {
	rows := make([]map[string]any, 0, len(page.Items))
	for _, item := range page.Items {
		row := productRow(item.Product)
		row["store_name"] = item.Store.Name
		row["store_address"] = emptyToNil(item.Store.Address)
		setDistance(row, item.Store.Location, reference)
		rows = append(rows, row)
	}
	return pagePayload(rows, page, reference)
}

// ProductRows builds the payload for a page of products of one store.
func ProductRows(page listing.Page[domain.Product]) map[string]any {
	rows := make([]map[string]any, 0, len(page.Items))
	for _, product := range page.Items {
		rows = append(rows, productRow(product))
	}
	return pagePayload(rows, page, nil)
}

// StoreDetail builds the payload for one store and a page of its products.
func StoreDetail(store domain.Store, reference *domain.Coordinate, products listing.Page[domain.Product]) map[string]any {
	data := map[string]any{
		"store":    storeRow(store, reference),
		"products": ProductRows(products),
		"geohash":  nil,
	}
	if store.Location != nil {
		data["geohash"] = store.Location.Geohash(geohashPrecision)
	}
	return data
}

// Store builds the payload of a single store.
func Store(store domain.Store, reference *domain.Coordinate) map[string]any {
	return storeRow(store, reference)
}

// Product builds the payload of a single product.
func Product(product domain.Product) map[string]any {
	return productRow(product)
}

// PageWarnings reports a page request that could not be honored.
func PageWarnings[T any](page listing.Page[T]) []string {
	if !page.OutOfRange {
		return nil
	}
	return []string{fmt.Sprintf("page %d is out of range (1-%d); showing page %d", page.Requested, page.TotalPages, page.Number)}
}

// PageFooter renders the pagination line shown under tables.
func PageFooter(number, totalPages int, markers []listing.Marker) string {
	labels := make([]string, 0, len(markers))
	for _, marker := range markers {
		labels = append(labels, marker.String())
	}
	return fmt.Sprintf("page %d/%d  [%s]", number, totalPages, strings.Join(labels, " "))
}

// StoresTable renders a page of stores.
func StoresTable(page listing.Page[domain.Store], reference *domain.Coordinate) string {
	rows := make([][]string, 0, len(page.Items))
	for _, store := range page.Items {
		rows = append(rows, []string{store.ID, store.Name, orDash(store.Address), distanceLabel(store.Location, reference)})
	}
	title := fmt.Sprintf("Stores (%d)", page.TotalItems)
	if reference != nil {
		title = fmt.Sprintf("Stores near %s (%d)", reference.String(), page.TotalItems)
	}
	table := output.RenderTable(title, []string{"ID", "Name", "Address", "Distance"}, rows)
	return output.AppendFooter(table, PageFooter(page.Number, page.TotalPages, page.Markers))
}

// ListingsTable renders a page of joined product listings.
func ListingsTable(page listing.Page[domain.JoinedListing], reference *domain.Coordinate) string {
	rows := make([][]string, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, []string{
			item.Product.ID,
			item.Product.Name,
			formatPrice(item.Product),
			item.Store.Name,
			distanceLabel(item.Store.Location, reference),
		})
	}
	table := output.RenderTable(
		fmt.Sprintf("Products (%d)", page.TotalItems),
		[]string{"ID", "Product", "Price", "Store", "Distance"},
		rows,
	)
	return output.AppendFooter(table, PageFooter(page.Number, page.TotalPages, page.Markers))
}

// StoreDetailTable renders a store header followed by its products.
func StoreDetailTable(store domain.Store, reference *domain.Coordinate, products listing.Page[domain.Product]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", store.Name, store.ID)
	fmt.Fprintf(&b, "Address: %s\n", orDash(store.Address))
	fmt.Fprintf(&b, "Opening hours: %s\n", orDash(store.OpeningHours))
	fmt.Fprintf(&b, "Contact: %s\n", orDash(store.ContactInfo))
	if store.Location != nil {
		fmt.Fprintf(&b, "Location: %s (geohash %s)\n", store.Location.String(), store.Location.Geohash(geohashPrecision))
	} else {
		b.WriteString("Location: -\n")
	}
	if reference != nil {
		fmt.Fprintf(&b, "Distance: %s\n", distanceLabel(store.Location, reference))
	}
	if description := strings.TrimSpace(store.Description); description != "" {
		fmt.Fprintf(&b, "%s\n", description)
	}
	b.WriteByte('\n')

	rows := make([][]string, 0, len(products.Items))
	for _, product := range products.Items {
		rows = append(rows, []string{product.ID, product.Name, formatPrice(product), orDash(product.Description)})
	}
	b.WriteString(output.RenderTable(
		fmt.Sprintf("Products (%d)", products.TotalItems),
		[]string{"ID", "Product", "Price", "Description"},
		rows,
	))
	return output.AppendFooter(b.String(), PageFooter(products.Number, products.TotalPages, products.Markers))
}

func storeRow(store domain.Store, reference *domain.Coordinate) map[string]any {
	row := map[string]any{
		"id":            store.ID,
		"name":          store.Name,
		"address":       emptyToNil(store.Address),
		"contact_info":  emptyToNil(store.ContactInfo),
		"opening_hours": emptyToNil(store.OpeningHours),
		"description":   emptyToNil(store.Description),
		"image_link":    emptyToNil(store.ImageLink),
		"location":      nil,
	}
	if store.Location != nil {
		row["location"] = map[string]any{"lat": store.Location.Lat, "lon": store.Location.Lon}
	}
	setDistance(row, store.Location, reference)
	return row
}

func productRow(product domain.Product) map[string]any {
	return map[string]any{
		"id":          product.ID,
		"name":        product.Name,
		"price":       formatPrice(product),
		"description": emptyToNil(product.Description),
		"image_link":  emptyToNil(product.ImageLink),
		"store_id":    product.StoreID,
	}
}

func pagePayload[T any](rows []map[string]any, page listing.Page[T], reference *domain.Coordinate) map[string]any {
	markers := page.Markers
	if markers == nil {
		markers = []listing.Marker{}
	}
	data := map[string]any{
		"items":       rows,
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"total":       page.TotalItems,
		"count":       len(rows),
		"pages":       markers,
	}
	if reference != nil {
		data["reference"] = map[string]any{"lat": reference.Lat, "lon": reference.Lon}
	}
	return data
}

// setDistance adds distance fields when a reference point is known.
func setDistance(row map[string]any, location, reference *domain.Coordinate) {
	if reference == nil {
		return
	}
	row["distance"] = distanceLabel(location, reference)
	row["distance_m"] = nil
	if location != nil {
		row["distance_m"] = math.Round(listing.Distance(*reference, *location))
	}
}

func distanceLabel(location, reference *domain.Coordinate) string {
	if location == nil || reference == nil {
		return noValue
	}
	return listing.FormatDistance(listing.Distance(*reference, *location))
}

func formatPrice(product domain.Product) string {
	return product.Price.StringFixed(2)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return noValue
	}
	return value
}

func emptyToNil(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
