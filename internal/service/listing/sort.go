package listing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	// ErrUnsupportedSortKey is returned when a view cannot be ordered by the key.
	ErrUnsupportedSortKey = errors.New("unsupported sort key")
	// ErrReferenceRequired is returned for distance ordering without a reference point.
	ErrReferenceRequired = errors.New("distance sort requires a reference point")
)

// SortKey selects the field a listing is ordered by.
type SortKey string

const (
	SortNone     SortKey = "none"
	SortName     SortKey = "name"
	SortPrice    SortKey = "price"
	SortDistance SortKey = "distance"
)

// ParseSortKey parses sort key values. "location" is accepted for distance.
func ParseSortKey(value string) (SortKey, error) {
	v := SortKey(strings.ToLower(strings.TrimSpace(value)))
	switch v {
	case "":
		return SortNone, nil
	case "location":
		return SortDistance, nil
	case SortNone, SortName, SortPrice, SortDistance:
		return v, nil
	default:
		return "", fmt.Errorf("invalid sort key %q; expected one of: none, name, price, distance", value)
	}
}

// SortDirection controls ascending or descending order.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection parses sort direction values.
func ParseSortDirection(value string) (SortDirection, error) {
	v := SortDirection(strings.ToLower(strings.TrimSpace(value)))
	switch v {
	case "", Ascending, "ascending":
		return Ascending, nil
	case Descending, "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q; expected asc or desc", value)
	}
}

// Fields tells the engine how to read sortable values out of a listing item.
// Price and Location are nil for views that cannot be ordered by them.
type Fields[T any] struct {
	Name     func(T) string
	Price    func(T) decimal.Decimal
	Location func(T) *domain.Coordinate
}

// Supports reports whether items can be ordered by key.
func (f Fields[T]) Supports(key SortKey) bool {
	switch key {
	case SortNone:
		return true
	case SortName:
		return f.Name != nil
	case SortPrice:
		return f.Price != nil
	case SortDistance:
		return f.Location != nil
	default:
		return false
	}
}

// StoreFields reads stores.
var StoreFields = Fields[domain.Store]{
	Name:     func(s domain.Store) string { return s.Name },
	Location: func(s domain.Store) *domain.Coordinate { return s.Location },
}

// ProductFields reads products of a single store.
var ProductFields = Fields[domain.Product]{
	Name:  func(p domain.Product) string { return p.Name },
	Price: func(p domain.Product) decimal.Decimal { return p.Price },
}

// ListingFields reads joined product listings. Distance is the owning store's.
var ListingFields = Fields[domain.JoinedListing]{
	Name:     func(l domain.JoinedListing) string { return l.Product.Name },
	Price:    func(l domain.JoinedListing) decimal.Decimal { return l.Product.Price },
	Location: func(l domain.JoinedListing) *domain.Coordinate { return l.Store.Location },
}

// Order describes a requested ordering.
type Order struct {
	Key       SortKey
	Direction SortDirection
	Reference *domain.Coordinate
	Locale    language.Tag
}

type sortEntry[T any] struct {
	item     T
	distance float64
	located  bool
}

// Sort returns a new slice ordered by order. Equal keys keep their input order
// in both directions.
func Sort[T any](items []T, fields Fields[T], order Order) ([]T, error) {
	key := order.Key
	if key == "" {
		key = SortNone
	}
	if !fields.Supports(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSortKey, key)
	}
	if key == SortDistance && order.Reference == nil {
		return nil, ErrReferenceRequired
	}

	sorted := slices.Clone(items)
	if key == SortNone || len(sorted) < 2 {
		return sorted, nil
	}

	entries := make([]sortEntry[T], len(sorted))
	for i, item := range sorted {
		entries[i].item = item
		if key == SortDistance {
			if location := fields.Location(item); location != nil {
				entries[i].distance = Distance(*order.Reference, *location)
				entries[i].located = true
			}
		}
	}

	compare := comparator(fields, key, order.Locale)
	sign := 1
	if order.Direction == Descending {
		sign = -1
	}
	slices.SortStableFunc(entries, func(a, b sortEntry[T]) int {
		if key == SortDistance && a.located != b.located {
			if a.located {
				return -1
			}
			return 1
		}
		return sign * compare(a, b)
	})

	for i := range entries {
		sorted[i] = entries[i].item
	}
	return sorted, nil
}

func comparator[T any](fields Fields[T], key SortKey, locale language.Tag) func(a, b sortEntry[T]) int {
	switch key {
	case SortName:
		collator := collate.New(locale)
		return func(a, b sortEntry[T]) int {
			return collator.CompareString(fields.Name(a.item), fields.Name(b.item))
		}
	case SortPrice:
		return func(a, b sortEntry[T]) int {
			return fields.Price(a.item).Cmp(fields.Price(b.item))
		}
	case SortDistance:
		return func(a, b sortEntry[T]) int {
			switch {
			case a.distance < b.distance:
				return -1
			case a.distance > b.distance:
				return 1
			default:
				return 0
			}
		}
	default:
		return func(sortEntry[T], sortEntry[T]) int { return 0 }
	}
}
