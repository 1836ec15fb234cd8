package listing

import "github.com/mekedron/grocer-cli/internal/domain"

// Join pairs every product with the store its StoreID references.
// Products without a matching store are dropped. Output keeps product order.
func Join(products []domain.Product, stores []domain.Store) []domain.JoinedListing {
	byID := make(map[string]domain.Store, len(stores))
	for _, store := range stores {
		if _, seen := byID[store.ID]; seen {
			continue
		}
		byID[store.ID] = store
	}

	joined := make([]domain.JoinedListing, 0, len(products))
	for _, product := range products {
		store, ok := byID[product.StoreID]
		if !ok {
			continue
		}
		joined = append(joined, domain.JoinedListing{Store: store, Product: product})
	}
	return joined
}
