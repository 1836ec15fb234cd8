package cli

import (
	"bytes"
	"context"
	"net/http"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/gateway/catalog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type testCatalog struct {
	stores   domain.Batch[domain.Store]
	products domain.Batch[domain.Product]
	err      error

	created        []domain.Store
	createdItems   []domain.Product
	storeUpdates   []domain.Store
	productUpdates []domain.ProductChanges
	deletedStores  []string
	deletedItems   []string
}

func (m *testCatalog) Stores(context.Context) (domain.Batch[domain.Store], error) {
	if m.err != nil {
		return domain.Batch[domain.Store]{}, m.err
	}
	return m.stores, nil
}

func (m *testCatalog) StoreByID(_ context.Context, storeID string) (domain.Store, error) {
	if m.err != nil {
		return domain.Store{}, m.err
	}
	for _, store := range m.stores.Items {
		if store.ID == storeID {
			return store, nil
		}
	}
	return domain.Store{}, &catalog.APIError{Status: 404, Message: "Store not found"}
}

func (m *testCatalog) Products(context.Context) (domain.Batch[domain.Product], error) {
	if m.err != nil {
		return domain.Batch[domain.Product]{}, m.err
	}
	return m.products, nil
}

func (m *testCatalog) ProductsByStore(_ context.Context, storeID string) (domain.Batch[domain.Product], error) {
	if m.err != nil {
		return domain.Batch[domain.Product]{}, m.err
	}
	batch := domain.Batch[domain.Product]{}
	for _, product := range m.products.Items {
		if product.StoreID == storeID {
			batch.Items = append(batch.Items, product)
		}
	}
	return batch, nil
}

func (m *testCatalog) ProductByID(_ context.Context, productID string) (domain.Product, error) {
	for _, product := range m.products.Items {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, &catalog.APIError{Status: 404, Message: "Product not found"}
}

func (m *testCatalog) CreateStore(_ context.Context, store domain.Store) (domain.Store, error) {
	if m.err != nil {
		return domain.Store{}, m.err
	}
	store.ID = "store-new"
	m.created = append(m.created, store)
	return store, nil
}

func (m *testCatalog) UpdateStore(_ context.Context, storeID string, store domain.Store) (domain.Store, error) {
	if m.err != nil {
		return domain.Store{}, m.err
	}
	m.storeUpdates = append(m.storeUpdates, store)
	store.ID = storeID
	return store, nil
}

func (m *testCatalog) DeleteStore(_ context.Context, storeID string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedStores = append(m.deletedStores, storeID)
	return nil
}

func (m *testCatalog) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	product.ID = "product-new"
	m.createdItems = append(m.createdItems, product)
	return product, nil
}

func (m *testCatalog) UpdateProduct(ctx context.Context, productID string, changes domain.ProductChanges) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	m.productUpdates = append(m.productUpdates, changes)
	product, err := m.ProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if changes.Name != nil {
		product.Name = *changes.Name
	}
	if changes.Description != nil {
		product.Description = *changes.Description
	}
	if changes.Price != nil {
		product.Price = *changes.Price
	}
	if changes.ImageLink != nil {
		product.ImageLink = *changes.ImageLink
	}
	if changes.StoreID != nil {
		product.StoreID = *changes.StoreID
	}
	return product, nil
}

func (m *testCatalog) DeleteProduct(_ context.Context, productID string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedItems = append(m.deletedItems, productID)
	return nil
}

type testProfiles struct {
	profile domain.Profile
	err     error
}

func (m *testProfiles) Find(context.Context, string) (domain.Profile, error) {
	if m.err != nil {
		return domain.Profile{}, m.err
	}
	return m.profile, nil
}

type testLocation struct {
	location domain.Coordinate
	err      error
	queries  []string
}

func (m *testLocation) Get(_ context.Context, address string) (domain.Coordinate, error) {
	m.queries = append(m.queries, address)
	if m.err != nil {
		return domain.Coordinate{}, m.err
	}
	return m.location, nil
}

type testConfigManager struct {
	cfg     domain.Config
	loadErr error
	saves   int
}

func (m *testConfigManager) Path() string {
	return "/tmp/test-config.json"
}

func (m *testConfigManager) Load(context.Context) (domain.Config, error) {
	if m.loadErr != nil {
		return domain.Config{}, m.loadErr
	}
	return m.cfg, nil
}

func (m *testConfigManager) Save(_ context.Context, cfg domain.Config) error {
	m.cfg = cfg
	m.saves++
	return nil
}

type testServer struct {
	addr    string
	handler http.Handler
}

func (s *testServer) serve(_ context.Context, addr string, handler http.Handler) error {
	s.addr = addr
	s.handler = handler
	return nil
}

// testStores returns three Yogyakarta stores; store-3 has no coordinates.
func testStores() domain.Batch[domain.Store] {
	return domain.Batch[domain.Store]{
		Items: []domain.Store{
			{ID: "store-1", Name: "Toko Maju", Address: "Jl. Kaliurang 5", Location: &domain.Coordinate{Lat: -7.7600, Lon: 110.3800}},
			{ID: "store-2", Name: "Alfa Mart", Address: "Jl. Malioboro 1", Location: &domain.Coordinate{Lat: -7.7929, Lon: 110.3658}},
			{ID: "store-3", Name: "Warung Bu Sri"},
		},
		Issues: []*domain.ValidationError{
			{Kind: domain.RecordStore, RecordID: "store-3", Field: "location", Reason: "missing coordinates"},
		},
	}
}

func testProducts() domain.Batch[domain.Product] {
	return domain.Batch[domain.Product]{
		Items: []domain.Product{
			{ID: "p-1", Name: "Beras 5kg", Price: decimal.RequireFromString("72000"), StoreID: "store-1"},
			{ID: "p-2", Name: "Minyak Goreng", Price: decimal.RequireFromString("18500.50"), StoreID: "store-2"},
			{ID: "p-3", Name: "Beras Merah", Price: decimal.RequireFromString("31000"), StoreID: "store-2"},
			{ID: "p-4", Name: "Gula", Price: decimal.RequireFromString("15000"), StoreID: "store-missing"},
		},
	}
}

func newTestCatalog() *testCatalog {
	return &testCatalog{stores: testStores(), products: testProducts()}
}

func runCLI(t interface{ Helper() }, deps Dependencies, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := Execute(context.Background(), args, deps, stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func findCommand(root *cobra.Command, path ...string) (*cobra.Command, bool) {
	current := root
	for _, name := range path {
		var next *cobra.Command
		for _, child := range current.Commands() {
			if child.Name() == name {
				next = child
				break
			}
		}
		if next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}
