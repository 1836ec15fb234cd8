package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/shopspring/decimal"
)

var errMissing = errors.New("is missing")

type wireStore struct {
	ID           json.RawMessage `json:"_id"`
	StoreName    *string         `json:"store_name"`
	ImageLink    string          `json:"image_link"`
	Location     string          `json:"location"`
	Latitude     json.RawMessage `json:"latitude"`
	Longitude    json.RawMessage `json:"longitude"`
	ContactInfo  string          `json:"contact_info"`
	OpeningHours string          `json:"opening_hours"`
	Description  string          `json:"description"`
}

type wireProduct struct {
	ID          json.RawMessage `json:"_id"`
	Name        *string         `json:"name"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	ImageLink   string          `json:"image_link"`
	StoreID     json.RawMessage `json:"store_id"`
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseID accepts string or numeric identifiers.
func parseID(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errMissing
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "", errMissing
		}
		return strings.TrimSpace(text), nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String(), nil
	}
	return "", fmt.Errorf("must be a string or number")
}

// parseNumber accepts JSON numbers and numeric strings.
func parseNumber(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, errMissing
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return 0, errMissing
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("is not a number")
		}
		return value, nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("is not a number")
	}
	return value, nil
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	if isNull(raw) {
		return decimal.Decimal{}, errMissing
	}
	literal := strings.TrimSpace(string(raw))
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		literal = strings.TrimSpace(text)
	}
	if literal == "" {
		return decimal.Decimal{}, errMissing
	}
	price, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("is not a decimal number")
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("must not be negative")
	}
	return price, nil
}

func issue(kind domain.RecordKind, id, field string, err error, rejected bool) *domain.ValidationError {
	return &domain.ValidationError{Kind: kind, RecordID: id, Field: field, Reason: err.Error(), Rejected: rejected}
}

// toStore validates one store record. Stores missing identity are rejected;
// stores with unusable coordinates are kept without a location.
func toStore(raw json.RawMessage) (domain.Store, []*domain.ValidationError) {
	var wire wireStore
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Store{}, []*domain.ValidationError{issue(domain.RecordStore, "", "record", fmt.Errorf("is malformed: %v", err), true)}
	}

	var issues []*domain.ValidationError
	id, err := parseID(wire.ID)
	if err != nil {
		issues = append(issues, issue(domain.RecordStore, "", "_id", err, true))
	}
	name := ""
	if wire.StoreName != nil {
		name = strings.TrimSpace(*wire.StoreName)
	}
	if name == "" {
		issues = append(issues, issue(domain.RecordStore, id, "store_name", errMissing, true))
	}
	if rejected(issues) {
		return domain.Store{}, issues
	}

	store := domain.Store{
		ID:           id,
		Name:         name,
		Address:      wire.Location,
		ContactInfo:  wire.ContactInfo,
		OpeningHours: wire.OpeningHours,
		Description:  wire.Description,
		ImageLink:    wire.ImageLink,
	}

	lat, latErr := parseNumber(wire.Latitude)
	if latErr != nil {
		issues = append(issues, issue(domain.RecordStore, id, "latitude", latErr, false))
	}
	lon, lonErr := parseNumber(wire.Longitude)
	if lonErr != nil {
		issues = append(issues, issue(domain.RecordStore, id, "longitude", lonErr, false))
	}
	if latErr == nil && lonErr == nil {
		location := domain.Coordinate{Lat: lat, Lon: lon}
		if err := location.Validate(); err != nil {
			issues = append(issues, issue(domain.RecordStore, id, "latitude/longitude", fmt.Errorf("is out of range"), false))
		} else {
			store.Location = &location
		}
	}
	return store, issues
}

// toProduct validates one product record. Any missing required field rejects it.
func toProduct(raw json.RawMessage) (domain.Product, []*domain.ValidationError) {
	var wire wireProduct
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Product{}, []*domain.ValidationError{issue(domain.RecordProduct, "", "record", fmt.Errorf("is malformed: %v", err), true)}
	}

	var issues []*domain.ValidationError
	id, err := parseID(wire.ID)
	if err != nil {
		issues = append(issues, issue(domain.RecordProduct, "", "_id", err, true))
	}
	name := ""
	if wire.Name != nil {
		name = strings.TrimSpace(*wire.Name)
	}
	if name == "" {
		issues = append(issues, issue(domain.RecordProduct, id, "name", errMissing, true))
	}
	price, err := parsePrice(wire.Price)
	if err != nil {
		issues = append(issues, issue(domain.RecordProduct, id, "price", err, true))
	}
	storeID, err := parseID(wire.StoreID)
	if err != nil {
		issues = append(issues, issue(domain.RecordProduct, id, "store_id", err, true))
	}
	if rejected(issues) {
		return domain.Product{}, issues
	}

	return domain.Product{
		ID:          id,
		Name:        name,
		Description: wire.Description,
		Price:       price,
		ImageLink:   wire.ImageLink,
		StoreID:     storeID,
	}, nil
}

func rejected(issues []*domain.ValidationError) bool {
	for _, item := range issues {
		if item.Rejected {
			return true
		}
	}
	return false
}

func decodeRecords(payload []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode response body: expected a JSON array: %w", err)
	}
	return records, nil
}

func decodeBatch[T any](payload []byte, convert func(json.RawMessage) (T, []*domain.ValidationError)) (domain.Batch[T], error) {
	records, err := decodeRecords(payload)
	if err != nil {
		return domain.Batch[T]{}, err
	}
	batch := domain.Batch[T]{Items: make([]T, 0, len(records))}
	for _, raw := range records {
		item, issues := convert(raw)
		batch.Issues = append(batch.Issues, issues...)
		if rejected(issues) {
			continue
		}
		batch.Items = append(batch.Items, item)
	}
	return batch, nil
}

func decodeSingle[T any](payload []byte, convert func(json.RawMessage) (T, []*domain.ValidationError)) (T, []*domain.ValidationError, error) {
	var zero T
	if isNull(payload) {
		return zero, nil, fmt.Errorf("decode response body: empty record")
	}
	item, issues := convert(payload)
	for _, problem := range issues {
		if problem.Rejected {
			return zero, issues, problem
		}
	}
	return item, issues, nil
}

func storePayload(store domain.Store) map[string]any {
	payload := map[string]any{}
	setString(payload, "store_name", store.Name)
	setString(payload, "image_link", store.ImageLink)
	setString(payload, "location", store.Address)
	setString(payload, "contact_info", store.ContactInfo)
	setString(payload, "opening_hours", store.OpeningHours)
	setString(payload, "description", store.Description)
	if store.Location != nil {
		payload["latitude"] = store.Location.Lat
		payload["longitude"] = store.Location.Lon
	}
	return payload
}

func productPayload(product domain.Product) map[string]any {
	payload := map[string]any{}
	setString(payload, "name", product.Name)
	setString(payload, "description", product.Description)
	setString(payload, "image_link", product.ImageLink)
	setString(payload, "store_id", product.StoreID)
	payload["price"] = json.Number(product.Price.String())
	return payload
}

func productChangesPayload(changes domain.ProductChanges) map[string]any {
	payload := map[string]any{}
	setOptional(payload, "name", changes.Name)
	setOptional(payload, "description", changes.Description)
	setOptional(payload, "image_link", changes.ImageLink)
	setOptional(payload, "store_id", changes.StoreID)
	if changes.Price != nil {
		payload["price"] = json.Number(changes.Price.String())
	}
	return payload
}

// setOptional writes value when it is set, so an empty string clears the field.
func setOptional(payload map[string]any, key string, value *string) {
	if value != nil {
		payload[key] = strings.TrimSpace(*value)
	}
}

func setString(payload map[string]any, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		payload[key] = trimmed
	}
}
