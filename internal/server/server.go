// Package server exposes the listing engine over a small read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/mekedron/grocer-cli/internal/gateway/catalog"
	"github.com/mekedron/grocer-cli/internal/gateway/catalogdb"
	"github.com/mekedron/grocer-cli/internal/service/listing"
	"github.com/mekedron/grocer-cli/internal/service/output"
	"github.com/mekedron/grocer-cli/internal/service/views"
	"golang.org/x/text/language"
)

const (
	profileLabel    = "server"
	defaultLocale   = "en"
	shutdownTimeout = 10 * time.Second

	codeInvalidArgument = "GROCER_INVALID_ARGUMENT"
	codeUpstream        = "GROCER_UPSTREAM_ERROR"
	codeNotFound        = "GROCER_NOT_FOUND"
	codeValidation      = "GROCER_VALIDATION_ERROR"
)

// Handler serves store and product listings from a catalog source.
type Handler struct {
	catalog catalog.Reader
}

// NewHandler creates a handler over reader.
func NewHandler(reader catalog.Reader) *Handler {
	return &Handler{catalog: reader}
}

// Routes builds the router with request logging and panic recovery.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the listing endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.health)
	r.Get("/stores", h.listStores)
	r.Get("/stores/{id}", h.showStore)
	r.Get("/products", h.listProducts)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, listing.StoreFields, listing.StorePageSize)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	radius, err := parseRadius(r, params.query.Order.Reference)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	batch, err := h.catalog.Stores(r.Context())
	if err != nil {
		failUpstream(w, params.locale, err)
		return
	}
	candidates := batch.Items
	if radius > 0 {
		candidates = listing.NewIndex(candidates).Within(*params.query.Order.Reference, radius)
	}
	page, err := listing.Run(candidates, listing.StoreFields, params.query)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	data := views.StoreRows(page, params.query.Order.Reference)
	if radius > 0 {
		data["radius_m"] = radius
	}
	ok(w, params.locale, data, append(batch.Warnings(), views.PageWarnings(page)...))
}

func (h *Handler) showStore(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, listing.ProductFields, listing.ProductPageSize)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	storeID := chi.URLParam(r, "id")

	store, err := h.catalog.StoreByID(r.Context(), storeID)
	if err != nil {
		failUpstream(w, params.locale, err)
		return
	}
	products, err := h.catalog.ProductsByStore(r.Context(), storeID)
	if err != nil {
		failUpstream(w, params.locale, err)
		return
	}
	page, err := listing.Run(products.Items, listing.ProductFields, params.query)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	ok(w, params.locale, views.StoreDetail(store, params.query.Order.Reference, page),
		append(products.Warnings(), views.PageWarnings(page)...))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r, listing.ListingFields, listing.ProductPageSize)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}

	products, err := h.catalog.Products(r.Context())
	if err != nil {
		failUpstream(w, params.locale, err)
		return
	}
	stores, err := h.catalog.Stores(r.Context())
	if err != nil {
		failUpstream(w, params.locale, err)
		return
	}
	page, err := listing.Run(listing.Join(products.Items, stores.Items), listing.ListingFields, params.query)
	if err != nil {
		fail(w, params.locale, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	warnings := append(products.Warnings(), stores.Warnings()...)
	ok(w, params.locale, views.ListingRows(page, params.query.Order.Reference), append(warnings, views.PageWarnings(page)...))
}

type requestParams struct {
	query  listing.Query
	locale string
}

type supportChecker interface {
	Supports(key listing.SortKey) bool
}

// parseParams reads q, sort, order, page, lat, lon, geohash and locale.
func parseParams(r *http.Request, fields supportChecker, pageSize int) (requestParams, error) {
	values := r.URL.Query()
	params := requestParams{locale: strings.TrimSpace(values.Get("locale"))}
	if params.locale == "" {
		params.locale = defaultLocale
	}
	tag, err := language.Parse(params.locale)
	if err != nil {
		return params, fmt.Errorf("invalid locale %q", params.locale)
	}

	key, err := listing.ParseSortKey(values.Get("sort"))
	if err != nil {
		return params, err
	}
	if !fields.Supports(key) {
		return params, fmt.Errorf("sort %s is not available for this listing", key)
	}
	direction, err := listing.ParseSortDirection(values.Get("order"))
	if err != nil {
		return params, err
	}
	page := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("page must be an integer, got %q", raw)
		}
	}
	reference, err := parseReference(values.Get("lat"), values.Get("lon"), values.Get("geohash"))
	if err != nil {
		return params, err
	}
	if key == listing.SortDistance && reference == nil {
		return params, listing.ErrReferenceRequired
	}

	params.query = listing.Query{
		Text: values.Get("q"),
		Order: listing.Order{
			Key:       key,
			Direction: direction,
			Reference: reference,
			Locale:    tag,
		},
		Page:     page,
		PageSize: pageSize,
	}
	return params, nil
}

func parseReference(rawLat, rawLon, rawGeohash string) (*domain.Coordinate, error) {
	rawLat, rawLon, rawGeohash = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon), strings.TrimSpace(rawGeohash)
	hasPoint := rawLat != "" || rawLon != ""
	if hasPoint && rawGeohash != "" {
		return nil, errors.New("use either lat/lon or geohash")
	}
	if rawGeohash != "" {
		point, err := domain.CoordinateFromGeohash(rawGeohash)
		if err != nil {
			return nil, err
		}
		return &point, nil
	}
	if !hasPoint {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, errors.New("lat and lon must be provided together")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat must be a number, got %q", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon must be a number, got %q", rawLon)
	}
	point := domain.Coordinate{Lat: lat, Lon: lon}
	if err := point.Validate(); err != nil {
		return nil, err
	}
	return &point, nil
}

func parseRadius(r *http.Request, reference *domain.Coordinate) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("radius"))
	if raw == "" {
		return 0, nil
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return 0, fmt.Errorf("radius must be a non-negative number of meters, got %q", raw)
	}
	if radius > 0 && reference == nil {
		return 0, errors.New("radius requires lat/lon or geohash")
	}
	return radius, nil
}

func ok(w http.ResponseWriter, locale string, data any, warnings []string) {
	respond(w, http.StatusOK, output.BuildEnvelope(profileLabel, locale, data, warnings, nil))
}

func fail(w http.ResponseWriter, locale string, status int, code, message string) {
	if locale == "" {
		locale = defaultLocale
	}
	respond(w, status, output.BuildErrorEnvelope(profileLabel, locale, code, message, nil))
}

// failUpstream keeps the catalog API status when there is one.
func failUpstream(w http.ResponseWriter, locale string, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		fail(w, locale, http.StatusBadGateway, codeValidation, validationErr.Error())
		return
	}
	if errors.Is(err, catalogdb.ErrNotFound) {
		fail(w, locale, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) {
		code := codeUpstream
		if apiErr.Status == http.StatusNotFound {
			code = codeNotFound
		}
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		fail(w, locale, status, code, apiErr.Message)
		return
	}
	log.Printf("catalog request failed: %v", err)
	fail(w, locale, http.StatusBadGateway, codeUpstream, catalog.ErrUpstream.Error())
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
