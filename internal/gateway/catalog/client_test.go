package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/shopspring/decimal"
)

type captureHTTPClient struct {
	request      *http.Request
	requestBody  string
	statusCode   int
	responseBody string
	doErr        error
	doCalls      int
}

func (c *captureHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.doCalls++
	c.request = req
	if c.doErr != nil {
		return nil, c.doErr
	}
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		c.requestBody = string(body)
	}
	statusCode := c.statusCode
	if statusCode == 0 {
		statusCode = 200
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(c.responseBody)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestClient(httpClient HTTPClient) *Client {
	return NewClient(
		WithHTTPClient(httpClient),
		WithBaseURL("https://catalog.test/api"),
	)
}

const storesJSON = `[
  {"_id":"s1","store_name":"Toko Sinar","image_link":"/img/1.jpg","location":"Jl. Kaliurang","latitude":-7.770717,"longitude":110.3695,"contact_info":"+62 812","opening_hours":"9 AM - 9 PM","description":"first"},
  {"_id":"s2","store_name":"Toko Maju","latitude":"-7.80","longitude":"110.36"},
  {"_id":"s3","store_name":"Warung","latitude":null},
  {"_id":"s4","store_name":"Nowhere","latitude":123,"longitude":10},
  {"store_name":"No id"},
  {"_id":"s6","store_name":"  "}
]`

func TestStoresDecodesAndValidatesRecords(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: storesJSON}
	client := newTestClient(httpClient)

	batch, err := client.Stores(context.Background())
	if err != nil {
		t.Fatalf("stores returned error: %v", err)
	}
	if got := httpClient.request.URL.String(); got != "https://catalog.test/api/stores" {
		t.Fatalf("expected stores url, got %q", got)
	}
	if httpClient.request.Method != http.MethodGet {
		t.Fatalf("expected GET, got %s", httpClient.request.Method)
	}
	if len(batch.Items) != 4 {
		t.Fatalf("expected 4 stores, got %d (%+v)", len(batch.Items), batch.Items)
	}

	first := batch.Items[0]
	if first.ID != "s1" || first.Name != "Toko Sinar" || first.Address != "Jl. Kaliurang" {
		t.Fatalf("unexpected first store: %+v", first)
	}
	if first.Location == nil || first.Location.Lat != -7.770717 || first.Location.Lon != 110.3695 {
		t.Fatalf("expected first store location, got %+v", first.Location)
	}
	if batch.Items[1].Location == nil || batch.Items[1].Location.Lat != -7.80 {
		t.Fatalf("expected string coordinates to parse, got %+v", batch.Items[1].Location)
	}
	if batch.Items[2].Location != nil {
		t.Fatalf("expected missing coordinates to clear location, got %+v", batch.Items[2].Location)
	}
	if batch.Items[3].Location != nil {
		t.Fatalf("expected out of range coordinates to clear location, got %+v", batch.Items[3].Location)
	}

	rejectedCount := 0
	for _, issue := range batch.Issues {
		if issue.Rejected {
			rejectedCount++
		}
		if !errors.Is(issue, domain.ErrInvalidRecord) {
			t.Fatalf("expected issue to unwrap to ErrInvalidRecord, got %v", issue)
		}
	}
	if rejectedCount != 2 {
		t.Fatalf("expected 2 rejected stores, got %d (%v)", rejectedCount, batch.Warnings())
	}
	if len(batch.Issues) != 5 {
		t.Fatalf("expected 5 issues, got %d (%v)", len(batch.Issues), batch.Warnings())
	}
}

func TestProductsDecodesPricesAndRejectsIncompleteRecords(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: `[
  {"_id":"p1","name":"Beras","price":12500.5,"store_id":"s1","description":"5kg"},
  {"_id":"p2","name":"Gula","price":"9000","store_id":7},
  {"_id":"p3","name":"Telur","store_id":"s1"},
  {"_id":"p4","name":"Minyak","price":-1,"store_id":"s1"},
  {"_id":"p5","price":1,"store_id":"s1"},
  {"_id":"p6","name":"Garam","price":1}
]`}
	client := newTestClient(httpClient)

	batch, err := client.Products(context.Background())
	if err != nil {
		t.Fatalf("products returned error: %v", err)
	}
	if len(batch.Items) != 2 {
		t.Fatalf("expected 2 valid products, got %d", len(batch.Items))
	}
	if !batch.Items[0].Price.Equal(decimal.RequireFromString("12500.5")) {
		t.Fatalf("expected price 12500.5, got %s", batch.Items[0].Price)
	}
	if batch.Items[1].StoreID != "7" {
		t.Fatalf("expected numeric store id to be kept as string, got %q", batch.Items[1].StoreID)
	}
	if len(batch.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %v", batch.Warnings())
	}
}

func TestProductsByStoreEscapesID(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: `[]`}
	client := newTestClient(httpClient)

	batch, err := client.ProductsByStore(context.Background(), "a b/c")
	if err != nil {
		t.Fatalf("products by store returned error: %v", err)
	}
	if len(batch.Items) != 0 {
		t.Fatalf("expected empty batch, got %+v", batch.Items)
	}
	if got := httpClient.request.URL.EscapedPath(); got != "/api/products/store/a%20b%2Fc" {
		t.Fatalf("expected escaped path, got %q", got)
	}
}

func TestStoreByIDRejectsInvalidRecord(t *testing.T) {
	client := newTestClient(&captureHTTPClient{responseBody: `{"_id":"s1"}`})

	_, err := client.StoreByID(context.Background(), "s1")
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validationErr.Field != "store_name" {
		t.Fatalf("expected store_name field, got %q", validationErr.Field)
	}
}

func TestStoreByIDRequiresID(t *testing.T) {
	httpClient := &captureHTTPClient{}
	client := newTestClient(httpClient)

	if _, err := client.StoreByID(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty id")
	}
	if httpClient.doCalls != 0 {
		t.Fatalf("expected no upstream call, got %d", httpClient.doCalls)
	}
}

func TestAPIErrorMessageFromBody(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "message", body: `{"message":"Store not found","error":"ignored"}`, message: "Store not found"},
		{name: "error", body: `{"error":"Invalid id"}`, message: "Invalid id"},
		{name: "empty object", body: `{}`, message: "HTTP error! status: 404"},
		{name: "not json", body: `<html>oops</html>`, message: "HTTP error! status: 404"},
		{name: "empty body", body: ``, message: "HTTP error! status: 404"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(&captureHTTPClient{statusCode: 404, responseBody: tc.body})
			_, err := client.StoreByID(context.Background(), "missing")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T %v", err, err)
			}
			if apiErr.Status != 404 {
				t.Fatalf("expected status 404, got %d", apiErr.Status)
			}
			if apiErr.Error() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, apiErr.Error())
			}
			if !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected APIError to unwrap to ErrUpstream")
			}
		})
	}
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	cause := errors.New("connection refused")
	client := newTestClient(&captureHTTPClient{doErr: cause})

	_, err := client.Stores(context.Background())
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("expected transport error, got APIError %v", apiErr)
	}
	var requestErr *RequestError
	if !errors.As(err, &requestErr) {
		t.Fatalf("expected RequestError, got %T", err)
	}
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, cause) {
		t.Fatalf("expected error to unwrap to ErrUpstream and cause, got %v", err)
	}
}

func TestStoresRejectsNonArrayPayload(t *testing.T) {
	client := newTestClient(&captureHTTPClient{responseBody: `{"stores":[]}`})

	_, err := client.Stores(context.Background())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream for malformed payload, got %v", err)
	}
}

func TestCreateStoreSendsWireFields(t *testing.T) {
	httpClient := &captureHTTPClient{
		statusCode:   201,
		responseBody: `{"_id":"new","store_name":"Toko Baru","latitude":-7.7,"longitude":110.3}`,
	}
	client := newTestClient(httpClient)

	created, err := client.CreateStore(context.Background(), domain.Store{
		Name:     "Toko Baru",
		Address:  "Jl. Magelang",
		Location: &domain.Coordinate{Lat: -7.7, Lon: 110.3},
	})
	if err != nil {
		t.Fatalf("create store returned error: %v", err)
	}
	if created.ID != "new" {
		t.Fatalf("expected created id new, got %q", created.ID)
	}
	if httpClient.request.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", httpClient.request.Method)
	}
	for _, fragment := range []string{`"store_name":"Toko Baru"`, `"location":"Jl. Magelang"`, `"latitude":-7.7`, `"longitude":110.3`} {
		if !strings.Contains(httpClient.requestBody, fragment) {
			t.Fatalf("expected request body to contain %s, got %s", fragment, httpClient.requestBody)
		}
	}
	if got := httpClient.request.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type, got %q", got)
	}
}

func TestCreateProductSendsExactPrice(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: `{"_id":"p9","name":"Kopi","price":"15000.25","store_id":"s1"}`}
	client := newTestClient(httpClient)

	_, err := client.CreateProduct(context.Background(), domain.Product{
		Name:    "Kopi",
		Price:   decimal.RequireFromString("15000.25"),
		StoreID: "s1",
	})
	if err != nil {
		t.Fatalf("create product returned error: %v", err)
	}
	if !strings.Contains(httpClient.requestBody, `"price":15000.25`) {
		t.Fatalf("expected numeric price in body, got %s", httpClient.requestBody)
	}
}

func TestUpdateProductSendsOnlyChangedFields(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: `{"_id":"p1","name":"Renamed","price":"12500","store_id":"s1"}`}
	client := newTestClient(httpClient)

	name := "Renamed"
	updated, err := client.UpdateProduct(context.Background(), "p1", domain.ProductChanges{Name: &name})
	if err != nil {
		t.Fatalf("update product returned error: %v", err)
	}
	if httpClient.request.Method != http.MethodPut || httpClient.request.URL.Path != "/api/products/p1" {
		t.Fatalf("unexpected update request %s %s", httpClient.request.Method, httpClient.request.URL.Path)
	}
	if httpClient.requestBody != `{"name":"Renamed"}` {
		t.Fatalf("expected only the name in the body, got %s", httpClient.requestBody)
	}
	if updated.Price.String() != "12500" {
		t.Fatalf("expected stored price from response, got %s", updated.Price)
	}

	price := decimal.Zero
	description := ""
	if _, err := client.UpdateProduct(context.Background(), "p1", domain.ProductChanges{Price: &price, Description: &description}); err != nil {
		t.Fatalf("update product returned error: %v", err)
	}
	if httpClient.requestBody != `{"description":"","price":0}` {
		t.Fatalf("expected explicit zero price and cleared description, got %s", httpClient.requestBody)
	}
}

func TestUpdateAndDeleteUseResourceURLs(t *testing.T) {
	httpClient := &captureHTTPClient{responseBody: `{"_id":"s1","store_name":"Renamed"}`}
	client := newTestClient(httpClient)

	if _, err := client.UpdateStore(context.Background(), "s1", domain.Store{Name: "Renamed"}); err != nil {
		t.Fatalf("update store returned error: %v", err)
	}
	if httpClient.request.Method != http.MethodPut || httpClient.request.URL.Path != "/api/stores/s1" {
		t.Fatalf("unexpected update request %s %s", httpClient.request.Method, httpClient.request.URL.Path)
	}

	httpClient.responseBody = ""
	if err := client.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("delete product returned error: %v", err)
	}
	if httpClient.request.Method != http.MethodDelete || httpClient.request.URL.Path != "/api/products/p1" {
		t.Fatalf("unexpected delete request %s %s", httpClient.request.Method, httpClient.request.URL.Path)
	}
}

func TestVerboseOutputTracesRequests(t *testing.T) {
	trace := &bytes.Buffer{}
	client := NewClient(
		WithHTTPClient(&captureHTTPClient{responseBody: `[]`}),
		WithBaseURL("https://catalog.test/api/"),
		WithVerboseOutput(trace),
	)

	if _, err := client.Stores(context.Background()); err != nil {
		t.Fatalf("stores returned error: %v", err)
	}
	out := trace.String()
	if !strings.Contains(out, "[http] -> GET https://catalog.test/api/stores") {
		t.Fatalf("expected request trace, got %q", out)
	}
	if !strings.Contains(out, "status=200") {
		t.Fatalf("expected response trace, got %q", out)
	}
}

func TestRequestMinIntervalHonorsContext(t *testing.T) {
	client := NewClient(
		WithHTTPClient(&captureHTTPClient{responseBody: `[]`}),
		WithRequestMinInterval(time.Hour),
	)
	if _, err := client.Stores(context.Background()); err != nil {
		t.Fatalf("first call returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Stores(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting for slot, got %v", err)
	}
}

func TestEndpointsFor(t *testing.T) {
	endpoints := EndpointsFor("")
	if endpoints.Stores != "http://localhost:5000/api/stores" {
		t.Fatalf("expected default stores endpoint, got %q", endpoints.Stores)
	}
	if got := EndpointsFor("https://x.test/api").Products; got != "https://x.test/api/products" {
		t.Fatalf("expected products endpoint, got %q", got)
	}
}
