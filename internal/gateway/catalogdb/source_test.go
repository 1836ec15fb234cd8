package catalogdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows replays fixed rows through pgx.Rows.
type fakeRows struct {
	rows   [][]any
	cursor int
	err    error
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (r *fakeRows) RawValues() [][]byte {
	return nil
}

func (r *fakeRows) Conn() *pgx.Conn {
	return nil
}

func (r *fakeRows) Next() bool {
	if r.cursor >= len(r.rows) {
		return false
	}
	r.cursor++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.cursor-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.cursor-1], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("expected %d destinations, got %d", len(values), len(dest))
	}
	for i, value := range values {
		switch target := dest[i].(type) {
		case *string:
			*target = value.(string)
		case **string:
			if value == nil {
				*target = nil
				continue
			}
			v := value.(string)
			*target = &v
		case **float64:
			if value == nil {
				*target = nil
				continue
			}
			v := value.(float64)
			*target = &v
		default:
			return fmt.Errorf("unsupported destination %T", dest[i])
		}
	}
	return nil
}

type fakeQuerier struct {
	rows     *fakeRows
	row      fakeRow
	queryErr error
	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.lastSQL = sql
	q.lastArgs = args
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func storeValues(id string, name any, lat, lon any) []any {
	return []any{id, name, nil, "Jl. Kaliurang", lat, lon, nil, "9 AM - 9 PM", nil}
}

func TestStoresAppliesValidation(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		storeValues("1", "Toko Sinar", -7.770717, 110.3695),
		storeValues("2", "Toko Tanpa Lokasi", nil, nil),
		storeValues("3", "Toko Salah", 95.0, 110.0),
		storeValues("4", nil, -7.7, 110.3),
	}}}
	source := &Source{db: q}

	batch, err := source.Stores(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Items, 3)
	assert.Equal(t, "1", batch.Items[0].ID)
	require.NotNil(t, batch.Items[0].Location)
	assert.Equal(t, -7.770717, batch.Items[0].Location.Lat)
	assert.Nil(t, batch.Items[1].Location)
	assert.Nil(t, batch.Items[2].Location)
	assert.Equal(t, "9 AM - 9 PM", batch.Items[0].OpeningHours)
	require.Len(t, batch.Issues, 3)
	assert.True(t, batch.Issues[2].Rejected)
	assert.Contains(t, q.lastSQL, "FROM stores")
}

func TestStoresWrapsQueryErrors(t *testing.T) {
	cause := errors.New("connection reset")
	source := &Source{db: &fakeQuerier{queryErr: cause}}

	_, err := source.Stores(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestStoresReportsRowErrors(t *testing.T) {
	cause := errors.New("row stream broken")
	source := &Source{db: &fakeQuerier{rows: &fakeRows{err: cause}}}

	_, err := source.Stores(context.Background())
	assert.ErrorIs(t, err, cause)
}

func TestStoreByIDMapsNoRows(t *testing.T) {
	source := &Source{db: &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}}

	_, err := source.StoreByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreByIDReturnsRejectedRecordAsError(t *testing.T) {
	source := &Source{db: &fakeQuerier{row: fakeRow{values: storeValues("9", "  ", nil, nil)}}}

	_, err := source.StoreByID(context.Background(), "9")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "store_name", validationErr.Field)
}

func TestProductsByStoreFiltersAndValidates(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		{"10", "Beras", "5kg", "12500.50", nil, "1"},
		{"11", "Gula", nil, nil, nil, "1"},
		{"12", "Minyak", nil, "-3", nil, "1"},
		{"13", nil, nil, "1", nil, nil},
	}}}
	source := &Source{db: q}

	batch, err := source.ProductsByStore(context.Background(), " 1 ")
	require.NoError(t, err)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "12500.5", batch.Items[0].Price.String())
	assert.Equal(t, "5kg", batch.Items[0].Description)
	assert.Len(t, batch.Issues, 4)
	assert.Equal(t, []any{"1"}, q.lastArgs)
	assert.Contains(t, q.lastSQL, "WHERE store_id::text = $1")
}

func TestOpenRejectsInvalidDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://grocer@localhost:notaport/grocer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dsn")
}
