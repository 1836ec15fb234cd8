package domain

import (
	"errors"
	"testing"
)

func TestValidationErrorMessage(t *testing.T) {
	rejected := &ValidationError{Kind: RecordProduct, RecordID: "p1", Field: "price", Reason: "is missing", Rejected: true}
	if got := rejected.Error(); got != "product p1 rejected: price is missing" {
		t.Fatalf("unexpected rejected message %q", got)
	}

	flagged := &ValidationError{Kind: RecordStore, Field: "latitude", Reason: "is not a number"}
	if got := flagged.Error(); got != "store <no id> flagged: latitude is not a number" {
		t.Fatalf("unexpected flagged message %q", got)
	}
	if !errors.Is(flagged, ErrInvalidRecord) {
		t.Fatal("expected validation error to unwrap to ErrInvalidRecord")
	}
}

func TestBatchWarningsSkipsNilIssues(t *testing.T) {
	batch := Batch[Store]{
		Items: []Store{{ID: "s1", Name: "A"}},
		Issues: []*ValidationError{
			nil,
			{Kind: RecordStore, RecordID: "s2", Field: "store_name", Reason: "is missing", Rejected: true},
		},
	}
	warnings := batch.Warnings()
	if len(warnings) != 1 || warnings[0] != "store s2 rejected: store_name is missing" {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}
