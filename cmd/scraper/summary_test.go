package main

import (
	"bytes"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/service/listing"
	"github.com/LouYuanbo1/productreviews/internal/service/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestRenderSummary(t *testing.T) {
	report := &pipeline.Report{
		Records: []model.ProductRecord{
			{ProductID: "abc123", Title: "Mouse X", Rating: "4.2", TotalReviews: 1234, Price: "$10", ReviewSample: "great mouse, works well on glass"},
			{ProductID: model.NotAvailable, Title: "Mouse Y", Price: "$12", ReviewSample: model.NoReviewsFound},
		},
		Skipped: []listing.ItemOutcome{{Index: 2, Reason: listing.FieldError{Field: "price"}}},
	}

	var out bytes.Buffer
	renderSummary(&out, report)

	s := out.String()
	assert.Contains(t, s, "abc123")
	assert.Contains(t, s, "1234")
	assert.Contains(t, s, "N/A")
	assert.Contains(t, s, "no")
	assert.Contains(t, s, "╭")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "abcd…", shorten("abcdefgh", 5))
}
