package main

import (
	"io"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/service/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
)

const titleWidth = 40

// renderSummary 以表格形式输出本次抓取到的商品
func renderSummary(w io.Writer, report *pipeline.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "ID", "Title", "Rating", "Reviews", "Price", "Sampled"})
	for i, rec := range report.Records {
		sampled := "yes"
		if rec.ReviewSample == model.NoReviewsFound {
			sampled = "no"
		}
		t.AppendRow(table.Row{i + 1, rec.ProductID, shorten(rec.Title, titleWidth), rec.Rating, rec.TotalReviews, rec.Price, sampled})
	}
	t.AppendFooter(table.Row{"", "", "skipped", len(report.Skipped), "", "", ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
