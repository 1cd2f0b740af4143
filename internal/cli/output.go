package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the JSON envelope of command output.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// output writes data as JSON, or calls text for human-readable output.
func output(w io.Writer, format string, data any, text func(io.Writer)) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(Response{Status: "ok", Data: data})
	}
	text(w)
	return nil
}

// PageView describes a page of results.
type PageView struct {
	Page       int64  `json:"page"`
	PageSize   int32  `json:"page_size"`
	TotalCount int64  `json:"total_count"`
	PageCount  int64  `json:"page_count"`
	First      int64  `json:"first_item"`
	Last       int64  `json:"last_item"`
	NextToken  string `json:"next_page_token,omitempty"`
	PrevToken  string `json:"prev_page_token,omitempty"`
	Items      any    `json:"items"`
}

func (p PageView) footer(w io.Writer) {
	fmt.Fprintf(w, "-- page %d of %d, items %d-%d of %d\n", p.Page, p.PageCount, p.First, p.Last, p.TotalCount)
	if p.NextToken != "" {
		fmt.Fprintf(w, "-- next: %s\n", p.NextToken)
	}
	if p.PrevToken != "" {
		fmt.Fprintf(w, "-- prev: %s\n", p.PrevToken)
	}
}
