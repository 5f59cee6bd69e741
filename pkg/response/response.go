// Package response defines the normalized result envelope returned for
// every successful API call: decoded rows plus pagination and credit
// metadata. Envelopes are immutable once parsed.
package response

import (
	"encoding/json"
	"fmt"
)

// PaginationLinks carries the cursor URLs for the surrounding pages. A nil
// link means there is no page in that direction.
type PaginationLinks struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Response is the decoded payload of a completed call. Fields absent from
// a given endpoint's payload stay at their zero value.
type Response struct {
	// Rows holds the tabular payload of paginated endpoints.
	Rows []map[string]any `json:"rows"`

	// Data holds the single-record payload of fundamentals endpoints.
	Data map[string]any `json:"data"`

	// Length is the total row count reported by the API, which may exceed
	// len(Rows) when the result is paginated.
	Length int `json:"length"`

	// CreditsUsed and CreditsLeft meter the account's API credit balance.
	CreditsUsed float64 `json:"creditsUsed"`
	CreditsLeft float64 `json:"creditsLeft"`

	Pagination PaginationLinks `json:"paginationLinks"`

	// Fundamentals metadata.
	Company  string `json:"company"`
	Period   string `json:"period"`
	Category string `json:"category"`
}

// Parse decodes a response body into an envelope. A payload that is not a
// JSON object is an error; it must never pass through as success.
func Parse(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return &resp, nil
}

// HasNextPage reports whether the API advertised a following page.
func (r *Response) HasNextPage() bool {
	return r.Pagination.Next != nil && *r.Pagination.Next != ""
}

// HasPreviousPage reports whether the API advertised a preceding page.
func (r *Response) HasPreviousPage() bool {
	return r.Pagination.Previous != nil && *r.Pagination.Previous != ""
}

// NextLink returns the absolute URL of the next page, or "" when there is
// none.
func (r *Response) NextLink() string {
	if r.Pagination.Next == nil {
		return ""
	}
	return *r.Pagination.Next
}
