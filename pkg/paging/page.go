package paging

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/opcall-go/opcall/pkg/transport"
)

// Page represents one fetched response of a paged operation.
type Page struct {
	// Items are the page's results, in response order.
	Items []json.RawMessage

	// ContinuationToken links to the next page. Empty means last page.
	ContinuationToken string

	// Response is the raw response the page was decoded from.
	Response *transport.Response
}

// Convention names the response fields carrying the items array and the
// continuation link. Services vary here; the zero value is not usable,
// take DefaultConvention and override as needed.
type Convention struct {
	ItemsField string
	NextField  string
}

// DefaultConvention matches the common "value" / "nextLink" envelope.
func DefaultConvention() Convention {
	return Convention{
		ItemsField: "value",
		NextField:  "nextLink",
	}
}

// DecodePage extracts a Page from a response body. An absent items
// field is an empty page, not an error; a bare JSON array body is a
// token-less single page.
func (c Convention) DecodePage(resp *transport.Response) (*Page, error) {
	page := &Page{Response: resp}

	body := bytes.TrimLeft(resp.Body, " \t\r\n")
	if len(body) == 0 {
		return page, nil
	}

	// Some operations answer with a bare array instead of an envelope.
	if body[0] == '[' {
		if err := json.Unmarshal(resp.Body, &page.Items); err != nil {
			return nil, fmt.Errorf("decode items array: %w", err)
		}
		return page, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode page envelope: %w", err)
	}

	if raw, ok := envelope[c.ItemsField]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return nil, fmt.Errorf("decode %q field: %w", c.ItemsField, err)
		}
	}

	if raw, ok := envelope[c.NextField]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.ContinuationToken); err != nil {
			return nil, fmt.Errorf("decode %q field: %w", c.NextField, err)
		}
	}

	return page, nil
}
