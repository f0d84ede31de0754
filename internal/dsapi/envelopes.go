package dsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PageSize is the fixed envelope count requested per discovery page.
const PageSize = 100

// folderTypes is the fixed folder filter for discovery.
const folderTypes = "normal,inbox,sentitems"

// dateFormat normalizes date bounds before transmission.
const dateFormat = "2006-01-02T15:04:05Z"

// Envelope is one discoverable document-bearing unit.
type Envelope struct {
	EnvelopeID  string `json:"envelopeId"`
	Status      string `json:"status"`
	Subject     string `json:"emailSubject,omitempty"`
	SentAt      string `json:"sentDateTime,omitempty"`
	CompletedAt string `json:"completedDateTime,omitempty"`
}

// ListParams bounds one discovery page.
type ListParams struct {
	From          time.Time
	To            time.Time
	StartPosition int
	Count         int
}

type listResponse struct {
	Envelopes []Envelope `json:"envelopes"`
}

// ListEnvelopes fetches one page of envelopes in the date range,
// ordered by last modification descending. A page shorter than the
// requested count signals exhaustion to the caller.
func (c *Client) ListEnvelopes(ctx context.Context, p ListParams) ([]Envelope, error) {
	count := p.Count
	if count <= 0 {
		count = PageSize
	}

	q := url.Values{
		"from_date":      {p.From.UTC().Format(dateFormat)},
		"to_date":        {p.To.UTC().Format(dateFormat)},
		"start_position": {strconv.Itoa(p.StartPosition)},
		"count":          {strconv.Itoa(count)},
		"order_by":       {"last_modified"},
		"order":          {"desc"},
		"folder_types":   {folderTypes},
	}
	urlStr := c.accountPath("envelopes") + "?" + q.Encode()

	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, urlStr, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("decode envelope list: %v", err)}
	}

	return list.Envelopes, nil
}

// DownloadCombined streams the combined PDF for one envelope. The
// caller must close the returned body.
func (c *Client) DownloadCombined(ctx context.Context, envelopeID string) (io.ReadCloser, error) {
	return c.download(ctx, envelopeID, "combined")
}

// DownloadArchive streams the per-document zip archive for one
// envelope. The caller must close the returned body.
func (c *Client) DownloadArchive(ctx context.Context, envelopeID string) (io.ReadCloser, error) {
	return c.download(ctx, envelopeID, "archive")
}

func (c *Client) download(ctx context.Context, envelopeID, document string) (io.ReadCloser, error) {
	urlStr := c.accountPath("envelopes/%s/documents/%s", url.PathEscape(envelopeID), document)

	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/pdf")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}
