package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageSize = 500
	maxPages        = 1000
)

// RESTSource pages through an upstream transactions endpoint.
type RESTSource struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

// NewRESTSource constructs a REST backed source.
func NewRESTSource(baseURL string, pageSize int) *RESTSource {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &RESTSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient overrides the HTTP client.
func (s *RESTSource) WithHTTPClient(client *http.Client) *RESTSource {
	if client != nil {
		s.httpClient = client
	}
	return s
}

type pageMeta struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type pageResponse struct {
	Data []RawRecord `json:"data"`
	Meta pageMeta    `json:"meta"`
}

// Fetch implements Source. Pages are requested until meta.totalPages is
// reached or a page comes back empty.
func (s *RESTSource) Fetch(ctx context.Context, q Query) ([]TransactionRecord, error) {
	out := []TransactionRecord{}
	for page := 1; page <= maxPages; page++ {
		resp, err := s.fetchPage(ctx, q, page)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Data {
			rec := Normalize(raw)
			// upstream filters are advisory; enforce the range locally
			if rec.HasDate() && !q.Contains(rec.Date) {
				continue
			}
			out = append(out, rec)
		}
		if len(resp.Data) == 0 || page >= resp.Meta.TotalPages {
			break
		}
	}
	return out, nil
}

func (s *RESTSource) fetchPage(ctx context.Context, q Query, page int) (pageResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(s.pageSize))
	if !q.From.IsZero() {
		params.Set("from", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format("2006-01-02"))
	}
	if q.BusinessID != "" {
		params.Set("business_id", q.BusinessID)
	}
	if q.LocationID != "" {
		params.Set("location_id", q.LocationID)
	}
	if q.ProductID != "" {
		params.Set("product_id", q.ProductID)
	}
	if q.Granularity.Valid() {
		params.Set("granularity", string(q.Granularity))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/transactions?%s", s.baseURL, params.Encode()), nil)
	if err != nil {
		return pageResponse{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return pageResponse{}, fmt.Errorf("sales: request page %d: %w", page, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return pageResponse{}, fmt.Errorf("sales: upstream returned status %d", resp.StatusCode)
	}
	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return pageResponse{}, fmt.Errorf("sales: decode page %d: %w", page, err)
	}
	return body, nil
}
