// Package chinamoney fetches bond listings from the chinamoney
// BondMarketInfoListEN endpoint.
package chinamoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/model"
	"github.com/jqliu/bondflow/internal/service"
)

const (
	// DefaultBaseURL is the public English bond listing endpoint.
	DefaultBaseURL = "https://www.chinamoney.com.cn/ags/ms/cm-u-bond-md/BondMarketInfoListEN"

	// DefaultPageSize matches the page size the web UI requests.
	DefaultPageSize = 50

	// defaultPageDelay keeps a polite gap between page requests.
	defaultPageDelay = 300 * time.Millisecond

	originURL  = "https://www.chinamoney.com.cn"
	refererURL = "https://www.chinamoney.com.cn/english/bdInfo/"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Config holds the client settings.
type Config struct {
	// BaseURL overrides the listing endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each page request. Defaults to 30s.
	Timeout time.Duration
	// PageDelay is the pause between page requests. Defaults to 300ms;
	// negative disables the delay.
	PageDelay time.Duration
}

// Client talks to the chinamoney bond listing API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageDelay  time.Duration
}

// NewClient creates a new chinamoney client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: invalid base URL %q", common.ErrInvalidConfig, baseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	pageDelay := cfg.PageDelay
	if pageDelay == 0 {
		pageDelay = defaultPageDelay
	}
	if pageDelay < 0 {
		pageDelay = 0
	}

	return &Client{
		baseURL:   baseURL,
		pageDelay: pageDelay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// FetchOptions controls pagination behavior for one fetch.
type FetchOptions struct {
	// PageSize is the number of rows per page. Defaults to DefaultPageSize.
	PageSize int
	// MaxPages caps the number of pages fetched; 0 means no cap.
	MaxPages int
	// MaxAttempts is the per-page attempt budget. The default of 1 means
	// fail-fast; values above 1 retry with exponential backoff.
	MaxAttempts int
	// Progress, when set, is called after each page with the running row
	// count and the total reported by the server.
	Progress func(fetched, total int)
}

// listEnvelope is the upstream response shape.
type listEnvelope struct {
	Data struct {
		Total      int          `json:"total"`
		ResultList []bondRecord `json:"resultList"`
	} `json:"data"`
}

// bondRecord is one row as returned by the upstream API.
type bondRecord struct {
	ISIN           string `json:"isin"`
	BondCode       string `json:"bondCode"`
	EntyFullName   string `json:"entyFullName"`
	BondType       string `json:"bondType"`
	IssueStartDate string `json:"issueStartDate"`
	DebtRtng       string `json:"debtRtng"`
}

// FetchBonds pulls all pages matching the filter. It terminates when a page
// comes back empty or the accumulated row count reaches the server-reported
// total. Network, HTTP, and decode failures surface to the caller.
func (c *Client) FetchBonds(ctx context.Context, filter model.BondFilter, opts FetchOptions) ([]model.Bond, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var bonds []model.Bond
	page := 1

	for {
		if opts.MaxPages > 0 && page > opts.MaxPages {
			slog.Debug("Reached page cap", "max_pages", opts.MaxPages)
			break
		}

		envelope, err := c.fetchPage(ctx, filter, page, pageSize, opts.MaxAttempts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		records := envelope.Data.ResultList
		total := envelope.Data.Total
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			bond := rec.toModel()
			bond.Hash = bond.GenerateHash()
			bonds = append(bonds, bond)
		}

		slog.Debug("Fetched page",
			"page", page,
			"rows", len(records),
			"accumulated", len(bonds),
			"total", total)

		if opts.Progress != nil {
			opts.Progress(len(bonds), total)
		}

		if len(bonds) >= total {
			break
		}

		page++

		if c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}
	}

	return bonds, nil
}

// fetchPage requests a single page, retrying only when maxAttempts > 1.
func (c *Client) fetchPage(ctx context.Context, filter model.BondFilter, page, pageSize, maxAttempts int) (*listEnvelope, error) {
	if maxAttempts <= 1 {
		return c.doPage(ctx, filter, page, pageSize)
	}

	var envelope *listEnvelope
	err := common.WithRetry(ctx, func() error {
		var opErr error
		envelope, opErr = c.doPage(ctx, filter, page, pageSize)
		return opErr
	}, service.RetryOptions{MaxAttempts: maxAttempts})

	return envelope, err
}

func (c *Client) doPage(ctx context.Context, filter model.BondFilter, page, pageSize int) (*listEnvelope, error) {
	form := url.Values{
		"pageNo":            {strconv.Itoa(page)},
		"pageSize":          {strconv.Itoa(pageSize)},
		"isin":              {filter.ISIN},
		"bondCode":          {filter.Code},
		"issueEnty":         {filter.Issuer},
		"bondType":          {filter.BondType},
		"couponType":        {filter.CouponType},
		"issueYear":         {filter.IssueYear},
		"rtngShrt":          {filter.Rating},
		"bondSpclPrjctVrty": {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", originURL)
	req.Header.Set("Referer", refererURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, common.ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d - %s", common.ErrUpstreamStatus, resp.StatusCode, string(body))
	}

	var envelope listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}

	return &envelope, nil
}

// toModel converts an upstream row to our bond model.
func (r bondRecord) toModel() model.Bond {
	return model.Bond{
		ISIN:      strings.TrimSpace(r.ISIN),
		Code:      strings.TrimSpace(r.BondCode),
		Issuer:    strings.TrimSpace(r.EntyFullName),
		BondType:  strings.TrimSpace(r.BondType),
		IssueDate: strings.TrimSpace(r.IssueStartDate),
		Rating:    model.NormalizeRating(r.DebtRtng),
	}
}
