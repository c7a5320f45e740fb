// Package backend talks to the remote job service over HTTP. Client
// implements core.JobService.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/listcheck/internal/core"
)

const (
	// DefaultTimeout bounds a whole request, body included.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the client to the job service.
	DefaultUserAgent = "listcheck/1.0"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4 << 10
)

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client // overrides Timeout when set
}

// Client is a job service client. Safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

var _ core.JobService = (*Client)(nil)

// New creates a Client for baseURL, e.g. http://localhost:3009/api.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid job service URL %q", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		userAgent: opts.UserAgent,
		http:      hc,
	}, nil
}

// BaseURL returns the job service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Verify checks one email address.
func (c *Client) Verify(ctx context.Context, email string) (core.VerificationRow, error) {
	var row core.VerificationRow
	if err := c.postJSON(ctx, "verify", "/verify", map[string]string{"email": email}, &row); err != nil {
		return core.VerificationRow{}, err
	}
	if row.Email == "" {
		row.Email = email
	}
	return row, nil
}

// Extract finds emails on one website. A response without an emails list
// yields no rows.
func (c *Client) Extract(ctx context.Context, website string) ([]core.ExtractedRow, error) {
	var resp struct {
		Emails []core.ExtractedRow `json:"emails"`
	}
	if err := c.postJSON(ctx, "extract", "/extract", map[string]string{"website": website}, &resp); err != nil {
		return nil, err
	}
	if resp.Emails == nil {
		return []core.ExtractedRow{}, nil
	}
	return resp.Emails, nil
}

// BulkVerify uploads file and returns the job id, which may be empty if the
// service omitted it.
func (c *Client) BulkVerify(ctx context.Context, file core.UploadFile, emailCol string, background bool) (string, error) {
	var resp struct {
		JobID string `json:"jobId"`
	}
	fields := map[string]string{
		"emailCol":   emailCol,
		"background": strconv.FormatBool(background),
	}
	if err := c.postMultipart(ctx, "bulk verify", "/bulk-verify", file, fields, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// BulkExtract uploads file and returns the extracted rows. A response
// without a results field yields nil.
func (c *Client) BulkExtract(ctx context.Context, file core.UploadFile, websiteCol string) ([]core.ExtractedRow, error) {
	var resp struct {
		Results []core.ExtractedRow `json:"results"`
	}
	if err := c.postMultipart(ctx, "bulk extract", "/bulk-extract", file, map[string]string{"websiteCol": websiteCol}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// resultsResponse is the wire form of a result page. Rows are decoded by
// shape: a row with a status is a verification row.
type resultsResponse struct {
	JobID     string            `json:"jobId"`
	FileName  string            `json:"fileName"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	Total     int               `json:"total"`
	Valid     int               `json:"valid"`
	Invalid   int               `json:"invalid"`
	AcceptAll int               `json:"acceptAll"`
	Results   []json.RawMessage `json:"results"`
}

// Results loads one page of a job's results.
func (c *Client) Results(ctx context.Context, jobID string, page, pageSize int) (core.ResultPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	path := "/upload/job/" + url.PathEscape(jobID) + "/results?" + q.Encode()

	var resp resultsResponse
	if err := c.getJSON(ctx, "results", path, &resp); err != nil {
		return core.ResultPage{}, err
	}

	rows := make([]core.RowResult, 0, len(resp.Results))
	for i, raw := range resp.Results {
		row, err := decodeRow(raw)
		if err != nil {
			return core.ResultPage{}, &core.ServerError{
				Status:  http.StatusOK,
				Message: fmt.Sprintf("malformed result row %d: %v", i, err),
			}
		}
		rows = append(rows, row)
	}

	if resp.JobID == "" {
		resp.JobID = jobID
	}
	return core.ResultPage{
		JobID:     resp.JobID,
		FileName:  resp.FileName,
		Page:      resp.Page,
		PageSize:  resp.PageSize,
		Total:     resp.Total,
		Valid:     resp.Valid,
		Invalid:   resp.Invalid,
		AcceptAll: resp.AcceptAll,
		Rows:      rows,
	}, nil
}

func decodeRow(raw json.RawMessage) (core.RowResult, error) {
	var probe struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if probe.Status != nil {
		var v core.VerificationRow
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	var e core.ExtractedRow
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// Download opens the server-rendered CSV export of a job. The caller closes
// the body.
func (c *Client) Download(ctx context.Context, jobID string, exportType core.ExportType) (io.ReadCloser, error) {
	path := "/upload/job/" + url.PathEscape(jobID) + "/results/download?type=" + url.QueryEscape(string(exportType))

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "download")
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, serverError(resp)
	}
	return resp.Body, nil
}

// Stats reads the dashboard counters.
func (c *Client) Stats(ctx context.Context) (core.DashboardStats, error) {
	var resp struct {
		Stats core.DashboardStats `json:"stats"`
	}
	if err := c.getJSON(ctx, "stats", "/stats", &resp); err != nil {
		return core.DashboardStats{}, err
	}
	return resp.Stats, nil
}

// Health reports whether the job service answers with a 2xx status.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, "health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return serverError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req. Transport failures become *core.NetworkError; the status
// code is left to the caller.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("job service request failed", "op", op, "url", req.URL.Path, "error", err)
		return nil, &core.NetworkError{Op: op, Err: err}
	}
	slog.Debug("job service request",
		"op", op,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.roundTrip(req, op, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.roundTrip(req, op, out)
}

func (c *Client) postMultipart(ctx context.Context, op, path string, file core.UploadFile, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.roundTrip(req, op, out)
}

// roundTrip sends req and decodes a 2xx JSON body into out.
func (c *Client) roundTrip(req *http.Request, op string, out any) error {
	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return &core.NetworkError{Op: op, Err: ctxErr}
		}
		return &core.ServerError{Status: resp.StatusCode, Message: "malformed " + op + " response"}
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// serverError builds a *core.ServerError from a non-2xx response. The
// message comes from an {"error": "..."} body when present, otherwise from
// the start of the raw body.
func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Error
		if msg == "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = snippet(string(body), 200)
	}
	return &core.ServerError{Status: resp.StatusCode, Message: msg}
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
