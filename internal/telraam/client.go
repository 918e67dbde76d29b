package telraam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"golang.org/x/time/rate"
)

const (
	// MaxWindow is the longest period a single traffic request may cover.
	MaxWindow = 90 * 24 * time.Hour

	// MaxAttempts bounds retries on 429 and 5xx responses.
	MaxAttempts = 3
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// SegmentCatalog lists segments and the cameras installed on them.
type SegmentCatalog interface {
	ActiveSegments(ctx context.Context, at time.Time) ([]int64, error)
	CamerasBySegment(ctx context.Context, segmentID int64) ([]Camera, error)
}

// MeasurementSource returns hourly traffic reports as raw records.
type MeasurementSource interface {
	Traffic(ctx context.Context, q TrafficQuery) ([]coverage.RawRecord, error)
}

// Client is an HTTP client for the Telraam API. It implements both
// SegmentCatalog and MeasurementSource.
type Client struct {
	token      string
	camerasURL string
	reportsURL string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a Telraam client allowing rps requests per second.
func NewClient(token, camerasURL, reportsURL string, rps float64) *Client {
	return &Client{
		token:      token,
		camerasURL: strings.TrimRight(camerasURL, "/"),
		reportsURL: strings.TrimRight(reportsURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ActiveSegments returns the ids of segments reporting at the given hour. A zero time
// means three hours ago, the most recent hour the snapshot is reliably complete.
func (c *Client) ActiveSegments(ctx context.Context, at time.Time) ([]int64, error) {
	if at.IsZero() {
		at = time.Now().Add(-3 * time.Hour)
	}
	payload := snapshotRequest{
		Time:     at.UTC().Truncate(time.Hour).Format(apiTime),
		Contents: "minimal",
		Area:     "full",
	}

	var report snapshotResponse
	if err := c.doJSON(ctx, http.MethodPost, c.reportsURL+"/traffic_snapshot", payload, &report); err != nil {
		return nil, fmt.Errorf("traffic snapshot: %w", err)
	}

	ids := make([]int64, 0, len(report.Features))
	for _, f := range report.Features {
		ids = append(ids, f.Properties.SegmentID)
	}
	return ids, nil
}

// Cameras lists every active camera of the network.
func (c *Client) Cameras(ctx context.Context) ([]Camera, error) {
	var resp camerasResponse
	if err := c.doJSON(ctx, http.MethodGet, c.camerasURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("cameras: %w", err)
	}
	return activeOnly(resp.Cameras), nil
}

// CamerasBySegment lists every camera ever installed on a segment.
func (c *Client) CamerasBySegment(ctx context.Context, segmentID int64) ([]Camera, error) {
	var resp segmentCamerasResponse
	url := fmt.Sprintf("%s/segment/%d", c.camerasURL, segmentID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("cameras of segment %d: %w", segmentID, err)
	}
	return resp.Camera, nil
}

// ActiveCameras returns the active cameras of a segment keyed by "v{hardware_version}".
func ActiveCameras(ctx context.Context, catalog SegmentCatalog, segmentID int64) (map[string]ActiveCamera, error) {
	cameras, err := catalog.CamerasBySegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ActiveCamera)
	for _, cam := range activeOnly(cameras) {
		out[fmt.Sprintf("v%d", cam.HardwareVersion)] = ActiveCamera{ID: cam.InstanceID, TimeAdded: cam.TimeAdded}
	}
	return out, nil
}

func activeOnly(cameras []Camera) []Camera {
	var out []Camera
	for _, cam := range cameras {
		if cam.Status == "active" {
			out = append(out, cam)
		}
	}
	return out
}

// Traffic fetches hourly reports for q, splitting periods longer than MaxWindow
// into consecutive requests.
func (c *Client) Traffic(ctx context.Context, q TrafficQuery) ([]coverage.RawRecord, error) {
	if q.Level == "" {
		q.Level = LevelInstances
	}
	if q.Format == "" {
		q.Format = FormatPerHour
	}
	if !q.End.After(q.Start) {
		return nil, fmt.Errorf("traffic %d: end %s is not after start %s", q.ID, q.End, q.Start)
	}

	var all []coverage.RawRecord
	for from := q.Start; from.Before(q.End); from = from.Add(MaxWindow) {
		to := from.Add(MaxWindow)
		if to.After(q.End) {
			to = q.End
		}
		payload := trafficRequest{
			ID:        q.ID,
			Level:     q.Level,
			Format:    q.Format,
			TimeStart: from.UTC().Format(apiTime),
			TimeEnd:   to.UTC().Format(apiTime),
		}

		var resp trafficResponse
		if err := c.doJSON(ctx, http.MethodPost, c.reportsURL+"/traffic", payload, &resp); err != nil {
			return nil, fmt.Errorf("traffic %d: %w", q.ID, err)
		}

		start := time.Now()
		records, err := toRawRecords(resp.Report)
		if err != nil {
			return nil, fmt.Errorf("traffic %d: %w", q.ID, err)
		}
		LogTransform(len(resp.Report), len(records), time.Since(start))
		all = append(all, records...)
	}
	return all, nil
}

// doJSON sends payload (if any) as JSON and decodes the response into out,
// retrying rate-limited and server-side failures.
func (c *Client) doJSON(ctx context.Context, method, url string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-Api-Key", c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		LogRequest(method, url, map[string]interface{}{"attempt": attempt})
		resp, err := c.httpClient.Do(req)
		if err != nil {
			LogError("fetch", err)
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
			LogRetry(attempt, resp.Status, retryAfter(resp))
			if err := sleep(ctx, retryAfter(resp)); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err := fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
			LogError("fetch", err)
			return err
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			LogError("decode", err)
			return fmt.Errorf("decode response: %w", err)
		}
		LogResponse(resp.StatusCode, time.Since(start))
		return nil
	}
	return fmt.Errorf("giving up after %d attempts: %w", MaxAttempts, lastErr)
}

func retryAfter(resp *http.Response) time.Duration {
	if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
		return time.Duration(s) * time.Second
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// toRawRecords keeps instance_id, date and uptime as typed fields and every other
// column as its JSON text (strings unquoted).
func toRawRecords(rows []map[string]json.RawMessage) ([]coverage.RawRecord, error) {
	out := make([]coverage.RawRecord, 0, len(rows))
	for i, row := range rows {
		var rec coverage.RawRecord

		var id json.Number
		if err := decodeField(row, "instance_id", &id); err != nil {
			return nil, fmt.Errorf("report row %d: %w", i, err)
		}
		n, err := id.Int64()
		if err != nil {
			return nil, fmt.Errorf("report row %d: instance_id: %w", i, err)
		}
		rec.InstanceID = n

		if err := decodeField(row, "date", &rec.Date); err != nil {
			return nil, fmt.Errorf("report row %d: %w", i, err)
		}
		if err := decodeField(row, "uptime", &rec.Uptime); err != nil {
			return nil, fmt.Errorf("report row %d: %w", i, err)
		}

		rec.Passthrough = make(map[string]string, len(row))
		for k, v := range row {
			switch k {
			case "instance_id", "date", "uptime":
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				rec.Passthrough[k] = s
			} else {
				rec.Passthrough[k] = string(v)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeField(row map[string]json.RawMessage, key string, dst interface{}) error {
	raw, ok := row[key]
	if !ok {
		return fmt.Errorf("missing column %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("column %s: %w", key, err)
	}
	return nil
}
