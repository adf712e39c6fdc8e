// Package pvgis calls the JRC PVGIS hourly series API.
package pvgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"energy_profile/internal/model"
	"energy_profile/internal/observe"
)

const (
	DefaultBaseURL     = "https://re.jrc.ec.europa.eu/api"
	DefaultRadDatabase = "PVGIS-ERA5"
	DefaultYear        = 2023
	DefaultModulePower = 0.5
	DefaultLoss        = 15.0
	DefaultMounting    = "free"
)

// Request describes one PV system simulation.
type Request struct {
	Latitude  float64
	Longitude float64
	// Efficiency is passed through unchanged.
	Efficiency float64
	// Azimuth is the PVGIS aspect in degrees (0 = south, -90 = east).
	Azimuth float64
	// Slope is the panel tilt from horizontal in degrees.
	Slope float64
	// ModulePower is the peak power in kW.
	ModulePower float64
	// Loss is the system loss in percent.
	Loss          float64
	Year          int
	RadDatabase   string
	MountingPlace string
}

// WithDefaults fills zero-valued optional fields.
func (r Request) WithDefaults() Request {
	if r.ModulePower == 0 {
		r.ModulePower = DefaultModulePower
	}
	if r.Loss == 0 {
		r.Loss = DefaultLoss
	}
	if r.Year == 0 {
		r.Year = DefaultYear
	}
	if r.RadDatabase == "" {
		r.RadDatabase = DefaultRadDatabase
	}
	if r.MountingPlace == "" {
		r.MountingPlace = DefaultMounting
	}
	return r
}

// Validate checks coordinate ranges. NaN is out of every range.
func (r Request) Validate() error {
	if math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", r.Latitude)
	}
	if math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", r.Longitude)
	}
	if math.IsNaN(r.ModulePower) || r.ModulePower < 0 {
		return fmt.Errorf("module power must not be negative")
	}
	return nil
}

func (r Request) query() url.Values {
	year := strconv.Itoa(r.Year)
	q := url.Values{}
	q.Set("lat", formatFloat(r.Latitude))
	q.Set("lon", formatFloat(r.Longitude))
	q.Set("outputformat", "json")
	q.Set("pvcalculation", "1")
	q.Set("peakpower", formatFloat(r.ModulePower))
	// PVGIS expects whole degrees here.
	q.Set("angle", strconv.Itoa(int(r.Slope)))
	q.Set("aspect", strconv.Itoa(int(r.Azimuth)))
	q.Set("efficiency", formatFloat(r.Efficiency))
	q.Set("raddatabase", r.RadDatabase)
	q.Set("startyear", year)
	q.Set("endyear", year)
	q.Set("timeseries", "1")
	q.Set("mountingplace", r.MountingPlace)
	q.Set("loss", formatFloat(r.Loss))
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Client talks to PVGIS. The zero value is not usable; call NewClient.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *observe.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-200 answer from PVGIS.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("PVGIS HTTP %d: %s", e.StatusCode, e.Message)
}

// SeriesCalc runs a single hourly simulation. It makes exactly one request.
func (c *Client) SeriesCalc(ctx context.Context, req Request) (*Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.seriesCalc(ctx, req)
	c.metrics.PVGISRequest(time.Since(start), err)
	if err != nil {
		c.logger.Warn("PVGIS request failed", "lat", req.Latitude, "lon", req.Longitude, "err", err)
		return nil, err
	}
	c.logger.Debug("PVGIS request done", "hours", len(resp.Outputs.Hourly), "elapsed", time.Since(start))
	return resp, nil
}

func (c *Client) seriesCalc(ctx context.Context, req Request) (*Response, error) {
	u := c.baseURL + "/seriescalc?" + req.query().Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, model.Wrap(model.KindUpstreamFailure, err, "PVGIS request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.Wrap(model.KindUpstreamFailure, err, "reading PVGIS response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, model.Wrap(model.KindUpstreamFailure, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}, "PVGIS request")
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, model.Wrap(model.KindUpstreamFailure, err, "decoding PVGIS response")
	}
	out.Raw = body
	out.Year = req.Year
	return &out, nil
}

// errorMessage extracts {"message": ...} when PVGIS sends JSON, else the body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	return msg
}
