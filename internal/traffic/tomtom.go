package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

var (
	// ErrNoData means the provider has no flow segment near the point.
	ErrNoData = errors.New("no traffic data for location")
	// ErrNoCredential means no API key is configured.
	ErrNoCredential = errors.New("traffic API key not configured")
)

const DefaultTomTomURL = "https://api.tomtom.com/traffic/services/4/flowSegmentData/absolute/10/json"

// Sample is one live flow reading, speeds in km/h.
type Sample struct {
	CurrentSpeed  float64 `json:"currentSpeed"`
	FreeFlowSpeed float64 `json:"freeFlowSpeed"`
	Confidence    float64 `json:"confidence"`
	RoadClosure   bool    `json:"roadClosure"`
	FRC           string  `json:"frc"`
}

// Source returns a live sample for a point.
type Source interface {
	Sample(ctx context.Context, p geo.Point) (Sample, error)
}

// TomTomClient reads the Flow Segment Data endpoint.
type TomTomClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTomTomClient(apiKey, baseURL string, client *http.Client) *TomTomClient {
	if baseURL == "" {
		baseURL = DefaultTomTomURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &TomTomClient{apiKey: apiKey, baseURL: baseURL, client: client}
}

type flowSegmentResponse struct {
	FlowSegmentData *Sample `json:"flowSegmentData"`
}

func (t *TomTomClient) Sample(ctx context.Context, p geo.Point) (Sample, error) {
	if t.apiKey == "" {
		return Sample{}, ErrNoCredential
	}

	q := url.Values{}
	q.Set("key", t.apiKey)
	q.Set("point", strconv.FormatFloat(p.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(p.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Sample{}, fmt.Errorf("build traffic request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("traffic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Sample{}, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("traffic API returned status %d", resp.StatusCode)
	}

	var body flowSegmentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Sample{}, fmt.Errorf("decode traffic response: %w", err)
	}
	if body.FlowSegmentData == nil {
		return Sample{}, ErrNoData
	}
	return *body.FlowSegmentData, nil
}
