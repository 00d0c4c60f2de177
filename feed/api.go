package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xhhuango/json"

	"github.com/bcdannyboy/kalshiq/models"
)

const defaultBaseURL = "https://api.exchange.coinbase.com"

// Client fetches public spot candles. Only the CLI constructs one; the core
// engine consumes already-parsed series.
type Client struct {
	BaseURL string
	Product string
	HTTP    *http.Client
}

func NewClient(product string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Product: product,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetCandles fetches up to limit bars at the given granularity (seconds).
// The exchange returns [time, low, high, open, close, volume] rows newest
// first; the result is re-ordered oldest first and validated.
func (c *Client) GetCandles(ctx context.Context, granularitySeconds, limit int) ([]models.Candle, error) {
	url := fmt.Sprintf("%s/products/%s/candles?granularity=%d", c.BaseURL, c.Product, granularitySeconds)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candle fetch returned status %d: %w", resp.StatusCode, models.ErrCalibrationInput)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading candle response: %w", err)
	}

	var rows [][6]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding candle response: %w", err)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	candles := make([]models.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- { // newest first on the wire
		r := rows[i]
		candles = append(candles, models.Candle{
			TimeMS: int64(r[0]) * 1000,
			Low:    r[1],
			High:   r[2],
			Open:   r[3],
			Close:  r[4],
			Volume: r[5],
		})
	}
	if err := models.ValidateCandles(candles); err != nil {
		return nil, err
	}
	return candles, nil
}
