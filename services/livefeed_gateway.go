package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockdata-backend/models"
)

// LiveFeedGateway is the outbound boundary to the external live-quote
// provider. Start/Stop drive its streaming control surface; Fetch and
// FetchInfo are the synchronous historical/info paths. Implementations must
// be safe for concurrent use.
type LiveFeedGateway interface {
	Start(ticker string) error
	Stop(ticker string) error
	Fetch(ticker, resolution string, period int) ([]models.Candle, error)
	FetchInfo(ticker string) (*models.StockInfo, error)
}

// ProviderGateway talks to the provider process: HTTP for stream control,
// subprocess invocation for bounded historical windows.
type ProviderGateway struct {
	baseURL      string
	pythonPath   string
	scriptPath   string
	fetchTimeout time.Duration
	httpClient   *http.Client
}

var _ LiveFeedGateway = (*ProviderGateway)(nil)

// NewProviderGateway creates a gateway for the given provider endpoints
func NewProviderGateway(baseURL, pythonPath, scriptPath string, fetchTimeout time.Duration) *ProviderGateway {
	return &ProviderGateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		pythonPath:   pythonPath,
		scriptPath:   scriptPath,
		fetchTimeout: fetchTimeout,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Start asks the provider to begin streaming a ticker
func (g *ProviderGateway) Start(ticker string) error {
	return g.control("subscribe", ticker)
}

// Stop asks the provider to stop streaming a ticker
func (g *ProviderGateway) Stop(ticker string) error {
	return g.control("unsubscribe", ticker)
}

func (g *ProviderGateway) control(action, ticker string) error {
	url := fmt.Sprintf("%s/%s/%s", g.baseURL, action, ticker)
	resp, err := g.httpClient.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("provider %s request failed for %s: %w", action, ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider %s for %s returned status %d", action, ticker, resp.StatusCode)
	}
	return nil
}

// Fetch runs the provider script for a bounded historical window and parses
// its line-oriented output. Non-zero exit, timeout and unparseable output are
// all reported as errors; the caller falls through to the next tier.
func (g *ProviderGateway) Fetch(ticker, resolution string, period int) ([]models.Candle, error) {
	output, err := g.runScript(ticker, resolution, strconv.Itoa(period))
	if err != nil {
		return nil, err
	}

	candles, err := parseChartOutput(output, ticker)
	if err != nil {
		return nil, fmt.Errorf("chart output for %s unusable: %w", ticker, err)
	}
	return candles, nil
}

// FetchInfo runs the provider script in info mode and parses a single quote
// summary object.
func (g *ProviderGateway) FetchInfo(ticker string) (*models.StockInfo, error) {
	output, err := g.runScript(ticker, "info", "dummy")
	if err != nil {
		return nil, err
	}
	return parseInfoOutput(output, ticker)
}

func (g *ProviderGateway) runScript(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.fetchTimeout)
	defer cancel()

	argv := append([]string{g.scriptPath}, args...)
	cmd := exec.CommandContext(ctx, g.pythonPath, argv...)

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("provider script timed out after %v", g.fetchTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("provider script failed: %w (output: %s)", err, truncate(string(output), 200))
	}
	return output, nil
}

// candlePayload mirrors the provider's per-candle JSON shape
type candlePayload struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Open   int    `json:"open"`
	High   int    `json:"high"`
	Low    int    `json:"low"`
	Close  int    `json:"close"`
	Volume int64  `json:"volume"`
}

// parseChartOutput extracts candles from the first well-formed JSON line of
// the script output. Malformed entries inside the array are skipped.
func parseChartOutput(output []byte, ticker string) ([]models.Candle, error) {
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "{") {
			continue
		}

		var payloads []candlePayload
		if strings.HasPrefix(line, "[") {
			if err := json.Unmarshal([]byte(line), &payloads); err != nil {
				return nil, fmt.Errorf("invalid candle array: %w", err)
			}
		} else {
			var single candlePayload
			if err := json.Unmarshal([]byte(line), &single); err != nil {
				return nil, fmt.Errorf("invalid candle object: %w", err)
			}
			payloads = []candlePayload{single}
		}

		candles := make([]models.Candle, 0, len(payloads))
		for _, p := range payloads {
			if p.Date == "" {
				log.Printf("Skipping candle without date for %s", ticker)
				continue
			}
			candles = append(candles, models.Candle{
				Ticker: ticker,
				Date:   p.Date,
				Time:   p.Time,
				Open:   p.Open,
				High:   p.High,
				Low:    p.Low,
				Close:  p.Close,
				Volume: p.Volume,
			})
		}
		return candles, nil
	}
	return nil, fmt.Errorf("no JSON line found in script output")
}

// infoPayload mirrors the provider's stock info JSON shape
type infoPayload struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	CurrentPrice  int     `json:"currentPrice"`
	ChangeAmount  int     `json:"changeAmount"`
	ChangeRate    float64 `json:"changeRate"`
	OpenPrice     int     `json:"openPrice"`
	HighPrice     int     `json:"highPrice"`
	LowPrice      int     `json:"lowPrice"`
	Volume        int64   `json:"volume"`
	TradingValue  float64 `json:"tradingValue"`
	MarketCap     float64 `json:"marketCap"`
	PER           float64 `json:"per"`
	PBR           float64 `json:"pbr"`
	EPS           int     `json:"eps"`
	BPS           int     `json:"bps"`
	Sector        string  `json:"sector"`
	ListingShares int64   `json:"listingShares"`
}

func parseInfoOutput(output []byte, ticker string) (*models.StockInfo, error) {
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var p infoPayload
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("invalid info object: %w", err)
		}
		if p.Ticker == "" {
			p.Ticker = ticker
		}

		return &models.StockInfo{
			Ticker:        p.Ticker,
			Name:          p.Name,
			CurrentPrice:  p.CurrentPrice,
			ChangeAmount:  p.ChangeAmount,
			ChangeRate:    p.ChangeRate,
			OpenPrice:     p.OpenPrice,
			HighPrice:     p.HighPrice,
			LowPrice:      p.LowPrice,
			Volume:        p.Volume,
			TradingValue:  decimal.NewFromFloat(p.TradingValue),
			MarketCap:     decimal.NewFromFloat(p.MarketCap),
			PER:           p.PER,
			PBR:           p.PBR,
			EPS:           p.EPS,
			BPS:           p.BPS,
			Sector:        p.Sector,
			ListingShares: p.ListingShares,
		}, nil
	}
	return nil, fmt.Errorf("no JSON object found in script output")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
