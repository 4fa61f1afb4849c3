package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/model"
	"github.com/tradeperk/rebate-engine/pkg/dateutil"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

var (
	ErrBridgeConfigMissing = errors.New("bridge config missing for exchange")
	ErrBridgeRequestFailed = errors.New("bridge request failed")
)

// Config is the endpoint configuration for one exchange bridge.
type Config struct {
	URL   string
	Token string
}

// ConfigResolver maps a canonical exchange name to its bridge endpoint.
type ConfigResolver interface {
	BridgeConfig(ctx context.Context, exchange string) (*Config, error)
}

// Client talks to the partner bridge APIs that expose per-UID trade data.
// All calls are read-only HTTP and must complete before any local
// transaction opens.
type Client struct {
	resolver ConfigResolver
	http     *http.Client
}

// NewClient creates a bridge client with a bounded request timeout.
func NewClient(resolver ConfigResolver) *Client {
	return &Client{
		resolver: resolver,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Field aliases seen across partner bridges; first match wins.
var (
	uidFields      = []string{"uid", "userId", "user_id", "userUid", "user_uid"}
	exchangeFields = []string{"exchange", "exchangeName", "exchange_name", "platform"}
	volumeFields   = []string{"tradeVolume", "trade_volume", "volume", "vol", "amount"}
	feeRateFields  = []string{"feeRate", "fee_rate", "baseFeeRate", "base_fee_rate", "rate"}
	rebateFields   = []string{"autoRebate", "auto_rebate", "rebate"}
	dateFields     = []string{"date", "day", "tradeDate", "trade_date", "timestamp", "ts", "time"}
)

// VerifyUIDHasTrade reports whether the uid has at least one trade row with
// strictly positive volume on the exchange. A row naming a different uid or
// a different exchange does not qualify; a row without an exchange field is
// accepted as belonging to the queried bridge.
func (c *Client) VerifyUIDHasTrade(ctx context.Context, exchange, uid string) (bool, error) {
	canonical, err := model.NormalizeExchangeName(exchange)
	if err != nil {
		return false, err
	}

	rows, err := c.fetch(ctx, canonical, url.Values{
		"uid":   {uid},
		"limit": {"1"},
	})
	if err != nil {
		return false, err
	}

	for _, row := range rows {
		if stringField(row, uidFields) != uid {
			continue
		}
		if name := stringField(row, exchangeFields); name != "" {
			rowExchange, err := model.NormalizeExchangeName(name)
			if err != nil || rowExchange != canonical {
				continue
			}
		}
		volume, ok := decimalField(row, volumeFields)
		if ok && volume.IsPositive() {
			return true, nil
		}
	}
	return false, nil
}

// FetchTrades pulls all trade rows for the exchange within [from, to]. A row
// the bridge returns that cannot be parsed aborts the whole pull, so a
// partial window is never imported.
func (c *Client) FetchTrades(ctx context.Context, exchange string, from, to time.Time) ([]model.TradeRow, error) {
	canonical, err := model.NormalizeExchangeName(exchange)
	if err != nil {
		return nil, err
	}

	rows, err := c.fetch(ctx, canonical, url.Values{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return nil, err
	}

	trades := make([]model.TradeRow, 0, len(rows))
	for i, row := range rows {
		trade, err := parseRow(canonical, row)
		if err != nil {
			return nil, fmt.Errorf("bridge row %d: %w", i, err)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (c *Client) fetch(ctx context.Context, exchange string, params url.Values) ([]map[string]interface{}, error) {
	cfg, err := c.resolver.BridgeConfig(ctx, exchange)
	if err != nil {
		return nil, err
	}
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("%w: %s", ErrBridgeConfigMissing, exchange)
	}

	endpoint := cfg.URL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build bridge request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrBridgeRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("bridge returned non-2xx",
			zap.String("exchange", exchange),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrBridgeRequestFailed, resp.StatusCode)
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeRequestFailed, err)
	}
	return rows, nil
}

// decodeRows accepts either a bare JSON array or an envelope carrying the
// array under data/rows/list.
func decodeRows(body []byte) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, key := range []string{"data", "rows", "list"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode %s field: %w", key, err)
		}
		return rows, nil
	}
	return nil, errors.New("response carries no row array")
}

func parseRow(exchange string, row map[string]interface{}) (model.TradeRow, error) {
	uid := stringField(row, uidFields)
	if uid == "" {
		return model.TradeRow{}, errors.New("missing uid")
	}

	volume, ok := decimalField(row, volumeFields)
	if !ok {
		return model.TradeRow{}, errors.New("missing trade volume")
	}

	day, ok := timeField(row, dateFields)
	if !ok {
		return model.TradeRow{}, errors.New("missing trade date")
	}

	feeRate, ok := decimalField(row, feeRateFields)
	if !ok {
		return model.TradeRow{}, errors.New("missing fee rate")
	}

	autoRebate, _ := decimalField(row, rebateFields)

	return model.TradeRow{
		Exchange:   exchange,
		UID:        uid,
		TradeDay:   dateutil.StartOfDayUTC(day),
		Volume:     volume,
		FeeRate:    feeRate,
		AutoRebate: autoRebate,
		Raw:        row,
	}, nil
}

func stringField(row map[string]interface{}, keys []string) string {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s)
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

func decimalField(row map[string]interface{}, keys []string) (decimal.Decimal, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), true
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(n))
			if err == nil {
				return d, true
			}
		case json.Number:
			d, err := decimal.NewFromString(n.String())
			if err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// timeField coerces string dates and unix timestamps; numeric values below
// 1e12 are treated as seconds, otherwise milliseconds.
func timeField(row map[string]interface{}, keys []string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "2006/01/02"} {
				if parsed, err := time.Parse(layout, s); err == nil {
					return parsed.UTC(), true
				}
			}
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				return unixTime(n), true
			}
		case float64:
			return unixTime(t), true
		case json.Number:
			if n, err := t.Float64(); err == nil {
				return unixTime(n), true
			}
		}
	}
	return time.Time{}, false
}

func unixTime(n float64) time.Time {
	if n >= 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
