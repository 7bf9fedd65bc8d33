package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// FetchDailyBars fetches daily OHLCV bars for a symbol and returns
// them as a normalized chronological series, ready for the detector.
// ⭐ SSOT: 일봉 데이터 호출은 이 함수에서만
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) (contracts.Series, error) {
	fullURL := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartBaseURL, symbol, from.Format("20060102"), to.Format("20060102"),
	)

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, browserHeaders())
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	bars, err := parseBarsPayload(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
	}).Debug("Fetched daily bars")

	return contracts.NewSeries(bars), nil
}

// parseBarsPayload parses the chart endpoint response. The payload is
// almost-JSON with single quotes; normalize first, fall back to regex
// when the shape drifts.
func parseBarsPayload(body string) ([]contracts.Bar, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parseBarsJSON(rawData), nil
	}

	return parseBarsRegex(body), nil
}

// parseBarsJSON converts payload rows into bars, skipping the header
// row and anything malformed. 행 형식: [날짜, 시가, 고가, 저가, 종가, 거래량, ...]
func parseBarsJSON(rawData [][]interface{}) []contracts.Bar {
	var bars []contracts.Bar
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		ts, err := parseBarDate(strings.Trim(dateStr, "\""))
		if err != nil {
			continue
		}

		bar := contracts.Bar{
			Timestamp: ts,
			Open:      toFloat(row[1]),
			High:      toFloat(row[2]),
			Low:       toFloat(row[3]),
			Close:     toFloat(row[4]),
			Volume:    int64(toFloat(row[5])),
		}
		if bar.Close <= 0 {
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

var barRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// parseBarsRegex is the fallback for payloads the JSON pass rejects
func parseBarsRegex(body string) []contracts.Bar {
	var bars []contracts.Bar
	for _, match := range barRowRe.FindAllStringSubmatch(body, -1) {
		if len(match) < 7 {
			continue
		}

		ts, err := parseBarDate(match[1])
		if err != nil {
			continue
		}

		open, _ := strconv.ParseFloat(match[2], 64)
		high, _ := strconv.ParseFloat(match[3], 64)
		low, _ := strconv.ParseFloat(match[4], 64)
		closePrice, _ := strconv.ParseFloat(match[5], 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		if closePrice <= 0 {
			continue
		}
		bars = append(bars, contracts.Bar{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return bars
}

// parseBarDate accepts YYYYMMDD or YYYY-MM-DD
func parseBarDate(s string) (time.Time, error) {
	if len(s) == 8 {
		s = s[:4] + "-" + s[4:6] + "-" + s[6:8]
	}
	return time.Parse("2006-01-02", s)
}

// toFloat converts the mixed number representations the endpoint emits
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64)
		return f
	default:
		return 0
	}
}
