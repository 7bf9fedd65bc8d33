// Package naver fetches the market data the screener scores: daily
// OHLCV bars from the chart endpoint and investor flow sums scraped
// from the finance portal. Everything is normalized into the
// contracts types before it leaves this package.
package naver

import (
	"github.com/point10890-crypto/closing-bet-sub003/pkg/httputil"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger

	chartBaseURL  string
	financeBaseURL string
}

// NewClient creates a new Naver Finance client. Callers should
// configure a local rate limit on the HTTP client; the portal bans
// aggressive scrapers.
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		logger:         log,
		chartBaseURL:   "https://fchart.stock.naver.com",
		financeBaseURL: "https://finance.naver.com",
	}
}

// browserHeaders makes portal requests look like a regular browser
func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    "https://finance.naver.com/",
	}
}
