package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
)

// FlowRow is one trading day of investor net buying for a symbol.
// Net amounts are share counts as published; KRW value is estimated
// against the day's close.
type FlowRow struct {
	Date       time.Time
	Close      float64
	ForeignNet int64 // 외국인 순매매량 (주)
	InstNet    int64 // 기관 순매매량 (주)
}

// ForeignNetValue estimates the foreign net flow in KRW
func (r FlowRow) ForeignNetValue() float64 {
	return float64(r.ForeignNet) * r.Close
}

// InstNetValue estimates the institutional net flow in KRW
func (r FlowRow) InstNetValue() float64 {
	return float64(r.InstNet) * r.Close
}

// FetchFlowRows scrapes up to maxPages of the investor flow table,
// most recent trading day first.
// ⭐ SSOT: 투자자 수급 데이터 호출은 이 함수에서만
func (c *Client) FetchFlowRows(ctx context.Context, symbol string, maxPages int) ([]FlowRow, error) {
	var rows []FlowRow

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return rows, ctx.Err()
		default:
		}

		pageURL := fmt.Sprintf("%s/item/frgn.naver?code=%s&page=%d", c.financeBaseURL, symbol, page)

		resp, err := c.httpClient.GetWithHeaders(ctx, pageURL, browserHeaders())
		if err != nil {
			return rows, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return rows, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return rows, fmt.Errorf("read response body failed: %w", err)
		}

		pageRows, hasMore := parseFlowHTML(string(body))
		rows = append(rows, pageRows...)

		if !hasMore || len(pageRows) == 0 {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(rows),
	}).Debug("Fetched investor flow")

	return rows, nil
}

// FlowFacts returns the named flow facts the scorer consumes: foreign
// and institutional net buying summed over the most recent `days`
// trading days, in estimated KRW. Missing or short data returns nil;
// the flow component then degrades with a warning instead of failing
// the evaluation.
func (c *Client) FlowFacts(ctx context.Context, symbol string, days int) (contracts.Facts, error) {
	// 한 페이지 20행, 5일 합산에는 첫 페이지로 충분
	pages := days/20 + 1

	rows, err := c.FetchFlowRows(ctx, symbol, pages)
	if err != nil {
		return nil, err
	}

	facts, ok := SumRecentFlow(rows, days)
	if !ok {
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"days":   days,
			"rows":   len(rows),
		}).Warn("Not enough flow history for facts")
		return nil, nil
	}
	return facts, nil
}

// SumRecentFlow sums the first `days` rows (rows are most recent
// first) into the scorer's fact map. ok=false when history is short.
func SumRecentFlow(rows []FlowRow, days int) (contracts.Facts, bool) {
	if days <= 0 || len(rows) < days {
		return nil, false
	}

	var foreign, inst float64
	for _, r := range rows[:days] {
		foreign += r.ForeignNetValue()
		inst += r.InstNetValue()
	}

	return contracts.Facts{
		contracts.FactForeignNet5D: foreign,
		contracts.FactInstNet5D:    inst,
	}, true
}

var flowDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// parseFlowHTML parses one page of the investor flow table.
// 컬럼: 날짜 | 종가 | 전일비 | 등락률 | 거래량 | 기관 | 외국인
func parseFlowHTML(html string) ([]FlowRow, bool) {
	var rows []FlowRow

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return rows, false
	}

	// 두번째 type2 테이블이 데이터 테이블
	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return rows, false
	}

	tables.Eq(1).Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !flowDateRe.MatchString(dateText) {
			return
		}
		date, err := time.Parse("2006-01-02", strings.ReplaceAll(dateText, ".", "-"))
		if err != nil {
			return
		}

		rows = append(rows, FlowRow{
			Date:       date,
			Close:      float64(parsePortalNumber(cells.Eq(1).Text())),
			InstNet:    parsePortalNumber(cells.Eq(5).Text()),
			ForeignNet: parsePortalNumber(cells.Eq(6).Text()),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return rows, hasMore
}

// parsePortalNumber handles the portal's comma-grouped signed numbers
func parsePortalNumber(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
