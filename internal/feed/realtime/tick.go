// Package realtime keeps a latest-price cache fresh from the KIS
// websocket tick stream. The scan job scores pivot proximity against
// these prices between daily bar updates.
package realtime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PriceTick is one observed trade price for a symbol
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"` // 누적 거래량
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Age returns how old the tick is relative to now
func (t PriceTick) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

const (
	// SourceKIS marks ticks from the KIS websocket
	SourceKIS = "kis_ws"

	// 실시간 체결가 TR
	trIDTickPrice = "H0STCNT0"
)

// H0STCNT0 caret-field positions we consume
const (
	fieldSymbol     = 0  // 유가증권 단축 종목코드
	fieldTradeHour  = 1  // 주식 체결 시간 (HHMMSS)
	fieldTradePrice = 2  // 주식 현재가
	fieldAcmlVolume = 13 // 누적 거래량
	minTickFields   = 14
)

// IsTickFrame reports whether a raw websocket message is a pipe-framed
// data message (control messages are JSON objects).
func IsTickFrame(raw []byte) bool {
	return len(raw) > 0 && (raw[0] == '0' || raw[0] == '1')
}

// ParseTickFrame parses one pipe-framed tick message:
// 암호화여부|TR_ID|건수|필드1^필드2^...
// Only the first record of a multi-record frame is used; at our
// subscription volume KIS delivers one trade per frame.
func ParseTickFrame(raw []byte, now time.Time, loc *time.Location) (PriceTick, error) {
	parts := strings.Split(string(raw), "|")
	if len(parts) < 4 {
		return PriceTick{}, fmt.Errorf("malformed tick frame: %d segments", len(parts))
	}
	if parts[1] != trIDTickPrice {
		return PriceTick{}, fmt.Errorf("unexpected tr_id: %s", parts[1])
	}

	fields := strings.Split(parts[3], "^")
	if len(fields) < minTickFields {
		return PriceTick{}, fmt.Errorf("tick record too short: %d fields", len(fields))
	}

	price, err := strconv.ParseFloat(fields[fieldTradePrice], 64)
	if err != nil || price <= 0 {
		return PriceTick{}, fmt.Errorf("invalid trade price %q", fields[fieldTradePrice])
	}

	volume, _ := strconv.ParseInt(fields[fieldAcmlVolume], 10, 64)

	ts, err := tradeTime(fields[fieldTradeHour], now, loc)
	if err != nil {
		return PriceTick{}, err
	}

	return PriceTick{
		Symbol:    fields[fieldSymbol],
		Price:     price,
		Volume:    volume,
		Timestamp: ts,
		Source:    SourceKIS,
	}, nil
}

// tradeTime anchors an HHMMSS trade clock on today's date in the
// exchange timezone.
func tradeTime(hhmmss string, now time.Time, loc *time.Location) (time.Time, error) {
	if len(hhmmss) != 6 {
		return time.Time{}, fmt.Errorf("invalid trade hour %q", hhmmss)
	}

	h, err1 := strconv.Atoi(hhmmss[0:2])
	m, err2 := strconv.Atoi(hhmmss[2:4])
	s, err3 := strconv.Atoi(hhmmss[4:6])
	if err1 != nil || err2 != nil || err3 != nil || h > 23 || m > 59 || s > 59 {
		return time.Time{}, fmt.Errorf("invalid trade hour %q", hhmmss)
	}

	day := now.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc), nil
}
