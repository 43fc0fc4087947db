package kite

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	gwerrors "zerodha-roast/internal/errors"
)

// ParseOptions controls catalog parsing.
type ParseOptions struct {
	// Strict rejects rows whose field count differs from the header's.
	// The default fills missing trailing fields with "" and ignores extras.
	Strict bool
}

// ParseInstruments reads the bulk instrument catalog. The first non-blank
// line is the header; columns are mapped to fields by position.
func ParseInstruments(r io.Reader, opts ParseOptions) ([]Instrument, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty instrument catalog", gwerrors.ErrMalformedPayload)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: catalog header: %v", gwerrors.ErrMalformedPayload, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	if !contains(header, "tradingsymbol") {
		return nil, fmt.Errorf("%w: catalog header has no tradingsymbol column", gwerrors.ErrMalformedPayload)
	}

	instruments := []Instrument{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !opts.Strict && errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", gwerrors.ErrMalformedPayload, err)
		}
		if opts.Strict && len(record) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				gwerrors.ErrMalformedPayload, line, len(record), len(header))
		}
		instruments = append(instruments, instrumentFromRecord(header, record))
	}
	return instruments, nil
}

func instrumentFromRecord(header, record []string) Instrument {
	var inst Instrument
	for i, col := range header {
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		switch col {
		case "instrument_token":
			inst.InstrumentToken = value
		case "exchange_token":
			inst.ExchangeToken = value
		case "tradingsymbol":
			inst.Tradingsymbol = value
		case "name":
			inst.Name = value
		case "last_price":
			inst.LastPrice = value
		case "expiry":
			inst.Expiry = value
		case "strike":
			inst.Strike = value
		case "tick_size":
			inst.TickSize = value
		case "lot_size":
			inst.LotSize = value
		case "instrument_type":
			inst.InstrumentType = value
		case "segment":
			inst.Segment = value
		case "exchange":
			inst.Exchange = value
		case "":
		default:
			if inst.Extra == nil {
				inst.Extra = make(map[string]string)
			}
			inst.Extra[col] = value
		}
	}
	return inst
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsEquity reports whether the instrument is a cash-segment equity. Kite's
// live catalog marks equities with instrument_type EQ and the exchange name
// as segment; simplified catalogs carry EQ in the segment column.
func (i Instrument) IsEquity() bool {
	return i.Segment == EquitySegment || i.InstrumentType == EquitySegment
}

// FilterEquity keeps equity instruments. The result is never nil.
func FilterEquity(list []Instrument) []Instrument {
	out := make([]Instrument, 0, len(list))
	for _, inst := range list {
		if inst.IsEquity() {
			out = append(out, inst)
		}
	}
	return out
}

// SearchInstruments returns up to limit instruments whose trading symbol
// contains query, ignoring case. A non-positive limit means DefaultSearchLimit.
func SearchInstruments(list []Instrument, query string, limit int) []Instrument {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToUpper(strings.TrimSpace(query))
	out := []Instrument{}
	for _, inst := range list {
		if strings.Contains(strings.ToUpper(inst.Tradingsymbol), q) {
			out = append(out, inst)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
