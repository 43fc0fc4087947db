package kite

import (
	"strings"
	"testing"

	gwerrors "zerodha-roast/internal/errors"
)

func TestParseInstrumentsFiltersEquity(t *testing.T) {
	csv := "tradingsymbol,exchange,segment\nINFY,NSE,EQ\nNIFTY24JANFUT,NFO,FUT\n"
	list, err := ParseInstruments(strings.NewReader(csv), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseInstruments() error = %v", err)
	}
	eq := FilterEquity(list)
	if len(eq) != 1 || eq[0].Tradingsymbol != "INFY" || eq[0].Exchange != "NSE" {
		t.Errorf("equity = %+v", eq)
	}
}

func TestParseInstrumentsShortRow(t *testing.T) {
	csv := "tradingsymbol,exchange,segment\nINFY,NSE\n\nTCS,NSE,EQ\n"
	list, err := ParseInstruments(strings.NewReader(csv), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseInstruments() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2 (blank line skipped)", len(list))
	}
	if list[0].Tradingsymbol != "INFY" || list[0].Segment != "" {
		t.Errorf("short row = %+v", list[0])
	}
}

func TestParseInstrumentsStrict(t *testing.T) {
	csv := "tradingsymbol,exchange,segment\nINFY,NSE\n"
	_, err := ParseInstruments(strings.NewReader(csv), ParseOptions{Strict: true})
	if !gwerrors.Is(err, gwerrors.ErrMalformedPayload) {
		t.Errorf("strict parse error = %v, want ErrMalformedPayload", err)
	}
}

func TestParseInstrumentsKiteCatalog(t *testing.T) {
	csv := "\ufeffinstrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange\n" +
		"408065,1594,INFY,INFOSYS,0,,0,0.05,1,EQ,NSE,NSE\n" +
		"12345,48,NIFTY24JANFUT,NIFTY,0,2024-01-25,0,0.05,50,FUT,NFO-FUT,NFO\n"
	list, err := ParseInstruments(strings.NewReader(csv), ParseOptions{Strict: true})
	if err != nil {
		t.Fatalf("ParseInstruments() error = %v", err)
	}
	eq := FilterEquity(list)
	if len(eq) != 1 || eq[0].InstrumentToken != "408065" || eq[0].Name != "INFOSYS" {
		t.Errorf("equity = %+v", eq)
	}
}

func TestParseInstrumentsExtraColumns(t *testing.T) {
	csv := "tradingsymbol,segment,isin\nINFY,EQ,INE009A01021\n"
	list, err := ParseInstruments(strings.NewReader(csv), ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Extra["isin"] != "INE009A01021" {
		t.Errorf("extra = %v", list[0].Extra)
	}
}

func TestParseInstrumentsRejectsNonCatalog(t *testing.T) {
	for _, body := range []string{"", "foo,bar\n1,2\n"} {
		if _, err := ParseInstruments(strings.NewReader(body), ParseOptions{}); !gwerrors.Is(err, gwerrors.ErrMalformedPayload) {
			t.Errorf("ParseInstruments(%q) error = %v", body, err)
		}
	}
}

func TestSearchInstruments(t *testing.T) {
	var list []Instrument
	for i := 0; i < 30; i++ {
		list = append(list, Instrument{Tradingsymbol: "BANK" + string(rune('A'+i%26)) + string(rune('A'+i/26)), Segment: "EQ"})
	}
	list = append(list, Instrument{Tradingsymbol: "INFY", Segment: "EQ"})

	if got := SearchInstruments(list, "bank", 0); len(got) != DefaultSearchLimit {
		t.Errorf("search bank = %d results, want %d", len(got), DefaultSearchLimit)
	}
	got := SearchInstruments(list, "nF", 0)
	if len(got) != 1 || got[0].Tradingsymbol != "INFY" {
		t.Errorf("search nF = %+v", got)
	}
	if got := SearchInstruments(list, "zzz", 5); got == nil || len(got) != 0 {
		t.Errorf("search zzz = %v, want empty", got)
	}
}
