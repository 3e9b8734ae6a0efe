package store

import (
	"sort"
	"strings"
)

// Company is a listed company.
type Company struct {
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name"`
	Sector      string  `json:"sector"`
	MarketCapBn float64 `json:"market_cap_bn"`
	PERatio     float64 `json:"pe_ratio"`
	Description string  `json:"description"`
}

// Quote is a frozen price snapshot.
type Quote struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Currency      string  `json:"currency"`
	AsOf          string  `json:"as_of"`
}

// Sector groups companies.
type Sector struct {
	Name       string   `json:"sector"`
	Outlook    string   `json:"outlook"`
	Tickers    []string `json:"tickers"`
	AvgPERatio float64  `json:"average_pe_ratio"`
	TotalCapBn float64  `json:"total_market_cap_bn"`
}

// Finance is the frozen finance namespace.
type Finance struct {
	companies map[string]Company
	quotes    map[string]Quote
	sectors   map[string]Sector
}

var fixtureCompanies = []Company{
	{Ticker: "NVTX", Name: "Novatech Systems", Sector: "technology", MarketCapBn: 412.5, PERatio: 38.2, Description: "Accelerated computing hardware and AI software platforms."},
	{Ticker: "QBIT", Name: "QuantumBit Corp", Sector: "technology", MarketCapBn: 18.4, PERatio: 0, Description: "Superconducting quantum processors; not yet profitable."},
	{Ticker: "CYGD", Name: "CyberGuard Inc", Sector: "technology", MarketCapBn: 64.1, PERatio: 45.7, Description: "Endpoint and cloud security."},
	{Ticker: "SOLR", Name: "Solaris Energy", Sector: "energy", MarketCapBn: 72.3, PERatio: 21.4, Description: "Utility-scale solar developer and operator."},
	{Ticker: "GRDX", Name: "GridX Storage", Sector: "energy", MarketCapBn: 15.9, PERatio: 29.8, Description: "Grid batteries and storage software."},
	{Ticker: "VOLT", Name: "Voltara Motors", Sector: "industrials", MarketCapBn: 88.6, PERatio: 54.3, Description: "Electric vehicles and charging networks."},
	{Ticker: "MEDI", Name: "Medira Health", Sector: "healthcare", MarketCapBn: 133.0, PERatio: 18.9, Description: "Biologics and gene therapies."},
	{Ticker: "GENX", Name: "GenexBio", Sector: "healthcare", MarketCapBn: 27.2, PERatio: 33.1, Description: "CRISPR-based therapeutics."},
	{Ticker: "FINQ", Name: "Finquest Bank", Sector: "financials", MarketCapBn: 201.7, PERatio: 11.6, Description: "Retail and commercial banking."},
}

var fixtureQuotes = map[string]Quote{
	"NVTX": {Ticker: "NVTX", Price: 168.42, ChangePercent: 1.84},
	"QBIT": {Ticker: "QBIT", Price: 12.07, ChangePercent: -3.12},
	"CYGD": {Ticker: "CYGD", Price: 241.90, ChangePercent: 0.47},
	"SOLR": {Ticker: "SOLR", Price: 54.33, ChangePercent: -0.88},
	"GRDX": {Ticker: "GRDX", Price: 23.15, ChangePercent: 2.61},
	"VOLT": {Ticker: "VOLT", Price: 97.80, ChangePercent: -1.35},
	"MEDI": {Ticker: "MEDI", Price: 312.64, ChangePercent: 0.22},
	"GENX": {Ticker: "GENX", Price: 41.09, ChangePercent: 4.05},
	"FINQ": {Ticker: "FINQ", Price: 58.71, ChangePercent: 0.13},
}

var sectorOutlook = map[string]string{
	"technology":  "positive",
	"energy":      "neutral",
	"industrials": "neutral",
	"healthcare":  "positive",
	"financials":  "cautious",
}

// NewFinance builds the finance store.
func NewFinance() *Finance {
	f := &Finance{
		companies: make(map[string]Company),
		quotes:    make(map[string]Quote),
		sectors:   make(map[string]Sector),
	}
	for _, c := range fixtureCompanies {
		f.companies[c.Ticker] = c
		q := fixtureQuotes[c.Ticker]
		q.Currency = "USD"
		q.AsOf = Today
		f.quotes[c.Ticker] = q

		s := f.sectors[c.Sector]
		s.Name = c.Sector
		s.Outlook = sectorOutlook[c.Sector]
		s.Tickers = append(s.Tickers, c.Ticker)
		s.TotalCapBn += c.MarketCapBn
		f.sectors[c.Sector] = s
	}
	for name, s := range f.sectors {
		sort.Strings(s.Tickers)
		var sum float64
		var n int
		for _, t := range s.Tickers {
			if pe := f.companies[t].PERatio; pe > 0 {
				sum += pe
				n++
			}
		}
		if n > 0 {
			s.AvgPERatio = float64(int(sum/float64(n)*100+0.5)) / 100
		}
		s.TotalCapBn = float64(int(s.TotalCapBn*10+0.5)) / 10
		f.sectors[name] = s
	}
	return f
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(t), "$"))
}

// Company looks up a company by ticker.
func (f *Finance) Company(ticker string) (Company, bool) {
	c, ok := f.companies[normalizeTicker(ticker)]
	return c, ok
}

// Quote looks up the frozen price of a ticker.
func (f *Finance) Quote(ticker string) (Quote, bool) {
	q, ok := f.quotes[normalizeTicker(ticker)]
	return q, ok
}

// Sector looks up a sector by name.
func (f *Finance) Sector(name string) (Sector, bool) {
	s, ok := f.sectors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Sector{}, false
	}
	s.Tickers = append([]string(nil), s.Tickers...)
	return s, true
}

// SectorNames returns the known sectors, sorted.
func (f *Finance) SectorNames() []string {
	out := make([]string, 0, len(f.sectors))
	for name := range f.sectors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
