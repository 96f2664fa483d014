package field

import (
	"sort"

	"github.com/uhyunpark/mktfeed/pkg/wire"
)

var issueSubtypes = map[string]string{
	"A":  "Preferred Trust Securities",
	"AI": "Alpha Index ETNs",
	"B":  "Index Based Derivative",
	"C":  "Common Shares",
	"CB": "Commodity Based Trust Shares",
	"CF": "Commodity Futures Trust Shares",
	"CL": "Commodity-Linked Securities",
	"CM": "Commodity Index Trust Shares",
	"CO": "Collateralized Mortgage Obligation",
	"CT": "Currency Trust Shares",
	"CU": "Commodity-Currency-Linked Securities",
	"CW": "Currency Warrants",
	"D":  "Global Depositary Shares",
	"E":  "ETF-Portfolio Depositary Receipt",
	"EG": "Equity Gold Shares",
	"EI": "ETN-Equity Index-Linked Securities",
	"EM": "Exchange Traded Managed Funds",
	"EN": "Exchange Traded Notes",
	"EU": "Equity Units",
	"F":  "HOLDRS",
	"FI": "ETN-Fixed Income-Linked Securities",
	"FL": "ETN-Futures-Linked Securities",
	"G":  "Global Shares",
	"I":  "ETF-Index Fund Shares",
	"IR": "Interest Rate",
	"IW": "Index Warrant",
	"IX": "Index-Linked Exchangeable Notes",
	"J":  "Corporate Backed Trust Security",
	"L":  "Contingent Litigation Right",
	"LL": "Limited Liability Company",
	"M":  "Equity-Based Derivative",
	"MF": "Managed Fund Shares",
	"ML": "ETN-Multi-Factor Index-Linked Securities",
	"MT": "Managed Trust Securities",
	"N":  "NY Registry Shares",
	"O":  "Open Ended Mutual Fund",
	"P":  "Privately Held Security",
	"PP": "Poison Pill",
	"PU": "Partnership Units",
	"Q":  "Closed-End Funds",
	"R":  "Reg-S",
	"RC": "Commodity-Redeemable Commodity-Linked Securities",
	"RF": "ETN-Redeemable Futures-Linked Securities",
	"RT": "REIT",
	"RU": "Commodity-Redeemable Currency-Linked Securities",
	"S":  "SEED",
	"SC": "Spot Rate Closing",
	"SI": "Spot Rate Intraday",
	"T":  "Tracking Stock",
	"TC": "Trust Certificates",
	"TU": "Trust Units",
	"U":  "Portal",
	"V":  "Contingent Value Right",
	"W":  "Trust Issued Receipts",
	"WC": "World Currency Option",
	"X":  "Trust",
	"Y":  "Other",
	"Z":  "Not Applicable",
}

// IssueSubtypeName returns the description of a subtype code.
func IssueSubtypeName(s IssueSubtype) (string, bool) {
	name, ok := issueSubtypes[s.String()]
	return name, ok
}

// IssueSubtypeCodes lists every known subtype code in order.
func IssueSubtypeCodes() []string {
	codes := make([]string, 0, len(issueSubtypes))
	for c := range issueSubtypes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// DecodeIssueSubtype reads the 2-byte subtype and, when M validates,
// rejects codes missing from the subtype table.
func DecodeIssueSubtype[M wire.Mode](d *wire.Decoder[M], name string, offset int) IssueSubtype {
	s := DecodeShortString[W2](d, name, offset)
	if wire.Validates[M]() && d.Err() == nil {
		if _, ok := issueSubtypes[s.String()]; !ok {
			d.Fail(&ValidationError{Field: name, Value: append([]byte(nil), s.Bytes()...)})
			return IssueSubtype{}
		}
	}
	return s
}
