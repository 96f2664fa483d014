package itch5

import "github.com/uhyunpark/mktfeed/pkg/field"

// Enumerated field domains of ITCH 5.0. Each type
// lists its legal values and is used as the CharSet of a field.Char.
type (
	EventCodes           struct{}
	MarketCategories     struct{}
	FinancialStatuses    struct{}
	YesNoCodes           struct{}
	YesNoBlankCodes      struct{}
	IssueClasses         struct{}
	Authenticities       struct{}
	LULDTiers            struct{}
	TradingStates        struct{}
	RegSHOActions        struct{}
	MarketMakerModes     struct{}
	ParticipantStates    struct{}
	BreachedLevels       struct{}
	IPOReleaseQualifiers struct{}
	Sides                struct{}
	CrossTypes           struct{}
	ImbalanceDirections  struct{}
	PriceVariations      struct{}
	InterestFlags        struct{}
)

func (EventCodes) Values() string           { return "OSQMEC" }
func (MarketCategories) Values() string     { return "QGSNAPZ " }
func (FinancialStatuses) Values() string    { return "DEQSGHJKCN " }
func (YesNoCodes) Values() string           { return "YN" }
func (YesNoBlankCodes) Values() string      { return "YN " }
func (IssueClasses) Values() string         { return "ABCFILNOPQRSTUVW" }
func (Authenticities) Values() string       { return "PT" }
func (LULDTiers) Values() string            { return "12 " }
func (TradingStates) Values() string        { return "HPQT" }
func (RegSHOActions) Values() string        { return "012" }
func (MarketMakerModes) Values() string     { return "NPSRL" }
func (ParticipantStates) Values() string    { return "AEWSD" }
func (BreachedLevels) Values() string       { return "123" }
func (IPOReleaseQualifiers) Values() string { return "AC" }
func (Sides) Values() string                { return "BS" }
func (CrossTypes) Values() string           { return "OCHI" }
func (ImbalanceDirections) Values() string  { return "BSNO" }
func (PriceVariations) Values() string      { return "L123456789ABC " }
func (InterestFlags) Values() string        { return "BSAN" }

type (
	EventCode           = field.Char[EventCodes]
	MarketCategory      = field.Char[MarketCategories]
	FinancialStatus     = field.Char[FinancialStatuses]
	YesNo               = field.Char[YesNoCodes]
	YesNoBlank          = field.Char[YesNoBlankCodes]
	IssueClassification = field.Char[IssueClasses]
	Authenticity        = field.Char[Authenticities]
	LULDTier            = field.Char[LULDTiers]
	TradingState        = field.Char[TradingStates]
	RegSHOAction        = field.Char[RegSHOActions]
	MarketMakerMode     = field.Char[MarketMakerModes]
	ParticipantState    = field.Char[ParticipantStates]
	BreachedLevel       = field.Char[BreachedLevels]
	IPOReleaseQualifier = field.Char[IPOReleaseQualifiers]
	BuySell             = field.Char[Sides]
	CrossType           = field.Char[CrossTypes]
	ImbalanceDirection  = field.Char[ImbalanceDirections]
	PriceVariation      = field.Char[PriceVariations]
	InterestFlag        = field.Char[InterestFlags]
)

// System event codes.
const (
	StartOfMessages    = 'O'
	StartOfSystemHours = 'S'
	StartOfMarketHours = 'Q'
	EndOfMarketHours   = 'M'
	EndOfSystemHours   = 'E'
	EndOfMessages      = 'C'
)

// Side builds a BuySell from 'B' or 'S'.
func Side(b byte) (BuySell, error) { return field.NewChar[Sides](b) }

// Buy and Sell are the two valid side indicators.
var (
	Buy  = field.MustChar[Sides]('B')
	Sell = field.MustChar[Sides]('S')
)

