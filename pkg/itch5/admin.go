package itch5

import (
	"github.com/uhyunpark/mktfeed/pkg/field"
	"github.com/uhyunpark/mktfeed/pkg/wire"
)

// Message type tags and wire sizes for the administrative messages.
const (
	TagSystemEvent               = 'S'
	TagStockDirectory            = 'R'
	TagStockTradingAction        = 'H'
	TagRegSHORestriction         = 'Y'
	TagMarketParticipantPosition = 'L'
	TagMWCBDeclineLevel          = 'V'
	TagMWCBBreach                = 'W'
	TagIPOQuotingPeriodUpdate    = 'K'
	TagNOII                      = 'I'
	TagRetailPriceImprovement    = 'N'

	SizeSystemEvent               = 12
	SizeStockDirectory            = 39
	SizeStockTradingAction        = 25
	SizeRegSHORestriction         = 20
	SizeMarketParticipantPosition = 26
	SizeMWCBDeclineLevel          = 35
	SizeMWCBBreach                = 12
	SizeIPOQuotingPeriodUpdate    = 28
	SizeNOII                      = 50
	SizeRetailPriceImprovement    = 20
)

type SystemEvent struct {
	Header
	EventCode EventCode
}

func DecodeSystemEvent[M wire.Mode](buf []byte) (SystemEvent, error) {
	d := wire.NewDecoder[M](buf)
	m := SystemEvent{
		Header:    decodeHeader(d),
		EventCode: field.DecodeChar[EventCodes](d, "event_code", 11),
	}
	return m, d.Err()
}

func (m SystemEvent) MarshalBinary() ([]byte, error) {
	return marshal(SizeSystemEvent, func(e *wire.Encoder) {
		m.Header.encode(e, TagSystemEvent)
		m.EventCode.Encode(e, "event_code", 11)
	})
}

type StockDirectory struct {
	Header
	Stock               field.Stock
	MarketCategory      MarketCategory
	FinancialStatus     FinancialStatus
	RoundLotSize        uint32
	RoundLotsOnly       YesNo
	IssueClassification IssueClassification
	IssueSubtype        field.IssueSubtype
	Authenticity        Authenticity
	ShortSaleThreshold  YesNoBlank
	IPOFlag             YesNoBlank
	LULDTier            LULDTier
	ETPFlag             YesNoBlank
	ETPLeverageFactor   uint32
	InverseIndicator    YesNo
}

func DecodeStockDirectory[M wire.Mode](buf []byte) (StockDirectory, error) {
	d := wire.NewDecoder[M](buf)
	m := StockDirectory{
		Header:              decodeHeader(d),
		Stock:               field.DecodeStock(d, "stock", 11),
		MarketCategory:      field.DecodeChar[MarketCategories](d, "market_category", 19),
		FinancialStatus:     field.DecodeChar[FinancialStatuses](d, "financial_status_indicator", 20),
		RoundLotSize:        d.U32("round_lot_size", 21),
		RoundLotsOnly:       field.DecodeChar[YesNoCodes](d, "round_lots_only", 25),
		IssueClassification: field.DecodeChar[IssueClasses](d, "issue_classification", 26),
		IssueSubtype:        field.DecodeIssueSubtype(d, "issue_subtype", 27),
		Authenticity:        field.DecodeChar[Authenticities](d, "authenticity", 29),
		ShortSaleThreshold:  field.DecodeChar[YesNoBlankCodes](d, "short_sale_threshold_indicator", 30),
		IPOFlag:             field.DecodeChar[YesNoBlankCodes](d, "ipo_flag", 31),
		LULDTier:            field.DecodeChar[LULDTiers](d, "luld_reference_price_tier", 32),
		ETPFlag:             field.DecodeChar[YesNoBlankCodes](d, "etp_flag", 33),
		ETPLeverageFactor:   d.U32("etp_leverage_factor", 34),
		InverseIndicator:    field.DecodeChar[YesNoCodes](d, "inverse_indicator", 38),
	}
	return m, d.Err()
}

func (m StockDirectory) MarshalBinary() ([]byte, error) {
	return marshal(SizeStockDirectory, func(e *wire.Encoder) {
		m.Header.encode(e, TagStockDirectory)
		m.Stock.Encode(e, "stock", 11)
		m.MarketCategory.Encode(e, "market_category", 19)
		m.FinancialStatus.Encode(e, "financial_status_indicator", 20)
		e.U32("round_lot_size", 21, m.RoundLotSize)
		m.RoundLotsOnly.Encode(e, "round_lots_only", 25)
		m.IssueClassification.Encode(e, "issue_classification", 26)
		m.IssueSubtype.Encode(e, "issue_subtype", 27)
		m.Authenticity.Encode(e, "authenticity", 29)
		m.ShortSaleThreshold.Encode(e, "short_sale_threshold_indicator", 30)
		m.IPOFlag.Encode(e, "ipo_flag", 31)
		m.LULDTier.Encode(e, "luld_reference_price_tier", 32)
		m.ETPFlag.Encode(e, "etp_flag", 33)
		e.U32("etp_leverage_factor", 34, m.ETPLeverageFactor)
		m.InverseIndicator.Encode(e, "inverse_indicator", 38)
	})
}

type StockTradingAction struct {
	Header
	Stock        field.Stock
	TradingState TradingState
	Reserved     uint8
	Reason       field.Reason
}

func DecodeStockTradingAction[M wire.Mode](buf []byte) (StockTradingAction, error) {
	d := wire.NewDecoder[M](buf)
	m := StockTradingAction{
		Header:       decodeHeader(d),
		Stock:        field.DecodeStock(d, "stock", 11),
		TradingState: field.DecodeChar[TradingStates](d, "trading_state", 19),
		Reserved:     d.U8("reserved", 20),
		Reason:       field.DecodeShortString[field.W4](d, "reason", 21),
	}
	return m, d.Err()
}

func (m StockTradingAction) MarshalBinary() ([]byte, error) {
	return marshal(SizeStockTradingAction, func(e *wire.Encoder) {
		m.Header.encode(e, TagStockTradingAction)
		m.Stock.Encode(e, "stock", 11)
		m.TradingState.Encode(e, "trading_state", 19)
		e.U8("reserved", 20, m.Reserved)
		m.Reason.Encode(e, "reason", 21)
	})
}

type RegSHORestriction struct {
	Header
	Stock  field.Stock
	Action RegSHOAction
}

func DecodeRegSHORestriction[M wire.Mode](buf []byte) (RegSHORestriction, error) {
	d := wire.NewDecoder[M](buf)
	m := RegSHORestriction{
		Header: decodeHeader(d),
		Stock:  field.DecodeStock(d, "stock", 11),
		Action: field.DecodeChar[RegSHOActions](d, "reg_sho_action", 19),
	}
	return m, d.Err()
}

func (m RegSHORestriction) MarshalBinary() ([]byte, error) {
	return marshal(SizeRegSHORestriction, func(e *wire.Encoder) {
		m.Header.encode(e, TagRegSHORestriction)
		m.Stock.Encode(e, "stock", 11)
		m.Action.Encode(e, "reg_sho_action", 19)
	})
}

type MarketParticipantPosition struct {
	Header
	MPID               field.MPID
	Stock              field.Stock
	PrimaryMarketMaker YesNo
	MarketMakerMode    MarketMakerMode
	ParticipantState   ParticipantState
}

func DecodeMarketParticipantPosition[M wire.Mode](buf []byte) (MarketParticipantPosition, error) {
	d := wire.NewDecoder[M](buf)
	m := MarketParticipantPosition{
		Header:             decodeHeader(d),
		MPID:               field.DecodeShortString[field.W4](d, "mpid", 11),
		Stock:              field.DecodeStock(d, "stock", 15),
		PrimaryMarketMaker: field.DecodeChar[YesNoCodes](d, "primary_market_maker", 23),
		MarketMakerMode:    field.DecodeChar[MarketMakerModes](d, "market_maker_mode", 24),
		ParticipantState:   field.DecodeChar[ParticipantStates](d, "market_participant_state", 25),
	}
	return m, d.Err()
}

func (m MarketParticipantPosition) MarshalBinary() ([]byte, error) {
	return marshal(SizeMarketParticipantPosition, func(e *wire.Encoder) {
		m.Header.encode(e, TagMarketParticipantPosition)
		m.MPID.Encode(e, "mpid", 11)
		m.Stock.Encode(e, "stock", 15)
		m.PrimaryMarketMaker.Encode(e, "primary_market_maker", 23)
		m.MarketMakerMode.Encode(e, "market_maker_mode", 24)
		m.ParticipantState.Encode(e, "market_participant_state", 25)
	})
}

type MWCBDeclineLevel struct {
	Header
	Level1 field.Price8
	Level2 field.Price8
	Level3 field.Price8
}

func DecodeMWCBDeclineLevel[M wire.Mode](buf []byte) (MWCBDeclineLevel, error) {
	d := wire.NewDecoder[M](buf)
	m := MWCBDeclineLevel{
		Header: decodeHeader(d),
		Level1: field.DecodePrice8(d, "level_1", 11),
		Level2: field.DecodePrice8(d, "level_2", 19),
		Level3: field.DecodePrice8(d, "level_3", 27),
	}
	return m, d.Err()
}

func (m MWCBDeclineLevel) MarshalBinary() ([]byte, error) {
	return marshal(SizeMWCBDeclineLevel, func(e *wire.Encoder) {
		m.Header.encode(e, TagMWCBDeclineLevel)
		m.Level1.Encode(e, "level_1", 11)
		m.Level2.Encode(e, "level_2", 19)
		m.Level3.Encode(e, "level_3", 27)
	})
}

type MWCBBreach struct {
	Header
	BreachedLevel BreachedLevel
}

func DecodeMWCBBreach[M wire.Mode](buf []byte) (MWCBBreach, error) {
	d := wire.NewDecoder[M](buf)
	m := MWCBBreach{
		Header:        decodeHeader(d),
		BreachedLevel: field.DecodeChar[BreachedLevels](d, "breached_level", 11),
	}
	return m, d.Err()
}

func (m MWCBBreach) MarshalBinary() ([]byte, error) {
	return marshal(SizeMWCBBreach, func(e *wire.Encoder) {
		m.Header.encode(e, TagMWCBBreach)
		m.BreachedLevel.Encode(e, "breached_level", 11)
	})
}

type IPOQuotingPeriodUpdate struct {
	Header
	Stock            field.Stock
	ReleaseTime      uint32 // seconds since midnight
	ReleaseQualifier IPOReleaseQualifier
	IPOPrice         field.Price4
}

func DecodeIPOQuotingPeriodUpdate[M wire.Mode](buf []byte) (IPOQuotingPeriodUpdate, error) {
	d := wire.NewDecoder[M](buf)
	m := IPOQuotingPeriodUpdate{
		Header:           decodeHeader(d),
		Stock:            field.DecodeStock(d, "stock", 11),
		ReleaseTime:      d.U32("ipo_quotation_release_time", 19),
		ReleaseQualifier: field.DecodeChar[IPOReleaseQualifiers](d, "ipo_quotation_release_qualifier", 23),
		IPOPrice:         field.DecodePrice4(d, "ipo_price", 24),
	}
	if wire.Validates[M]() && d.Err() == nil && m.ReleaseTime >= 24*3600 {
		d.Fail(&field.ValidationError{Field: "ipo_quotation_release_time", Value: buf[19:23]})
	}
	return m, d.Err()
}

func (m IPOQuotingPeriodUpdate) MarshalBinary() ([]byte, error) {
	return marshal(SizeIPOQuotingPeriodUpdate, func(e *wire.Encoder) {
		m.Header.encode(e, TagIPOQuotingPeriodUpdate)
		m.Stock.Encode(e, "stock", 11)
		e.U32("ipo_quotation_release_time", 19, m.ReleaseTime)
		m.ReleaseQualifier.Encode(e, "ipo_quotation_release_qualifier", 23)
		m.IPOPrice.Encode(e, "ipo_price", 24)
	})
}

// NOII is the Net Order Imbalance Indicator message.
type NOII struct {
	Header
	PairedShares          uint64
	ImbalanceShares       uint64
	ImbalanceDirection    ImbalanceDirection
	Stock                 field.Stock
	FarPrice              field.Price4
	NearPrice             field.Price4
	CurrentReferencePrice field.Price4
	CrossType             CrossType
	PriceVariation        PriceVariation
}

func DecodeNOII[M wire.Mode](buf []byte) (NOII, error) {
	d := wire.NewDecoder[M](buf)
	m := NOII{
		Header:                decodeHeader(d),
		PairedShares:          d.U64("paired_shares", 11),
		ImbalanceShares:       d.U64("imbalance_shares", 19),
		ImbalanceDirection:    field.DecodeChar[ImbalanceDirections](d, "imbalance_direction", 27),
		Stock:                 field.DecodeStock(d, "stock", 28),
		FarPrice:              field.DecodePrice4(d, "far_price", 36),
		NearPrice:             field.DecodePrice4(d, "near_price", 40),
		CurrentReferencePrice: field.DecodePrice4(d, "current_reference_price", 44),
		CrossType:             field.DecodeChar[CrossTypes](d, "cross_type", 48),
		PriceVariation:        field.DecodeChar[PriceVariations](d, "price_variation_indicator", 49),
	}
	return m, d.Err()
}

func (m NOII) MarshalBinary() ([]byte, error) {
	return marshal(SizeNOII, func(e *wire.Encoder) {
		m.Header.encode(e, TagNOII)
		e.U64("paired_shares", 11, m.PairedShares)
		e.U64("imbalance_shares", 19, m.ImbalanceShares)
		m.ImbalanceDirection.Encode(e, "imbalance_direction", 27)
		m.Stock.Encode(e, "stock", 28)
		m.FarPrice.Encode(e, "far_price", 36)
		m.NearPrice.Encode(e, "near_price", 40)
		m.CurrentReferencePrice.Encode(e, "current_reference_price", 44)
		m.CrossType.Encode(e, "cross_type", 48)
		m.PriceVariation.Encode(e, "price_variation_indicator", 49)
	})
}

// RetailPriceImprovement is the Retail Price Improvement Indicator (RPII).
type RetailPriceImprovement struct {
	Header
	Stock        field.Stock
	InterestFlag InterestFlag
}

func DecodeRetailPriceImprovement[M wire.Mode](buf []byte) (RetailPriceImprovement, error) {
	d := wire.NewDecoder[M](buf)
	m := RetailPriceImprovement{
		Header:       decodeHeader(d),
		Stock:        field.DecodeStock(d, "stock", 11),
		InterestFlag: field.DecodeChar[InterestFlags](d, "interest_flag", 19),
	}
	return m, d.Err()
}

func (m RetailPriceImprovement) MarshalBinary() ([]byte, error) {
	return marshal(SizeRetailPriceImprovement, func(e *wire.Encoder) {
		m.Header.encode(e, TagRetailPriceImprovement)
		m.Stock.Encode(e, "stock", 11)
		m.InterestFlag.Encode(e, "interest_flag", 19)
	})
}
