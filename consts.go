// Copyright (c) 2024 Akxen Labs

package nemde

// Length of a dispatch interval in minutes.
const DispatchIntervalMinutes float64 = 5.0

// Divisor converting a per-hour ramp rate (MW/h) to a per-interval
// capability (MW per 5 minutes).
const RampRatePerInterval float64 = 12.0

// Big-M bound (MW) used by the MNSP flow-direction disjunctions.
const MNSPBigM float64 = 1000.0

// Price threshold under which two offer bands are considered price-tied.
const PriceTieThreshold float64 = 1e-6

// Objective coefficient on tie-break slack variables: large enough to break
// degeneracy among price-tied bands, small against any real bid spread.
const TieBreakObjectiveCoefficient float64 = 1e-2

// NumBands is the number of price/quantity bands per offer.
const NumBands = 10

// TraderType classifies a market participant.
type TraderType uint8

const (
	// A scheduled or semi-scheduled generating unit.
	TraderType_Generator TraderType = 'G'
	// A scheduled load.
	TraderType_Load TraderType = 'L'
	// A load that is normally on (e.g. pumps) and bids to switch off.
	TraderType_NormallyOnLoad TraderType = 'N'
)

// ParseTraderType converts a casefile @TraderType attribute.
func ParseTraderType(s string) (TraderType, error) {
	switch s {
	case "GENERATOR":
		return TraderType_Generator, nil
	case "LOAD":
		return TraderType_Load, nil
	case "NORMALLY_ON_LOAD":
		return TraderType_NormallyOnLoad, nil
	default:
		return 0, unexpectedTraderTypeError(s)
	}
}

// IsLoad reports whether the trader consumes energy (LDOF energy offers).
func (t TraderType) IsLoad() bool {
	return t == TraderType_Load || t == TraderType_NormallyOnLoad
}

func (t TraderType) String() string {
	switch t {
	case TraderType_Generator:
		return "GENERATOR"
	case TraderType_Load:
		return "LOAD"
	case TraderType_NormallyOnLoad:
		return "NORMALLY_ON_LOAD"
	default:
		return "UNKNOWN"
	}
}

// TradeType identifies an offer service.
type TradeType string

const (
	// Generator energy offer.
	TradeType_ENOF TradeType = "ENOF"
	// Load energy offer.
	TradeType_LDOF TradeType = "LDOF"
	// Raise contingency FCAS at 6-second, 60-second and 5-minute timescales.
	TradeType_R6SE TradeType = "R6SE"
	TradeType_R60S TradeType = "R60S"
	TradeType_R5MI TradeType = "R5MI"
	// Raise regulation FCAS.
	TradeType_R5RE TradeType = "R5RE"
	// Lower contingency FCAS at 6-second, 60-second and 5-minute timescales.
	TradeType_L6SE TradeType = "L6SE"
	TradeType_L60S TradeType = "L60S"
	TradeType_L5MI TradeType = "L5MI"
	// Lower regulation FCAS.
	TradeType_L5RE TradeType = "L5RE"
)

// FCASTradeTypes lists the eight FCAS services in serialization order.
var FCASTradeTypes = []TradeType{
	TradeType_R6SE, TradeType_R60S, TradeType_R5MI, TradeType_R5RE,
	TradeType_L6SE, TradeType_L60S, TradeType_L5MI, TradeType_L5RE,
}

// ContingencyTradeTypes lists the six contingency FCAS services.
var ContingencyTradeTypes = []TradeType{
	TradeType_R6SE, TradeType_R60S, TradeType_R5MI,
	TradeType_L6SE, TradeType_L60S, TradeType_L5MI,
}

// IsEnergy reports whether the trade type is an energy offer.
func (t TradeType) IsEnergy() bool {
	return t == TradeType_ENOF || t == TradeType_LDOF
}

// IsFCAS reports whether the trade type is an FCAS offer.
func (t TradeType) IsFCAS() bool {
	return t != "" && !t.IsEnergy()
}

// IsRegulation reports whether the trade type is a regulation FCAS offer.
func (t TradeType) IsRegulation() bool {
	return t == TradeType_R5RE || t == TradeType_L5RE
}

// IsContingency reports whether the trade type is a contingency FCAS offer.
func (t TradeType) IsContingency() bool {
	return t.IsFCAS() && !t.IsRegulation()
}

// GenericConstraintType is the sense of a generic constraint.
type GenericConstraintType string

const (
	ConstraintType_LE GenericConstraintType = "LE"
	ConstraintType_GE GenericConstraintType = "GE"
	ConstraintType_EQ GenericConstraintType = "EQ"
)

// RunMode selects which reference run the model reproduces when an
// intervention pricing run occurred.
type RunMode string

const (
	RunMode_Physical RunMode = "physical"
	RunMode_Pricing  RunMode = "pricing"
)

// SolutionFormat selects the output document shape.
type SolutionFormat string

const (
	// Plain model solution.
	SolutionFormat_Standard SolutionFormat = "standard"
	// Model vs reference comparison for every scalar.
	SolutionFormat_Validation SolutionFormat = "validation"
)

// LoadAvailabilityConvention selects how load FCAS availability resolves the
// reference engine's ramp-direction convention for loads. See DESIGN.md.
type LoadAvailabilityConvention uint8

const (
	// Follow the reference engine's numbers (default).
	LoadAvailability_Reference LoadAvailabilityConvention = iota
	// Follow the documented scaling directions for loads.
	LoadAvailability_Strict
)
