// Copyright (c) 2024 Akxen Labs

// Package casetest builds synthetic casefile documents for tests.
package casetest

import (
	"fmt"
	"strconv"

	"github.com/segmentio/encoding/json"
)

///////////////////////////////////////////////////////////////////////////////

// Offer is one trade of a test trader.
type Offer struct {
	TradeType     string
	PriceBands    [10]float64
	QuantityBands [10]float64
	MaxAvail      float64
	RampUp        *float64
	RampDn        *float64

	// FCAS trapezium, set for FCAS trade types.
	EnablementMin  *float64
	LowBreakpoint  *float64
	HighBreakpoint *float64
	EnablementMax  *float64
}

// FastStart carries a test trader's inflexibility profile.
type FastStart struct {
	MinLoadingMW    float64
	CurrentMode     *int
	CurrentModeTime *float64
	T1, T2, T3, T4  float64
}

// Trader is a test market participant.
type Trader struct {
	ID           string
	Region       string
	Type         string // GENERATOR, LOAD, NORMALLY_ON_LOAD
	SemiDispatch bool
	FastStart    *FastStart

	InitialMW     float64
	HMW           *float64
	LMW           *float64
	AGCStatus     string
	SCADARampUp   *float64
	SCADARampDown *float64
	UIGF          *float64

	Offers []Offer

	// Reference solution row values, used by validation-format tests.
	RefEnergyTarget *float64
}

// Segment is one loss model segment.
type Segment struct {
	Limit  float64
	Factor float64
}

// MNSPOffer is one MNSP endpoint offer.
type MNSPOffer struct {
	RegionID      string
	PriceBands    [10]float64
	QuantityBands [10]float64
	MaxAvail      float64
	RampUp        float64
	RampDn        float64
}

// Interconnector is a test interconnector.
type Interconnector struct {
	ID             string
	From, To       string
	InitialMW      float64
	LowerLimit     float64
	UpperLimit     float64
	LossShare      float64
	LossLowerLimit float64
	Segments       []Segment

	MNSP            bool
	FromRegionLFExp float64
	FromRegionLFImp float64
	ToRegionLFExp   float64
	ToRegionLFImp   float64
	Offers          []MNSPOffer

	RefFlow   *float64
	RefLosses *float64
}

// Region is a test region.
type Region struct {
	ID            string
	InitialDemand float64
	ADE           float64
	DF            float64
}

// TraderFactor is a generic constraint trader LHS term.
type TraderFactor struct {
	TraderID  string
	TradeType string
	Factor    float64
}

// Constraint is a test generic constraint.
type Constraint struct {
	ID                    string
	Type                  string
	ViolationPrice        float64
	RHS                   float64
	TraderFactors         []TraderFactor
	InterconnectorFactors map[string]float64
}

///////////////////////////////////////////////////////////////////////////////

// Builder assembles a casefile document.
type Builder struct {
	CaseID       string
	Intervention bool

	Regions         []Region
	Traders         []Trader
	Interconnectors []Interconnector
	Constraints     []Constraint
}

// New returns a Builder with a default case id.
func New() *Builder {
	return &Builder{CaseID: "20201101001"}
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func bands(prefix string, values [10]float64, dst map[string]interface{}) {
	for i, v := range values {
		dst[fmt.Sprintf("@%s%d", prefix, i+1)] = f(v)
	}
}

// collection renders single-element collections as a bare object, the way
// the source XML-to-JSON conversion does.
func collection(nodes []map[string]interface{}) interface{} {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return nodes
}

///////////////////////////////////////////////////////////////////////////////

// Build renders the casefile JSON document.
func (b *Builder) Build() []byte {
	intervention := "False"
	if b.Intervention {
		intervention = "True"
	}
	caseAttrs := map[string]interface{}{
		"@CaseID":                     b.CaseID,
		"@Intervention":               intervention,
		"@VoLL":                       "14500",
		"@EnergyDeficitPrice":         "2177500",
		"@EnergySurplusPrice":         "2177500",
		"@UIGFSurplusPrice":           "1015000",
		"@RampRatePrice":              "1885000",
		"@CapacityPrice":              "5110000",
		"@OfferPrice":                 "1015000",
		"@MNSPOfferPrice":             "1015000",
		"@MNSPRampRatePrice":          "1885000",
		"@MNSPCapacityPrice":          "5110000",
		"@MNSPLossesPrice":            "435000",
		"@ASProfilePrice":             "841000",
		"@ASMaxAvailPrice":            "841000",
		"@ASEnablementMinPrice":       "841000",
		"@ASEnablementMaxPrice":       "841000",
		"@InterconnectorPrice":        "2392500",
		"@FastStartPrice":             "1160000",
		"@GenericConstraintPrice":     "435000",
		"@Satisfactory_Network_Price": "1450000",
		"@TieBreakPrice":              "1e-6",
	}

	var regionNodes, regionPeriodNodes []map[string]interface{}
	for _, r := range b.Regions {
		regionNodes = append(regionNodes, map[string]interface{}{
			"@RegionID": r.ID,
			"RegionInitialConditionCollection": map[string]interface{}{
				"RegionInitialCondition": []map[string]interface{}{
					{"@InitialConditionID": "InitialDemand", "@Value": f(r.InitialDemand)},
					{"@InitialConditionID": "ADE", "@Value": f(r.ADE)},
				},
			},
		})
		regionPeriodNodes = append(regionPeriodNodes, map[string]interface{}{
			"@RegionID": r.ID,
			"@DF":       f(r.DF),
		})
	}

	var traderNodes, traderPeriodNodes []map[string]interface{}
	for _, t := range b.Traders {
		traderNodes = append(traderNodes, b.traderCollectionNode(t))
		traderPeriodNodes = append(traderPeriodNodes, b.traderPeriodNode(t))
	}

	var icNodes, icPeriodNodes []map[string]interface{}
	for _, ic := range b.Interconnectors {
		icNodes = append(icNodes, b.interconnectorCollectionNode(ic))
		icPeriodNodes = append(icPeriodNodes, b.interconnectorPeriodNode(ic))
	}

	var constraintNodes, constraintPeriodNodes, constraintSolutionNodes []map[string]interface{}
	for _, c := range b.Constraints {
		lhs := map[string]interface{}{}
		if len(c.TraderFactors) > 0 {
			var factors []map[string]interface{}
			for _, tf := range c.TraderFactors {
				factors = append(factors, map[string]interface{}{
					"@TraderID":  tf.TraderID,
					"@TradeType": tf.TradeType,
					"@Factor":    f(tf.Factor),
				})
			}
			lhs["TraderFactor"] = factors
		}
		if len(c.InterconnectorFactors) > 0 {
			var factors []map[string]interface{}
			for id, factor := range c.InterconnectorFactors {
				factors = append(factors, map[string]interface{}{
					"@InterconnectorID": id,
					"@Factor":           f(factor),
				})
			}
			lhs["InterconnectorFactor"] = factors
		}
		constraintNodes = append(constraintNodes, map[string]interface{}{
			"@ConstraintID":       c.ID,
			"@Type":               c.Type,
			"@ViolationPrice":     f(c.ViolationPrice),
			"LHSFactorCollection": lhs,
		})
		constraintPeriodNodes = append(constraintPeriodNodes, map[string]interface{}{
			"@ConstraintID": c.ID,
		})
		constraintSolutionNodes = append(constraintSolutionNodes, map[string]interface{}{
			"@ConstraintID": c.ID,
			"@Intervention": "0",
			"@RHS":          f(c.RHS),
			"@Deficit":      "0",
		})
	}

	doc := map[string]interface{}{
		"NEMSPDCaseFile": map[string]interface{}{
			"NemSpdInputs": map[string]interface{}{
				"Case":             caseAttrs,
				"RegionCollection": map[string]interface{}{"Region": collection(regionNodes)},
				"TraderCollection": map[string]interface{}{"Trader": collection(traderNodes)},
				"InterconnectorCollection": map[string]interface{}{
					"Interconnector": collection(icNodes),
				},
				"GenericConstraintCollection": map[string]interface{}{
					"GenericConstraint": collection(constraintNodes),
				},
				"PeriodCollection": map[string]interface{}{
					"Period": map[string]interface{}{
						"TraderPeriodCollection":         map[string]interface{}{"TraderPeriod": collection(traderPeriodNodes)},
						"InterconnectorPeriodCollection": map[string]interface{}{"InterconnectorPeriod": collection(icPeriodNodes)},
						"RegionPeriodCollection":         map[string]interface{}{"RegionPeriod": collection(regionPeriodNodes)},
						"GenericConstraintPeriodCollection": map[string]interface{}{
							"GenericConstraintPeriod": collection(constraintPeriodNodes),
						},
					},
				},
			},
			"NemSpdOutputs": b.outputsNode(constraintSolutionNodes),
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func (b *Builder) traderCollectionNode(t Trader) map[string]interface{} {
	traderType := t.Type
	if traderType == "" {
		traderType = "GENERATOR"
	}
	semiDispatch := "0"
	if t.SemiDispatch {
		semiDispatch = "1"
	}

	initialConditions := []map[string]interface{}{
		{"@InitialConditionID": "InitialMW", "@Value": f(t.InitialMW)},
	}
	if t.AGCStatus != "" {
		initialConditions = append(initialConditions, map[string]interface{}{
			"@InitialConditionID": "AGCStatus", "@Value": t.AGCStatus,
		})
	}
	if t.HMW != nil {
		initialConditions = append(initialConditions, map[string]interface{}{
			"@InitialConditionID": "HMW", "@Value": f(*t.HMW),
		})
	}
	if t.LMW != nil {
		initialConditions = append(initialConditions, map[string]interface{}{
			"@InitialConditionID": "LMW", "@Value": f(*t.LMW),
		})
	}
	if t.SCADARampUp != nil {
		initialConditions = append(initialConditions, map[string]interface{}{
			"@InitialConditionID": "SCADARampUpRate", "@Value": f(*t.SCADARampUp),
		})
	}
	if t.SCADARampDown != nil {
		initialConditions = append(initialConditions, map[string]interface{}{
			"@InitialConditionID": "SCADARampDnRate", "@Value": f(*t.SCADARampDown),
		})
	}

	var priceStructures []map[string]interface{}
	for _, o := range t.Offers {
		ps := map[string]interface{}{"@TradeType": o.TradeType}
		bands("PriceBand", o.PriceBands, ps)
		priceStructures = append(priceStructures, ps)
	}

	node := map[string]interface{}{
		"@TraderID":     t.ID,
		"@TraderType":   traderType,
		"@SemiDispatch": semiDispatch,
		"TraderInitialConditionCollection": map[string]interface{}{
			"TraderInitialCondition": initialConditions,
		},
		"TradePriceStructureCollection": map[string]interface{}{
			"TradePriceStructure": map[string]interface{}{
				"TradeTypePriceStructureCollection": map[string]interface{}{
					"TradeTypePriceStructure": collection(priceStructures),
				},
			},
		},
	}
	if t.FastStart != nil {
		node["@FastStart"] = "1"
		node["@MinLoadingMW"] = f(t.FastStart.MinLoadingMW)
		if t.FastStart.CurrentMode != nil {
			node["@CurrentMode"] = strconv.Itoa(*t.FastStart.CurrentMode)
		}
		if t.FastStart.CurrentModeTime != nil {
			node["@CurrentModeTime"] = f(*t.FastStart.CurrentModeTime)
		}
		node["@T1"] = f(t.FastStart.T1)
		node["@T2"] = f(t.FastStart.T2)
		node["@T3"] = f(t.FastStart.T3)
		node["@T4"] = f(t.FastStart.T4)
	}
	return node
}

func (b *Builder) traderPeriodNode(t Trader) map[string]interface{} {
	var trades []map[string]interface{}
	for _, o := range t.Offers {
		trade := map[string]interface{}{
			"@TradeType": o.TradeType,
			"@MaxAvail":  f(o.MaxAvail),
		}
		bands("BandAvail", o.QuantityBands, trade)
		if o.RampUp != nil {
			trade["@RampUpRate"] = f(*o.RampUp)
		}
		if o.RampDn != nil {
			trade["@RampDnRate"] = f(*o.RampDn)
		}
		if o.EnablementMin != nil {
			trade["@EnablementMin"] = f(*o.EnablementMin)
		}
		if o.LowBreakpoint != nil {
			trade["@LowBreakpoint"] = f(*o.LowBreakpoint)
		}
		if o.HighBreakpoint != nil {
			trade["@HighBreakpoint"] = f(*o.HighBreakpoint)
		}
		if o.EnablementMax != nil {
			trade["@EnablementMax"] = f(*o.EnablementMax)
		}
		trades = append(trades, trade)
	}
	node := map[string]interface{}{
		"@TraderID": t.ID,
		"@RegionID": t.Region,
		"TradeCollection": map[string]interface{}{
			"Trade": collection(trades),
		},
	}
	if t.UIGF != nil {
		node["@UIGF"] = f(*t.UIGF)
	}
	return node
}

func (b *Builder) interconnectorCollectionNode(ic Interconnector) map[string]interface{} {
	var segments []map[string]interface{}
	for _, s := range ic.Segments {
		segments = append(segments, map[string]interface{}{
			"@Limit":  f(s.Limit),
			"@Factor": f(s.Factor),
		})
	}
	node := map[string]interface{}{
		"@InterconnectorID": ic.ID,
		"InterconnectorInitialConditionCollection": map[string]interface{}{
			"InterconnectorInitialCondition": []map[string]interface{}{
				{"@InitialConditionID": "InitialMW", "@Value": f(ic.InitialMW)},
			},
		},
		"LossModelCollection": map[string]interface{}{
			"LossModel": map[string]interface{}{
				"@LossShare":      f(ic.LossShare),
				"@LossLowerLimit": f(ic.LossLowerLimit),
				"SegmentCollection": map[string]interface{}{
					"Segment": collection(segments),
				},
			},
		},
	}
	if ic.MNSP && len(ic.Offers) > 0 {
		var priceStructures []map[string]interface{}
		for _, o := range ic.Offers {
			ps := map[string]interface{}{"@RegionID": o.RegionID}
			bands("PriceBand", o.PriceBands, ps)
			priceStructures = append(priceStructures, ps)
		}
		node["MNSPPriceStructureCollection"] = map[string]interface{}{
			"MNSPPriceStructure": map[string]interface{}{
				"MNSPRegionPriceStructureCollection": map[string]interface{}{
					"MNSPRegionPriceStructure": collection(priceStructures),
				},
			},
		}
	}
	return node
}

func (b *Builder) interconnectorPeriodNode(ic Interconnector) map[string]interface{} {
	mnsp := "0"
	if ic.MNSP {
		mnsp = "1"
	}
	node := map[string]interface{}{
		"@InterconnectorID": ic.ID,
		"@FromRegion":       ic.From,
		"@ToRegion":         ic.To,
		"@MNSP":             mnsp,
		"@LowerLimit":       f(ic.LowerLimit),
		"@UpperLimit":       f(ic.UpperLimit),
	}
	if ic.MNSP {
		node["@FromRegionLFExport"] = f(ic.FromRegionLFExp)
		node["@FromRegionLFImport"] = f(ic.FromRegionLFImp)
		node["@ToRegionLFExport"] = f(ic.ToRegionLFExp)
		node["@ToRegionLFImport"] = f(ic.ToRegionLFImp)
		var offers []map[string]interface{}
		for _, o := range ic.Offers {
			offer := map[string]interface{}{
				"@RegionID":   o.RegionID,
				"@MaxAvail":   f(o.MaxAvail),
				"@RampUpRate": f(o.RampUp),
				"@RampDnRate": f(o.RampDn),
			}
			bands("BandAvail", o.QuantityBands, offer)
			offers = append(offers, offer)
		}
		node["MNSPOfferCollection"] = map[string]interface{}{
			"MNSPOffer": collection(offers),
		}
	}
	return node
}

// outputsNode renders the reference solution tree used by RHS lookups and
// validation tests.
func (b *Builder) outputsNode(constraintSolutions []map[string]interface{}) map[string]interface{} {
	var traderRows []map[string]interface{}
	for _, t := range b.Traders {
		row := map[string]interface{}{
			"@TraderID":     t.ID,
			"@Intervention": "0",
			"@EnergyTarget": "0",
			"@R6Target":     "0", "@R60Target": "0", "@R5Target": "0", "@R5RegTarget": "0",
			"@L6Target": "0", "@L60Target": "0", "@L5Target": "0", "@L5RegTarget": "0",
		}
		if t.RefEnergyTarget != nil {
			row["@EnergyTarget"] = f(*t.RefEnergyTarget)
		}
		traderRows = append(traderRows, row)
	}
	var icRows []map[string]interface{}
	for _, ic := range b.Interconnectors {
		row := map[string]interface{}{
			"@InterconnectorID": ic.ID,
			"@Intervention":     "0",
			"@Flow":             "0",
			"@Losses":           "0",
		}
		if ic.RefFlow != nil {
			row["@Flow"] = f(*ic.RefFlow)
		}
		if ic.RefLosses != nil {
			row["@Losses"] = f(*ic.RefLosses)
		}
		icRows = append(icRows, row)
	}
	var regionRows []map[string]interface{}
	for _, r := range b.Regions {
		regionRows = append(regionRows, map[string]interface{}{
			"@RegionID":             r.ID,
			"@Intervention":         "0",
			"@DispatchedGeneration": "0",
			"@DispatchedLoad":       "0",
			"@FixedDemand":          f(r.InitialDemand + r.ADE + r.DF),
			"@NetExport":            "0",
			"@SurplusGeneration":    "0",
			"@ClearedDemand":        f(r.InitialDemand + r.ADE + r.DF),
		})
	}
	return map[string]interface{}{
		"CaseSolution": map[string]interface{}{
			"@InterventionStatus": "0",
		},
		"PeriodSolution": map[string]interface{}{
			"@Intervention":   "0",
			"@TotalObjective": "0",
		},
		"RegionSolution":         regionRows,
		"TraderSolution":         traderRows,
		"InterconnectorSolution": icRows,
		"ConstraintSolution":     constraintSolutions,
	}
}

///////////////////////////////////////////////////////////////////////////////
// Convenience constructors

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// EnergyOffer returns a single-band energy offer.
func EnergyOffer(tradeType string, quantity, price float64) Offer {
	o := Offer{TradeType: tradeType, MaxAvail: quantity}
	o.PriceBands[0] = price
	o.QuantityBands[0] = quantity
	return o
}
