// Copyright (c) 2024 Akxen Labs

package nemde

import (
	"fmt"
	"sort"

	"github.com/valyala/fastjson"
)

///////////////////////////////////////////////////////////////////////////////
// Collection roots

func (cf *Casefile) regionCollection() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "RegionCollection", "Region"))
}

func (cf *Casefile) traderCollection() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "TraderCollection", "Trader"))
}

func (cf *Casefile) interconnectorCollection() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "InterconnectorCollection", "Interconnector"))
}

func (cf *Casefile) genericConstraintCollection() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "GenericConstraintCollection", "GenericConstraint"))
}

func (cf *Casefile) traderPeriods() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "PeriodCollection", "Period",
		"TraderPeriodCollection", "TraderPeriod"))
}

func (cf *Casefile) interconnectorPeriods() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "PeriodCollection", "Period",
		"InterconnectorPeriodCollection", "InterconnectorPeriod"))
}

func (cf *Casefile) regionPeriods() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "PeriodCollection", "Period",
		"RegionPeriodCollection", "RegionPeriod"))
}

func (cf *Casefile) genericConstraintPeriods() []*fastjson.Value {
	return elems(cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "PeriodCollection", "Period",
		"GenericConstraintPeriodCollection", "GenericConstraintPeriod"))
}

func (cf *Casefile) caseNode() *fastjson.Value {
	return cf.root.Get("NEMSPDCaseFile", "NemSpdInputs", "Case")
}

func (cf *Casefile) trades(traderPeriod *fastjson.Value) []*fastjson.Value {
	return elems(traderPeriod.Get("TradeCollection", "Trade"))
}

///////////////////////////////////////////////////////////////////////////////
// Index enumeration

// RegionIDs returns region ids in document order.
func (cf *Casefile) RegionIDs() []string {
	var ids []string
	for _, r := range cf.regionCollection() {
		if id, ok := attrString(r, "@RegionID"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// TraderIDs returns the ids of traders participating in the period.
func (cf *Casefile) TraderIDs() []string {
	var ids []string
	for _, t := range cf.traderPeriods() {
		if id, ok := attrString(t, "@TraderID"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// SemiDispatchIDs returns traders flagged semi-dispatchable.
func (cf *Casefile) SemiDispatchIDs() []string {
	var ids []string
	for _, t := range cf.traderCollection() {
		if sd, _ := attrString(t, "@SemiDispatch"); sd == "1" {
			if id, ok := attrString(t, "@TraderID"); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// OfferKey indexes a trader offer by (trader, trade type).
type OfferKey struct {
	TraderID  string
	TradeType TradeType
}

// TraderOfferIndex returns every (trader, trade type) offer in the period.
func (cf *Casefile) TraderOfferIndex() []OfferKey {
	var keys []OfferKey
	for _, tp := range cf.traderPeriods() {
		id, _ := attrString(tp, "@TraderID")
		for _, trade := range cf.trades(tp) {
			if tt, ok := attrString(trade, "@TradeType"); ok {
				keys = append(keys, OfferKey{id, TradeType(tt)})
			}
		}
	}
	return keys
}

// TraderFCASOfferIndex returns the FCAS subset of TraderOfferIndex.
func (cf *Casefile) TraderFCASOfferIndex() []OfferKey {
	var keys []OfferKey
	for _, k := range cf.TraderOfferIndex() {
		if k.TradeType.IsFCAS() {
			keys = append(keys, k)
		}
	}
	return keys
}

// TraderEnergyOfferIndex returns the ENOF/LDOF subset of TraderOfferIndex.
func (cf *Casefile) TraderEnergyOfferIndex() []OfferKey {
	var keys []OfferKey
	for _, k := range cf.TraderOfferIndex() {
		if k.TradeType.IsEnergy() {
			keys = append(keys, k)
		}
	}
	return keys
}

// FastStartIDs returns traders with @FastStart="1".
func (cf *Casefile) FastStartIDs() []string {
	var ids []string
	for _, t := range cf.traderCollection() {
		if fs, _ := attrString(t, "@FastStart"); fs == "1" {
			if id, ok := attrString(t, "@TraderID"); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// GenericConstraintIDs returns the constraint ids active in the period.
func (cf *Casefile) GenericConstraintIDs() []string {
	var ids []string
	for _, c := range cf.genericConstraintPeriods() {
		if id, ok := attrString(c, "@ConstraintID"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// GCTraderVariableIndex returns the unique (trader, trade type) pairs
// referenced by generic constraint LHS trader factors, sorted.
func (cf *Casefile) GCTraderVariableIndex() []OfferKey {
	seen := make(map[OfferKey]bool)
	for _, c := range cf.genericConstraintCollection() {
		for _, f := range elems(c.Get("LHSFactorCollection", "TraderFactor")) {
			id, _ := attrString(f, "@TraderID")
			tt, _ := attrString(f, "@TradeType")
			seen[OfferKey{id, TradeType(tt)}] = true
		}
	}
	keys := make([]OfferKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TraderID != keys[j].TraderID {
			return keys[i].TraderID < keys[j].TraderID
		}
		return keys[i].TradeType < keys[j].TradeType
	})
	return keys
}

// GCInterconnectorVariableIndex returns the unique interconnector ids
// referenced by generic constraint LHS interconnector factors, sorted.
func (cf *Casefile) GCInterconnectorVariableIndex() []string {
	seen := make(map[string]bool)
	for _, c := range cf.genericConstraintCollection() {
		for _, f := range elems(c.Get("LHSFactorCollection", "InterconnectorFactor")) {
			if id, ok := attrString(f, "@InterconnectorID"); ok {
				seen[id] = true
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegionTradeKey indexes a generic constraint region variable.
type RegionTradeKey struct {
	RegionID  string
	TradeType TradeType
}

// GCRegionVariableIndex returns the unique (region, trade type) pairs
// referenced by generic constraint LHS region factors, sorted.
func (cf *Casefile) GCRegionVariableIndex() []RegionTradeKey {
	seen := make(map[RegionTradeKey]bool)
	for _, c := range cf.genericConstraintCollection() {
		for _, f := range elems(c.Get("LHSFactorCollection", "RegionFactor")) {
			id, _ := attrString(f, "@RegionID")
			tt, _ := attrString(f, "@TradeType")
			seen[RegionTradeKey{id, TradeType(tt)}] = true
		}
	}
	keys := make([]RegionTradeKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RegionID != keys[j].RegionID {
			return keys[i].RegionID < keys[j].RegionID
		}
		return keys[i].TradeType < keys[j].TradeType
	})
	return keys
}

// InterconnectorIDs returns interconnector ids in period order.
func (cf *Casefile) InterconnectorIDs() []string {
	var ids []string
	for _, ic := range cf.interconnectorPeriods() {
		if id, ok := attrString(ic, "@InterconnectorID"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// MNSPIDs returns interconnectors bidding as MNSPs.
func (cf *Casefile) MNSPIDs() []string {
	var ids []string
	for _, ic := range cf.interconnectorPeriods() {
		if mnsp, _ := attrString(ic, "@MNSP"); mnsp == "1" {
			if id, ok := attrString(ic, "@InterconnectorID"); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// MNSPOfferKey indexes an MNSP offer by (interconnector, region endpoint).
type MNSPOfferKey struct {
	InterconnectorID string
	RegionID         string
}

// MNSPOfferIndex returns every MNSP offer endpoint in the period.
func (cf *Casefile) MNSPOfferIndex() []MNSPOfferKey {
	var keys []MNSPOfferKey
	for _, ic := range cf.interconnectorPeriods() {
		offers := elems(ic.Get("MNSPOfferCollection", "MNSPOffer"))
		if offers == nil {
			continue
		}
		id, _ := attrString(ic, "@InterconnectorID")
		for _, o := range offers {
			if rid, ok := attrString(o, "@RegionID"); ok {
				keys = append(keys, MNSPOfferKey{id, rid})
			}
		}
	}
	return keys
}

///////////////////////////////////////////////////////////////////////////////
// Trader attributes

// TraderInitialConditions returns a map of trader id to the named initial
// condition, omitting traders that do not report it.
func (cf *Casefile) TraderInitialConditions(conditionID string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, t := range cf.traderCollection() {
		id, _ := attrString(t, "@TraderID")
		for _, ic := range elems(t.Get("TraderInitialConditionCollection", "TraderInitialCondition")) {
			if cid, _ := attrString(ic, "@InitialConditionID"); cid != conditionID {
				continue
			}
			v, err := mustAttrFloat(ic, "trader initial condition", id, "@Value")
			if err != nil {
				return nil, err
			}
			out[id] = v
		}
	}
	return out, nil
}

// TraderInitialConditionStrings is TraderInitialConditions for string-typed
// conditions such as AGCStatus.
func (cf *Casefile) TraderInitialConditionStrings(conditionID string) map[string]string {
	out := make(map[string]string)
	for _, t := range cf.traderCollection() {
		id, _ := attrString(t, "@TraderID")
		for _, ic := range elems(t.Get("TraderInitialConditionCollection", "TraderInitialCondition")) {
			if cid, _ := attrString(ic, "@InitialConditionID"); cid == conditionID {
				if v, ok := attrString(ic, "@Value"); ok {
					out[id] = v
				}
			}
		}
	}
	return out
}

// TraderCollectionStrings returns a trader collection attribute for every
// trader (e.g. "@TraderType", "@SemiDispatch").
func (cf *Casefile) TraderCollectionStrings(attr string) map[string]string {
	out := make(map[string]string)
	for _, t := range cf.traderCollection() {
		id, _ := attrString(t, "@TraderID")
		if v, ok := attrString(t, attr); ok {
			out[id] = v
		}
	}
	return out
}

// TraderPeriodStrings returns a trader period attribute (e.g. "@RegionID").
func (cf *Casefile) TraderPeriodStrings(attr string) map[string]string {
	out := make(map[string]string)
	for _, tp := range cf.traderPeriods() {
		id, _ := attrString(tp, "@TraderID")
		if v, ok := attrString(tp, attr); ok {
			out[id] = v
		}
	}
	return out
}

// TraderPeriodFloats returns an optional numeric trader period attribute
// (e.g. "@UIGF"), omitting traders without it.
func (cf *Casefile) TraderPeriodFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, tp := range cf.traderPeriods() {
		id, _ := attrString(tp, "@TraderID")
		v, ok, err := attrFloat(tp, attr)
		if err != nil {
			return nil, parseFailureError("trader period", id, attr, err)
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

// TraderTradeFloats returns a per-offer numeric attribute from the period
// trade collection (e.g. "@MaxAvail", "@EnablementMin"), omitting offers
// without it.
func (cf *Casefile) TraderTradeFloats(attr string) (map[OfferKey]float64, error) {
	out := make(map[OfferKey]float64)
	for _, tp := range cf.traderPeriods() {
		id, _ := attrString(tp, "@TraderID")
		for _, trade := range cf.trades(tp) {
			tt, _ := attrString(trade, "@TradeType")
			v, ok, err := attrFloat(trade, attr)
			if err != nil {
				return nil, parseFailureError("trade", id+"/"+tt, attr, err)
			}
			if ok {
				out[OfferKey{id, TradeType(tt)}] = v
			}
		}
	}
	return out, nil
}

// BandKey indexes a single price/quantity band of a trader offer.
type BandKey struct {
	TraderID  string
	TradeType TradeType
	Band      int
}

// TraderPriceBands returns every trader offer price band from the price
// structure collection.
func (cf *Casefile) TraderPriceBands() (map[BandKey]float64, error) {
	out := make(map[BandKey]float64)
	for _, t := range cf.traderCollection() {
		id, _ := attrString(t, "@TraderID")
		structures := elems(t.Get("TradePriceStructureCollection", "TradePriceStructure",
			"TradeTypePriceStructureCollection", "TradeTypePriceStructure"))
		for _, ps := range structures {
			tt, _ := attrString(ps, "@TradeType")
			for band := 1; band <= NumBands; band++ {
				v, err := mustAttrFloat(ps, "price structure", id+"/"+tt, fmt.Sprintf("@PriceBand%d", band))
				if err != nil {
					return nil, err
				}
				out[BandKey{id, TradeType(tt), band}] = v
			}
		}
	}
	return out, nil
}

// TraderQuantityBands returns every trader offer quantity band from the
// period trade collection.
func (cf *Casefile) TraderQuantityBands() (map[BandKey]float64, error) {
	out := make(map[BandKey]float64)
	for _, tp := range cf.traderPeriods() {
		id, _ := attrString(tp, "@TraderID")
		for _, trade := range cf.trades(tp) {
			tt, _ := attrString(trade, "@TradeType")
			for band := 1; band <= NumBands; band++ {
				v, err := mustAttrFloat(trade, "trade", id+"/"+tt, fmt.Sprintf("@BandAvail%d", band))
				if err != nil {
					return nil, err
				}
				out[BandKey{id, TradeType(tt), band}] = v
			}
		}
	}
	return out, nil
}

// TraderFastStartFloats returns a fast-start attribute for every fast-start
// trader, omitting traders where the attribute is absent.
func (cf *Casefile) TraderFastStartFloats(attr string) (map[string]float64, error) {
	fastStart := make(map[string]bool)
	for _, id := range cf.FastStartIDs() {
		fastStart[id] = true
	}
	out := make(map[string]float64)
	for _, t := range cf.traderCollection() {
		id, _ := attrString(t, "@TraderID")
		if !fastStart[id] {
			continue
		}
		v, ok, err := attrFloat(t, attr)
		if err != nil {
			return nil, parseFailureError("trader", id, attr, err)
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// Interconnector attributes

// InterconnectorInitialConditions returns the named initial condition per
// interconnector.
func (cf *Casefile) InterconnectorInitialConditions(conditionID string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, ic := range cf.interconnectorCollection() {
		id, _ := attrString(ic, "@InterconnectorID")
		for _, cond := range elems(ic.Get("InterconnectorInitialConditionCollection", "InterconnectorInitialCondition")) {
			if cid, _ := attrString(cond, "@InitialConditionID"); cid != conditionID {
				continue
			}
			v, err := mustAttrFloat(cond, "interconnector initial condition", id, "@Value")
			if err != nil {
				return nil, err
			}
			out[id] = v
		}
	}
	return out, nil
}

// InterconnectorPeriodStrings returns a period attribute per interconnector.
func (cf *Casefile) InterconnectorPeriodStrings(attr string) map[string]string {
	out := make(map[string]string)
	for _, ic := range cf.interconnectorPeriods() {
		id, _ := attrString(ic, "@InterconnectorID")
		if v, ok := attrString(ic, attr); ok {
			out[id] = v
		}
	}
	return out
}

// InterconnectorPeriodFloats returns a numeric period attribute per
// interconnector.
func (cf *Casefile) InterconnectorPeriodFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, ic := range cf.interconnectorPeriods() {
		id, _ := attrString(ic, "@InterconnectorID")
		v, ok, err := attrFloat(ic, attr)
		if err != nil {
			return nil, parseFailureError("interconnector period", id, attr, err)
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

// LossModelFloats returns a loss model attribute per interconnector
// (e.g. "@LossShare", "@LossLowerLimit").
func (cf *Casefile) LossModelFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, ic := range cf.interconnectorCollection() {
		id, _ := attrString(ic, "@InterconnectorID")
		lm := ic.Get("LossModelCollection", "LossModel")
		if lm == nil {
			return nil, missingAttributeError("interconnector", id, "LossModel")
		}
		v, err := mustAttrFloat(lm, "loss model", id, attr)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// LossSegment is one raw loss model segment.
type LossSegment struct {
	Limit  float64
	Factor float64
}

// LossModelSegments returns the ordered raw segments for one interconnector.
func (cf *Casefile) LossModelSegments(interconnectorID string) ([]LossSegment, error) {
	for _, ic := range cf.interconnectorCollection() {
		id, _ := attrString(ic, "@InterconnectorID")
		if id != interconnectorID {
			continue
		}
		var segments []LossSegment
		for _, s := range elems(ic.Get("LossModelCollection", "LossModel", "SegmentCollection", "Segment")) {
			limit, err := mustAttrFloat(s, "loss segment", id, "@Limit")
			if err != nil {
				return nil, err
			}
			factor, err := mustAttrFloat(s, "loss segment", id, "@Factor")
			if err != nil {
				return nil, err
			}
			segments = append(segments, LossSegment{Limit: limit, Factor: factor})
		}
		return segments, nil
	}
	return nil, fmt.Errorf("%w: interconnector %q", ErrCasefileNotFound, interconnectorID)
}

///////////////////////////////////////////////////////////////////////////////
// MNSP attributes

// MNSPBandKey indexes a single band of an MNSP offer endpoint.
type MNSPBandKey struct {
	InterconnectorID string
	RegionID         string
	Band             int
}

// MNSPPriceBands returns MNSP price bands from the price structure
// collection.
func (cf *Casefile) MNSPPriceBands() (map[MNSPBandKey]float64, error) {
	out := make(map[MNSPBandKey]float64)
	for _, ic := range cf.interconnectorCollection() {
		id, _ := attrString(ic, "@InterconnectorID")
		structures := elems(ic.Get("MNSPPriceStructureCollection", "MNSPPriceStructure",
			"MNSPRegionPriceStructureCollection", "MNSPRegionPriceStructure"))
		for _, ps := range structures {
			rid, _ := attrString(ps, "@RegionID")
			for band := 1; band <= NumBands; band++ {
				v, err := mustAttrFloat(ps, "MNSP price structure", id+"/"+rid, fmt.Sprintf("@PriceBand%d", band))
				if err != nil {
					return nil, err
				}
				out[MNSPBandKey{id, rid, band}] = v
			}
		}
	}
	return out, nil
}

// MNSPQuantityBands returns MNSP quantity bands from the period offer
// collection.
func (cf *Casefile) MNSPQuantityBands() (map[MNSPBandKey]float64, error) {
	out := make(map[MNSPBandKey]float64)
	for _, ic := range cf.interconnectorPeriods() {
		offers := elems(ic.Get("MNSPOfferCollection", "MNSPOffer"))
		if offers == nil {
			continue
		}
		id, _ := attrString(ic, "@InterconnectorID")
		for _, o := range offers {
			rid, _ := attrString(o, "@RegionID")
			for band := 1; band <= NumBands; band++ {
				v, err := mustAttrFloat(o, "MNSP offer", id+"/"+rid, fmt.Sprintf("@BandAvail%d", band))
				if err != nil {
					return nil, err
				}
				out[MNSPBandKey{id, rid, band}] = v
			}
		}
	}
	return out, nil
}

// MNSPOfferFloats returns a per-endpoint MNSP offer attribute
// (e.g. "@MaxAvail", "@RampUpRate").
func (cf *Casefile) MNSPOfferFloats(attr string) (map[MNSPOfferKey]float64, error) {
	out := make(map[MNSPOfferKey]float64)
	for _, ic := range cf.interconnectorPeriods() {
		offers := elems(ic.Get("MNSPOfferCollection", "MNSPOffer"))
		if offers == nil {
			continue
		}
		id, _ := attrString(ic, "@InterconnectorID")
		for _, o := range offers {
			rid, _ := attrString(o, "@RegionID")
			v, err := mustAttrFloat(o, "MNSP offer", id+"/"+rid, attr)
			if err != nil {
				return nil, err
			}
			out[MNSPOfferKey{id, rid}] = v
		}
	}
	return out, nil
}

// MNSPPeriodFloats returns a numeric period attribute for every MNSP
// (e.g. "@FromRegionLFExport").
func (cf *Casefile) MNSPPeriodFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, ic := range cf.interconnectorPeriods() {
		if mnsp, _ := attrString(ic, "@MNSP"); mnsp != "1" {
			continue
		}
		id, _ := attrString(ic, "@InterconnectorID")
		v, err := mustAttrFloat(ic, "MNSP period", id, attr)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// Region attributes

// RegionInitialConditions returns the named initial condition per region.
func (cf *Casefile) RegionInitialConditions(conditionID string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, r := range cf.regionCollection() {
		id, _ := attrString(r, "@RegionID")
		for _, cond := range elems(r.Get("RegionInitialConditionCollection", "RegionInitialCondition")) {
			if cid, _ := attrString(cond, "@InitialConditionID"); cid != conditionID {
				continue
			}
			v, err := mustAttrFloat(cond, "region initial condition", id, "@Value")
			if err != nil {
				return nil, err
			}
			out[id] = v
		}
	}
	return out, nil
}

// RegionPeriodFloats returns a numeric region period attribute (e.g. "@DF").
func (cf *Casefile) RegionPeriodFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, r := range cf.regionPeriods() {
		id, _ := attrString(r, "@RegionID")
		v, err := mustAttrFloat(r, "region period", id, attr)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// Generic constraints

// ConstraintTerms is the parsed LHS of one generic constraint.
type ConstraintTerms struct {
	Traders         map[OfferKey]float64
	Interconnectors map[string]float64
	Regions         map[RegionTradeKey]float64
}

// GenericConstraintStrings returns a constraint collection attribute for
// every constraint that carries LHS factors (e.g. "@Type").
func (cf *Casefile) GenericConstraintStrings(attr string) map[string]string {
	out := make(map[string]string)
	for _, c := range cf.genericConstraintCollection() {
		if c.Get("LHSFactorCollection") == nil {
			continue
		}
		id, _ := attrString(c, "@ConstraintID")
		if v, ok := attrString(c, attr); ok {
			out[id] = v
		}
	}
	return out
}

// GenericConstraintFloats returns a numeric constraint collection attribute
// for every constraint that carries LHS factors (e.g. "@ViolationPrice").
func (cf *Casefile) GenericConstraintFloats(attr string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, c := range cf.genericConstraintCollection() {
		if c.Get("LHSFactorCollection") == nil {
			continue
		}
		id, _ := attrString(c, "@ConstraintID")
		v, err := mustAttrFloat(c, "generic constraint", id, attr)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// GenericConstraintLHSTerms parses the LHS factor collections; constraints
// without LHS factors are skipped.
func (cf *Casefile) GenericConstraintLHSTerms() (map[string]ConstraintTerms, error) {
	out := make(map[string]ConstraintTerms)
	for _, c := range cf.genericConstraintCollection() {
		lhs := c.Get("LHSFactorCollection")
		if lhs == nil {
			continue
		}
		id, _ := attrString(c, "@ConstraintID")
		terms := ConstraintTerms{
			Traders:         make(map[OfferKey]float64),
			Interconnectors: make(map[string]float64),
			Regions:         make(map[RegionTradeKey]float64),
		}
		for _, f := range elems(lhs.Get("TraderFactor")) {
			tid, _ := attrString(f, "@TraderID")
			tt, _ := attrString(f, "@TradeType")
			factor, err := mustAttrFloat(f, "trader factor", id, "@Factor")
			if err != nil {
				return nil, err
			}
			terms.Traders[OfferKey{tid, TradeType(tt)}] += factor
		}
		for _, f := range elems(lhs.Get("InterconnectorFactor")) {
			iid, _ := attrString(f, "@InterconnectorID")
			factor, err := mustAttrFloat(f, "interconnector factor", id, "@Factor")
			if err != nil {
				return nil, err
			}
			terms.Interconnectors[iid] += factor
		}
		for _, f := range elems(lhs.Get("RegionFactor")) {
			rid, _ := attrString(f, "@RegionID")
			tt, _ := attrString(f, "@TradeType")
			factor, err := mustAttrFloat(f, "region factor", id, "@Factor")
			if err != nil {
				return nil, err
			}
			terms.Regions[RegionTradeKey{rid, TradeType(tt)}] += factor
		}
		out[id] = terms
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// Case attributes

// CaseString returns a string attribute of the Case node.
func (cf *Casefile) CaseString(attr string) (string, error) {
	c := cf.caseNode()
	if c == nil {
		return "", missingAttributeError("casefile", "", "Case")
	}
	return mustAttrString(c, "case", "", attr)
}

// CaseFloat returns a numeric attribute of the Case node.
func (cf *Casefile) CaseFloat(attr string) (float64, error) {
	c := cf.caseNode()
	if c == nil {
		return 0, missingAttributeError("casefile", "", "Case")
	}
	return mustAttrFloat(c, "case", "", attr)
}

// InterventionStatus applies the run-mode rule: intervention absent -> "0"
// for both modes; intervention present -> "1" for physical, "0" for pricing.
func (cf *Casefile) InterventionStatus(mode RunMode) (string, error) {
	intervention, err := cf.CaseString("@Intervention")
	if err != nil {
		return "", err
	}
	switch {
	case intervention == "False" || intervention == "0":
		return "0", nil
	case mode == RunMode_Physical:
		return "1", nil
	case mode == RunMode_Pricing:
		return "0", nil
	default:
		return "", fmt.Errorf("%w: run mode %q", ErrCasefileOptions, mode)
	}
}

///////////////////////////////////////////////////////////////////////////////
// Reference solution (NemSpdOutputs)

func (cf *Casefile) outputRows(collection string, idAttr string, intervention string) map[string]*fastjson.Value {
	out := make(map[string]*fastjson.Value)
	for _, row := range elems(cf.root.Get("NEMSPDCaseFile", "NemSpdOutputs", collection)) {
		if iv, _ := attrString(row, "@Intervention"); iv != intervention {
			continue
		}
		if id, ok := attrString(row, idAttr); ok {
			out[id] = row
		}
	}
	return out
}

// ReferenceSolutionFloat reads one scalar of the reference solution for the
// entity row matching (collection, idAttr=id, intervention).
func (cf *Casefile) ReferenceSolutionFloat(collection, idAttr, id, attr, intervention string) (float64, error) {
	rows := cf.outputRows(collection, idAttr, intervention)
	row, ok := rows[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q (intervention %s)", ErrCasefileNotFound, collection, id, intervention)
	}
	return mustAttrFloat(row, collection, id, attr)
}

// ReferencePeriodObjective reads the reference period solution's total
// objective for the given intervention flag. PeriodSolution may render as a
// singleton or a list.
func (cf *Casefile) ReferencePeriodObjective(intervention string) (float64, error) {
	for _, row := range elems(cf.root.Get("NEMSPDCaseFile", "NemSpdOutputs", "PeriodSolution")) {
		if iv, _ := attrString(row, "@Intervention"); iv != intervention {
			continue
		}
		return mustAttrFloat(row, "period solution", intervention, "@TotalObjective")
	}
	return 0, fmt.Errorf("%w: PeriodSolution (intervention %s)", ErrCasefileNotFound, intervention)
}

// ReferenceConstraintRHS returns reference constraint RHS values for the
// given intervention flag, keyed by constraint id.
func (cf *Casefile) ReferenceConstraintRHS(intervention string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, row := range elems(cf.root.Get("NEMSPDCaseFile", "NemSpdOutputs", "ConstraintSolution")) {
		if iv, _ := attrString(row, "@Intervention"); iv != intervention {
			continue
		}
		id, _ := attrString(row, "@ConstraintID")
		v, err := mustAttrFloat(row, "constraint solution", id, "@RHS")
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}
