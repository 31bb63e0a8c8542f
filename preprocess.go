// Copyright (c) 2024 Akxen Labs

package nemde

import (
	"math"
	"sort"
)

///////////////////////////////////////////////////////////////////////////////

// PreprocessOptions configure casefile preprocessing.
type PreprocessOptions struct {
	RunMode        RunMode
	LoadConvention LoadAvailabilityConvention
}

// Preprocess extracts the flat CaseInputs bundle and derives everything the
// model needs that is not literally in the casefile: scaled FCAS trapezia
// and availability, initial loss estimates and SOS2 breakpoints, price-tied
// band pairs, and the MNSP region loss indicator. Deterministic: the same
// casefile yields an identical bundle.
func Preprocess(cf *Casefile, opts PreprocessOptions) (*CaseInputs, error) {
	if opts.RunMode == "" {
		opts.RunMode = RunMode_Physical
	}
	in, err := buildInputs(cf, opts.RunMode)
	if err != nil {
		return nil, err
	}

	if err := preprocessFCAS(in, opts.LoadConvention); err != nil {
		return nil, err
	}
	if err := preprocessLossModel(in); err != nil {
		return nil, err
	}
	in.PriceTiedGenerators = priceTiedBands(in, TradeType_ENOF)
	in.PriceTiedLoads = priceTiedBands(in, TradeType_LDOF)
	in.MNSPRegionLossIndicator = mnspRegionLossIndicator(in)
	return in, nil
}

///////////////////////////////////////////////////////////////////////////////

// fcasParams assembles the scaling/availability inputs for one FCAS offer.
func fcasParams(in *CaseInputs, k OfferKey, convention LoadAvailabilityConvention) (FCASParams, error) {
	traderType, ok := in.TraderType[k.TraderID]
	if !ok {
		return FCASParams{}, unexpectedTraderTypeError("<missing " + k.TraderID + ">")
	}
	energyType, err := in.EnergyOfferType(k.TraderID)
	if err != nil {
		return FCASParams{}, err
	}

	p := FCASParams{
		TraderID:       k.TraderID,
		TradeType:      k.TradeType,
		TraderType:     traderType,
		Trapezium:      in.FCASTrapezium[k],
		AGCStatus:      in.TraderAGCStatus[k.TraderID],
		SemiDispatch:   in.TraderSemiDispatch[k.TraderID],
		LoadConvention: convention,
	}
	for band := 1; band <= NumBands; band++ {
		p.QuantityBands[band-1] = in.TraderQuantityBand[BandKey{k.TraderID, k.TradeType, band}]
	}
	if v, ok := in.TraderMaxAvail[OfferKey{k.TraderID, energyType}]; ok {
		p.EnergyMaxAvail = floatPtr(v)
	}
	if v, ok := in.TraderInitialMW[k.TraderID]; ok {
		p.InitialMW = floatPtr(v)
	}
	if v, ok := in.TraderUIGF[k.TraderID]; ok {
		p.UIGF = floatPtr(v)
	}
	if v, ok := in.TraderHMW[k.TraderID]; ok {
		p.HMW = floatPtr(v)
	}
	if v, ok := in.TraderLMW[k.TraderID]; ok {
		p.LMW = floatPtr(v)
	}
	if v, ok := in.TraderSCADARampUp[k.TraderID]; ok {
		p.AGCRampUp = floatPtr(v)
	}
	if v, ok := in.TraderSCADARampDown[k.TraderID]; ok {
		p.AGCRampDown = floatPtr(v)
	}
	return p, nil
}

func preprocessFCAS(in *CaseInputs, convention LoadAvailabilityConvention) error {
	in.FCASScaled = make(map[OfferKey]Trapezium, len(in.TraderFCASOffers))
	in.FCASAvailability = make(map[OfferKey]bool, len(in.TraderFCASOffers))
	for _, k := range in.TraderFCASOffers {
		p, err := fcasParams(in, k, convention)
		if err != nil {
			return err
		}
		in.FCASScaled[k] = ScaledTrapezium(p)
		in.FCASAvailability[k] = FCASAvailability(p)
	}
	return nil
}

func preprocessLossModel(in *CaseInputs) error {
	in.InterconnectorInitialLoss = make(map[string]float64, len(in.Interconnectors))
	in.InterconnectorLossBreakpoints = make(map[string][]LossBreakpoint, len(in.Interconnectors))
	for _, id := range in.Interconnectors {
		segments := in.InterconnectorLossSegments[id]

		loss, err := LossEstimate(segments, in.InterconnectorInitialMW[id])
		if err != nil {
			return err
		}
		in.InterconnectorInitialLoss[id] = loss

		breakpoints := make([]LossBreakpoint, 0, len(segments)+1)
		for i, s := range segments {
			if i == 0 {
				y0, err := LossEstimate(segments, s.Start)
				if err != nil {
					return err
				}
				breakpoints = append(breakpoints, LossBreakpoint{X: s.Start, Y: y0})
			}
			y, err := LossEstimate(segments, s.End)
			if err != nil {
				return err
			}
			breakpoints = append(breakpoints, LossBreakpoint{X: s.End, Y: y})
		}
		in.InterconnectorLossBreakpoints[id] = breakpoints
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// priceTiedBands finds same-region pairs of energy offer bands whose prices
// differ by less than the tie threshold, both bands non-zero. Pairs are
// deduplicated, ordered (a < b), and sorted.
func priceTiedBands(in *CaseInputs, energyType TradeType) []TieBreakPair {
	type bandEntry struct {
		key   BandKey
		price float64
	}
	var entries []bandEntry
	for _, k := range in.TraderOffers {
		if k.TradeType != energyType {
			continue
		}
		for band := 1; band <= NumBands; band++ {
			bk := BandKey{k.TraderID, k.TradeType, band}
			entries = append(entries, bandEntry{key: bk, price: in.TraderPriceBand[bk]})
		}
	}

	seen := make(map[TieBreakPair]bool)
	for _, a := range entries {
		for _, b := range entries {
			if a.key == b.key {
				continue
			}
			if in.TraderRegion[a.key.TraderID] != in.TraderRegion[b.key.TraderID] {
				continue
			}
			if math.Abs(a.price-b.price) >= PriceTieThreshold {
				continue
			}
			if in.TraderQuantityBand[a.key] == 0 || in.TraderQuantityBand[b.key] == 0 {
				continue
			}
			pair := TieBreakPair{A: a.key, B: b.key}
			if bandKeyLess(b.key, a.key) {
				pair = TieBreakPair{A: b.key, B: a.key}
			}
			seen[pair] = true
		}
	}

	pairs := make([]TieBreakPair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return bandKeyLess(pairs[i].A, pairs[j].A)
		}
		return bandKeyLess(pairs[i].B, pairs[j].B)
	})
	return pairs
}

func bandKeyLess(a, b BandKey) bool {
	if a.TraderID != b.TraderID {
		return a.TraderID < b.TraderID
	}
	if a.TradeType != b.TradeType {
		return a.TradeType < b.TradeType
	}
	return a.Band < b.Band
}

///////////////////////////////////////////////////////////////////////////////

// mnspRegionLossIndicator is 1 for (mnsp, from-region) when the initial flow
// is non-negative, 1 for (mnsp, to-region) when it is negative, else 0.
func mnspRegionLossIndicator(in *CaseInputs) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(in.MNSPs))
	for _, id := range in.MNSPs {
		out[id] = make(map[string]float64, len(in.Regions))
		initialMW := in.InterconnectorInitialMW[id]
		for _, region := range in.Regions {
			switch {
			case region == in.InterconnectorFromRegion[id] && initialMW >= 0:
				out[id][region] = 1
			case region == in.InterconnectorToRegion[id] && initialMW < 0:
				out[id][region] = 1
			default:
				out[id][region] = 0
			}
		}
	}
	return out
}
