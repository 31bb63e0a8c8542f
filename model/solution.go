// Copyright (c) 2024 Akxen Labs

package model

import (
	"github.com/akxen/nemde-go"
)

///////////////////////////////////////////////////////////////////////////////

// fcasTargetAttrs maps trade types to the reference solution's target
// attribute names.
var fcasTargetAttrs = map[nemde.TradeType]string{
	nemde.TradeType_R6SE: "@R6Target",
	nemde.TradeType_R60S: "@R60Target",
	nemde.TradeType_R5MI: "@R5Target",
	nemde.TradeType_R5RE: "@R5RegTarget",
	nemde.TradeType_L6SE: "@L6Target",
	nemde.TradeType_L60S: "@L60Target",
	nemde.TradeType_L5MI: "@L5Target",
	nemde.TradeType_L5RE: "@L5RegTarget",
}

///////////////////////////////////////////////////////////////////////////////
// Value helpers over a solved pass

func (m *Model) offerTarget(values []float64, traderID string, tradeType nemde.TradeType) float64 {
	if v, ok := m.traderTotal[nemde.OfferKey{TraderID: traderID, TradeType: tradeType}]; ok {
		return values[v]
	}
	return 0
}

func (m *Model) offerViolation(values []float64, traderID string, tradeType nemde.TradeType) float64 {
	if !m.in.HasOffer(traderID, tradeType) {
		return 0
	}
	total := 0.0
	for band := 1; band <= nemde.NumBands; band++ {
		if v, ok := m.cvTraderOffer[nemde.BandKey{TraderID: traderID, TradeType: tradeType, Band: band}]; ok {
			total += values[v]
		}
	}
	return total
}

func (m *Model) regionFCASDispatch(values []float64, region string, tradeType nemde.TradeType) float64 {
	total := 0.0
	for _, k := range m.in.TraderOffers {
		if k.TradeType == tradeType && m.in.TraderRegion[k.TraderID] == region {
			total += values[m.traderTotal[k]]
		}
	}
	return total
}

func (m *Model) constraintDeficit(values []float64, constraintID string) float64 {
	if m.in.GCType[constraintID] == nemde.ConstraintType_EQ {
		return values[m.cvGCLHS[constraintID]] + values[m.cvGCRHS[constraintID]]
	}
	return values[m.cvGC[constraintID]]
}

func (m *Model) violationTotals(values []float64) (interconnector, generic, rampRate, capacity, fastStart, uigf, mnspRamp, mnspOffer, mnspCapacity float64) {
	for _, id := range m.in.Interconnectors {
		interconnector += values[m.cvICForward[id]] + values[m.cvICReverse[id]]
	}
	for _, id := range m.in.GenericConstraints {
		generic += values[m.cvGC[id]] + values[m.cvGCLHS[id]] + values[m.cvGCRHS[id]]
	}
	for _, id := range m.in.Traders {
		rampRate += values[m.cvRampUp[id]] + values[m.cvRampDown[id]]
	}
	for _, k := range m.in.TraderOffers {
		capacity += values[m.cvTraderCapacity[k]]
		uigf += values[m.cvTraderUIGF[k]]
	}
	for _, id := range m.in.FastStartTraders {
		fastStart += values[m.cvInflexProfile[id]] + values[m.cvInflexLHS[id]] + values[m.cvInflexRHS[id]]
	}
	for _, k := range m.in.MNSPOffers {
		mnspRamp += values[m.cvMNSPRampUp[k]] + values[m.cvMNSPRampDown[k]]
		mnspCapacity += values[m.cvMNSPCapacity[k]]
		for band := 1; band <= nemde.NumBands; band++ {
			mnspOffer += values[m.cvMNSPOffer[nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}]]
		}
	}
	return
}

///////////////////////////////////////////////////////////////////////////////
// Standard extraction

// Extract builds the standard solution document from a solved model.
func Extract(m *Model, sr *SolveResult) *nemde.Solution {
	in := m.in
	values := sr.Values

	icViolation, gcViolation, rampViolation, capViolation, fsViolation, uigfViolation,
		mnspRampViolation, mnspOfferViolation, mnspCapViolation := m.violationTotals(values)

	out := &nemde.Solution{
		CaseSolution: nemde.CaseSolution{
			InterventionStatus:           in.Intervention,
			TotalInterconnectorViolation: icViolation,
			TotalGenericViolation:        gcViolation,
			TotalRampRateViolation:       rampViolation,
			TotalUnitMWCapacityViolation: capViolation,
			TotalFastStartViolation:      fsViolation,
			TotalUIGFViolation:           uigfViolation,
		},
		PeriodSolution: nemde.PeriodSolution{
			CaseID:                       in.CaseID,
			Intervention:                 in.Intervention,
			TotalObjective:               sr.Objective,
			TotalInterconnectorViolation: icViolation,
			TotalGenericViolation:        gcViolation,
			TotalRampRateViolation:       rampViolation,
			TotalUnitMWCapacityViolation: capViolation,
			TotalFastStartViolation:      fsViolation,
			TotalMNSPRampRateViolation:   mnspRampViolation,
			TotalMNSPOfferViolation:      mnspOfferViolation,
			TotalMNSPCapacityViolation:   mnspCapViolation,
			TotalUIGFViolation:           uigfViolation,
		},
		Warnings: m.warnings,
	}

	for _, region := range in.Regions {
		out.RegionSolution = append(out.RegionSolution, nemde.RegionSolution{
			RegionID:             region,
			CaseID:               in.CaseID,
			Intervention:         in.Intervention,
			DispatchedGeneration: m.eDispatchedGeneration[region].Eval(values),
			DispatchedLoad:       m.eDispatchedLoad[region].Eval(values),
			FixedDemand:          m.fixedDemand[region],
			NetExport:            m.eNetExport[region].Eval(values),
			SurplusGeneration:    values[m.cvRegionSurplus[region]],
			R6Dispatch:           m.regionFCASDispatch(values, region, nemde.TradeType_R6SE),
			R60Dispatch:          m.regionFCASDispatch(values, region, nemde.TradeType_R60S),
			R5Dispatch:           m.regionFCASDispatch(values, region, nemde.TradeType_R5MI),
			R5RegDispatch:        m.regionFCASDispatch(values, region, nemde.TradeType_R5RE),
			L6Dispatch:           m.regionFCASDispatch(values, region, nemde.TradeType_L6SE),
			L60Dispatch:          m.regionFCASDispatch(values, region, nemde.TradeType_L60S),
			L5Dispatch:           m.regionFCASDispatch(values, region, nemde.TradeType_L5MI),
			L5RegDispatch:        m.regionFCASDispatch(values, region, nemde.TradeType_L5RE),
			ClearedDemand:        m.eClearedDemand[region].Eval(values),
		})
	}

	for _, traderID := range in.Traders {
		energyType, err := in.EnergyOfferType(traderID)
		if err != nil {
			energyType = nemde.TradeType_ENOF
		}
		out.TraderSolution = append(out.TraderSolution, nemde.TraderSolution{
			TraderID:     traderID,
			CaseID:       in.CaseID,
			Intervention: in.Intervention,
			EnergyTarget: m.offerTarget(values, traderID, energyType),
			R6Target:     m.offerTarget(values, traderID, nemde.TradeType_R6SE),
			R60Target:    m.offerTarget(values, traderID, nemde.TradeType_R60S),
			R5Target:     m.offerTarget(values, traderID, nemde.TradeType_R5MI),
			R5RegTarget:  m.offerTarget(values, traderID, nemde.TradeType_R5RE),
			L6Target:     m.offerTarget(values, traderID, nemde.TradeType_L6SE),
			L60Target:    m.offerTarget(values, traderID, nemde.TradeType_L60S),
			L5Target:     m.offerTarget(values, traderID, nemde.TradeType_L5MI),
			L5RegTarget:  m.offerTarget(values, traderID, nemde.TradeType_L5RE),

			EnergyViolation: m.offerViolation(values, traderID, energyType),
			R6Violation:     m.offerViolation(values, traderID, nemde.TradeType_R6SE),
			R60Violation:    m.offerViolation(values, traderID, nemde.TradeType_R60S),
			R5Violation:     m.offerViolation(values, traderID, nemde.TradeType_R5MI),
			R5RegViolation:  m.offerViolation(values, traderID, nemde.TradeType_R5RE),
			L6Violation:     m.offerViolation(values, traderID, nemde.TradeType_L6SE),
			L60Violation:    m.offerViolation(values, traderID, nemde.TradeType_L60S),
			L5Violation:     m.offerViolation(values, traderID, nemde.TradeType_L5MI),
			L5RegViolation:  m.offerViolation(values, traderID, nemde.TradeType_L5RE),
		})
	}

	for _, id := range in.Interconnectors {
		out.InterconnectorSolution = append(out.InterconnectorSolution, nemde.InterconnectorSolution{
			InterconnectorID: id,
			CaseID:           in.CaseID,
			Intervention:     in.Intervention,
			Flow:             values[m.gcInterconnector[id]],
			Losses:           values[m.loss[id]],
			Deficit:          values[m.cvICReverse[id]],
		})
	}

	for _, id := range in.GenericConstraints {
		out.ConstraintSolution = append(out.ConstraintSolution, nemde.ConstraintSolution{
			ConstraintID: id,
			CaseID:       in.CaseID,
			Intervention: in.Intervention,
			RHS:          in.GCRHS[id],
			Deficit:      m.constraintDeficit(values, id),
		})
	}
	return out
}

///////////////////////////////////////////////////////////////////////////////
// Validation extraction

// ExtractValidation builds the validation document: every scalar compared
// against the reference solution embedded in the casefile.
func ExtractValidation(m *Model, sr *SolveResult, cf *nemde.Casefile) (*nemde.ValidationSolution, error) {
	in := m.in
	std := Extract(m, sr)
	intervention := in.Intervention

	refObjective, err := cf.ReferencePeriodObjective(intervention)
	if err != nil {
		return nil, err
	}

	out := &nemde.ValidationSolution{
		CaseSolution: std.CaseSolution,
		PeriodSolution: nemde.PeriodSolutionValidation{
			CaseID:         in.CaseID,
			Intervention:   intervention,
			TotalObjective: nemde.Compare(std.PeriodSolution.TotalObjective, refObjective),
		},
		Warnings: std.Warnings,
	}

	for _, region := range std.RegionSolution {
		refRegion := func(attr string) (float64, error) {
			return cf.ReferenceSolutionFloat("RegionSolution", "@RegionID", region.RegionID, attr, intervention)
		}
		dispatchedGeneration, err := refRegion("@DispatchedGeneration")
		if err != nil {
			return nil, err
		}
		dispatchedLoad, err := refRegion("@DispatchedLoad")
		if err != nil {
			return nil, err
		}
		fixedDemand, err := refRegion("@FixedDemand")
		if err != nil {
			return nil, err
		}
		netExport, err := refRegion("@NetExport")
		if err != nil {
			return nil, err
		}
		surplusGeneration, err := refRegion("@SurplusGeneration")
		if err != nil {
			return nil, err
		}
		clearedDemand, err := refRegion("@ClearedDemand")
		if err != nil {
			return nil, err
		}
		out.RegionSolution = append(out.RegionSolution, nemde.RegionSolutionValidation{
			RegionID:             region.RegionID,
			CaseID:               in.CaseID,
			Intervention:         intervention,
			DispatchedGeneration: nemde.Compare(region.DispatchedGeneration, dispatchedGeneration),
			DispatchedLoad:       nemde.Compare(region.DispatchedLoad, dispatchedLoad),
			FixedDemand:          nemde.Compare(region.FixedDemand, fixedDemand),
			NetExport:            nemde.Compare(region.NetExport, netExport),
			SurplusGeneration:    nemde.Compare(region.SurplusGeneration, surplusGeneration),
			ClearedDemand:        nemde.Compare(region.ClearedDemand, clearedDemand),
		})
	}

	for _, trader := range std.TraderSolution {
		refTrader := func(attr string) (float64, error) {
			return cf.ReferenceSolutionFloat("TraderSolution", "@TraderID", trader.TraderID, attr, intervention)
		}
		energyTarget, err := refTrader("@EnergyTarget")
		if err != nil {
			return nil, err
		}
		row := nemde.TraderSolutionValidation{
			TraderID:     trader.TraderID,
			CaseID:       in.CaseID,
			Intervention: intervention,
			EnergyTarget: nemde.Compare(trader.EnergyTarget, energyTarget),
		}
		modelTargets := map[nemde.TradeType]float64{
			nemde.TradeType_R6SE: trader.R6Target,
			nemde.TradeType_R60S: trader.R60Target,
			nemde.TradeType_R5MI: trader.R5Target,
			nemde.TradeType_R5RE: trader.R5RegTarget,
			nemde.TradeType_L6SE: trader.L6Target,
			nemde.TradeType_L60S: trader.L60Target,
			nemde.TradeType_L5MI: trader.L5Target,
			nemde.TradeType_L5RE: trader.L5RegTarget,
		}
		comparisons := make(map[nemde.TradeType]nemde.Comparison, len(modelTargets))
		for tradeType, modelValue := range modelTargets {
			actual, err := refTrader(fcasTargetAttrs[tradeType])
			if err != nil {
				return nil, err
			}
			comparisons[tradeType] = nemde.Compare(modelValue, actual)
		}
		row.R6Target = comparisons[nemde.TradeType_R6SE]
		row.R60Target = comparisons[nemde.TradeType_R60S]
		row.R5Target = comparisons[nemde.TradeType_R5MI]
		row.R5RegTarget = comparisons[nemde.TradeType_R5RE]
		row.L6Target = comparisons[nemde.TradeType_L6SE]
		row.L60Target = comparisons[nemde.TradeType_L60S]
		row.L5Target = comparisons[nemde.TradeType_L5MI]
		row.L5RegTarget = comparisons[nemde.TradeType_L5RE]
		out.TraderSolution = append(out.TraderSolution, row)
	}

	for _, ic := range std.InterconnectorSolution {
		flow, err := cf.ReferenceSolutionFloat("InterconnectorSolution", "@InterconnectorID", ic.InterconnectorID, "@Flow", intervention)
		if err != nil {
			return nil, err
		}
		losses, err := cf.ReferenceSolutionFloat("InterconnectorSolution", "@InterconnectorID", ic.InterconnectorID, "@Losses", intervention)
		if err != nil {
			return nil, err
		}
		out.InterconnectorSolution = append(out.InterconnectorSolution, nemde.InterconnectorSolutionValidation{
			InterconnectorID: ic.InterconnectorID,
			CaseID:           in.CaseID,
			Intervention:     intervention,
			Flow:             nemde.Compare(ic.Flow, flow),
			Losses:           nemde.Compare(ic.Losses, losses),
		})
	}

	for _, con := range std.ConstraintSolution {
		deficit, err := cf.ReferenceSolutionFloat("ConstraintSolution", "@ConstraintID", con.ConstraintID, "@Deficit", intervention)
		if err != nil {
			return nil, err
		}
		out.ConstraintSolution = append(out.ConstraintSolution, nemde.ConstraintSolutionValidation{
			ConstraintID: con.ConstraintID,
			CaseID:       in.CaseID,
			Intervention: intervention,
			RHS:          con.RHS,
			Deficit:      nemde.Compare(con.Deficit, deficit),
		})
	}
	return out, nil
}
