// Copyright (c) 2024 Akxen Labs

// Package model builds the dispatch MILP for one preprocessed casefile,
// solves it in two passes (MILP, then LP with binaries fixed) and extracts
// the structured solution.
package model

import (
	"fmt"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

// Model is one constructed dispatch problem. All variable ids index into
// Problem; expression registries back post-solve accounting.
type Model struct {
	in *nemde.CaseInputs
	p  *solver.Problem

	// Decision variables.
	traderOffer      map[nemde.BandKey]solver.VarID
	traderTotal      map[nemde.OfferKey]solver.VarID
	mnspOffer        map[nemde.MNSPBandKey]solver.VarID
	mnspTotal        map[nemde.MNSPOfferKey]solver.VarID
	gcTrader         map[nemde.OfferKey]solver.VarID
	gcInterconnector map[string]solver.VarID
	gcRegion         map[nemde.RegionTradeKey]solver.VarID
	loss             map[string]solver.VarID
	lossLambda       map[string][]solver.VarID
	lossY            map[string][]solver.VarID
	mnspFromExport   map[string]solver.VarID
	mnspFromImport   map[string]solver.VarID
	mnspToExport     map[string]solver.VarID
	mnspToImport     map[string]solver.VarID
	mnspDirection    map[string]solver.VarID
	tieBreakGenUp    map[nemde.TieBreakPair]solver.VarID
	tieBreakGenDown  map[nemde.TieBreakPair]solver.VarID
	tieBreakLoadUp   map[nemde.TieBreakPair]solver.VarID
	tieBreakLoadDown map[nemde.TieBreakPair]solver.VarID

	// Violation variables.
	cvGC             map[string]solver.VarID
	cvGCLHS          map[string]solver.VarID
	cvGCRHS          map[string]solver.VarID
	cvTraderOffer    map[nemde.BandKey]solver.VarID
	cvTraderCapacity map[nemde.OfferKey]solver.VarID
	cvTraderUIGF     map[nemde.OfferKey]solver.VarID
	cvRampUp         map[string]solver.VarID
	cvRampDown       map[string]solver.VarID
	cvJointRampUp    map[nemde.OfferKey]solver.VarID
	cvJointRampDown  map[nemde.OfferKey]solver.VarID
	cvJointCapRHS    map[nemde.OfferKey]solver.VarID
	cvJointCapLHS    map[nemde.OfferKey]solver.VarID
	cvEnergyRegRHS   map[nemde.OfferKey]solver.VarID
	cvEnergyRegLHS   map[nemde.OfferKey]solver.VarID
	cvFCASMaxAvail   map[nemde.OfferKey]solver.VarID
	cvEnablementMin  map[nemde.OfferKey]solver.VarID
	cvEnablementMax  map[nemde.OfferKey]solver.VarID
	cvInflexProfile  map[string]solver.VarID
	cvInflexLHS      map[string]solver.VarID
	cvInflexRHS      map[string]solver.VarID
	cvMNSPOffer      map[nemde.MNSPBandKey]solver.VarID
	cvMNSPCapacity   map[nemde.MNSPOfferKey]solver.VarID
	cvMNSPRampUp     map[nemde.MNSPOfferKey]solver.VarID
	cvMNSPRampDown   map[nemde.MNSPOfferKey]solver.VarID
	cvICForward      map[string]solver.VarID
	cvICReverse      map[string]solver.VarID
	cvRegionSurplus  map[string]solver.VarID
	cvRegionDeficit  map[string]solver.VarID

	// Parameter-only accounting (fixed before the solve).
	fixedDemand map[string]float64

	// Expression registries for constraints and post-solve accounting.
	eDispatchedGeneration map[string]*solver.Expr
	eDispatchedLoad       map[string]*solver.Expr
	eAllocatedLoss        map[string]*solver.Expr
	eMNSPLoss             map[string]*solver.Expr
	eInterconnectorExport map[string]*solver.Expr
	eNetExport            map[string]*solver.Expr
	eClearedDemand        map[string]*solver.Expr
	eMNSPFromRegionLoss   map[string]*solver.Expr
	eMNSPToRegionLoss     map[string]*solver.Expr
	eMNSPFromCPFlow       map[string]*solver.Expr
	eMNSPToCPFlow         map[string]*solver.Expr
	eGCLHS                map[string]*solver.Expr
	eTotalPenalty         *solver.Expr

	// Effective regulation enablement bounds (parameter min/max).
	effEnablementMax map[nemde.OfferKey]float64
	effEnablementMin map[nemde.OfferKey]float64

	warnings []string
}

// Inputs returns the preprocessed bundle the model was built from.
func (m *Model) Inputs() *nemde.CaseInputs {
	return m.in
}

// Problem returns the underlying solver problem.
func (m *Model) Problem() *solver.Problem {
	return m.p
}

///////////////////////////////////////////////////////////////////////////////

// Build constructs the dispatch MILP from a preprocessed casefile bundle.
func Build(in *nemde.CaseInputs) (*Model, error) {
	m := &Model{in: in, p: solver.NewProblem()}

	m.defineVariables()
	if err := m.defineExpressions(); err != nil {
		return nil, err
	}
	if err := m.defineConstraints(); err != nil {
		return nil, err
	}
	m.defineObjective()
	return m, nil
}

// defineVariables creates every decision and violation variable. Iteration
// follows the input bundle's deterministic index order.
func (m *Model) defineVariables() {
	in := m.in
	p := m.p

	m.traderOffer = make(map[nemde.BandKey]solver.VarID)
	m.traderTotal = make(map[nemde.OfferKey]solver.VarID)
	m.cvTraderOffer = make(map[nemde.BandKey]solver.VarID)
	m.cvTraderCapacity = make(map[nemde.OfferKey]solver.VarID)
	m.cvTraderUIGF = make(map[nemde.OfferKey]solver.VarID)
	for _, k := range in.TraderOffers {
		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.BandKey{TraderID: k.TraderID, TradeType: k.TradeType, Band: band}
			m.traderOffer[bk] = p.AddNonNegVar(fmt.Sprintf("V_TRADER_OFFER[%s,%s,%d]", k.TraderID, k.TradeType, band))
			m.cvTraderOffer[bk] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_OFFER[%s,%s,%d]", k.TraderID, k.TradeType, band))
		}
		m.traderTotal[k] = p.AddNonNegVar(fmt.Sprintf("V_TRADER_TOTAL_OFFER[%s,%s]", k.TraderID, k.TradeType))
		m.cvTraderCapacity[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_CAPACITY[%s,%s]", k.TraderID, k.TradeType))
		m.cvTraderUIGF[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_UIGF_SURPLUS[%s,%s]", k.TraderID, k.TradeType))
	}

	m.mnspOffer = make(map[nemde.MNSPBandKey]solver.VarID)
	m.mnspTotal = make(map[nemde.MNSPOfferKey]solver.VarID)
	m.cvMNSPOffer = make(map[nemde.MNSPBandKey]solver.VarID)
	m.cvMNSPCapacity = make(map[nemde.MNSPOfferKey]solver.VarID)
	m.cvMNSPRampUp = make(map[nemde.MNSPOfferKey]solver.VarID)
	m.cvMNSPRampDown = make(map[nemde.MNSPOfferKey]solver.VarID)
	for _, k := range in.MNSPOffers {
		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}
			m.mnspOffer[bk] = p.AddNonNegVar(fmt.Sprintf("V_MNSP_OFFER[%s,%s,%d]", k.InterconnectorID, k.RegionID, band))
			m.cvMNSPOffer[bk] = p.AddNonNegVar(fmt.Sprintf("V_CV_MNSP_OFFER[%s,%s,%d]", k.InterconnectorID, k.RegionID, band))
		}
		m.mnspTotal[k] = p.AddNonNegVar(fmt.Sprintf("V_MNSP_TOTAL_OFFER[%s,%s]", k.InterconnectorID, k.RegionID))
		m.cvMNSPCapacity[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_MNSP_CAPACITY[%s,%s]", k.InterconnectorID, k.RegionID))
		m.cvMNSPRampUp[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_MNSP_RAMP_UP[%s,%s]", k.InterconnectorID, k.RegionID))
		m.cvMNSPRampDown[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_MNSP_RAMP_DOWN[%s,%s]", k.InterconnectorID, k.RegionID))
	}

	m.gcTrader = make(map[nemde.OfferKey]solver.VarID)
	for _, k := range in.GCTraderVars {
		m.gcTrader[k] = p.AddVar(fmt.Sprintf("V_GC_TRADER[%s,%s]", k.TraderID, k.TradeType))
	}
	m.gcInterconnector = make(map[string]solver.VarID)
	for _, id := range in.Interconnectors {
		m.gcInterconnector[id] = p.AddVar("V_GC_INTERCONNECTOR[" + id + "]")
	}
	// Interconnectors referenced only by generic constraints still need a
	// linkage variable.
	for _, id := range in.GCInterconnectorVars {
		if _, ok := m.gcInterconnector[id]; !ok {
			m.gcInterconnector[id] = p.AddVar("V_GC_INTERCONNECTOR[" + id + "]")
		}
	}
	m.gcRegion = make(map[nemde.RegionTradeKey]solver.VarID)
	for _, k := range in.GCRegionVars {
		m.gcRegion[k] = p.AddVar(fmt.Sprintf("V_GC_REGION[%s,%s]", k.RegionID, k.TradeType))
	}

	m.loss = make(map[string]solver.VarID)
	m.lossLambda = make(map[string][]solver.VarID)
	m.lossY = make(map[string][]solver.VarID)
	m.cvICForward = make(map[string]solver.VarID)
	m.cvICReverse = make(map[string]solver.VarID)
	for _, id := range in.Interconnectors {
		m.loss[id] = p.AddVar("V_LOSS[" + id + "]")
		breakpoints := in.InterconnectorLossBreakpoints[id]
		lambdas := make([]solver.VarID, len(breakpoints))
		for j := range breakpoints {
			lambdas[j] = p.AddNonNegVar(fmt.Sprintf("V_LOSS_LAMBDA[%s,%d]", id, j))
		}
		m.lossLambda[id] = lambdas
		if len(breakpoints) > 1 {
			ys := make([]solver.VarID, len(breakpoints)-1)
			for j := range ys {
				ys[j] = p.AddBinaryVar(fmt.Sprintf("V_LOSS_Y[%s,%d]", id, j))
			}
			m.lossY[id] = ys
		}
		m.cvICForward[id] = p.AddNonNegVar("V_CV_INTERCONNECTOR_FORWARD[" + id + "]")
		m.cvICReverse[id] = p.AddNonNegVar("V_CV_INTERCONNECTOR_REVERSE[" + id + "]")
	}

	m.mnspFromExport = make(map[string]solver.VarID)
	m.mnspFromImport = make(map[string]solver.VarID)
	m.mnspToExport = make(map[string]solver.VarID)
	m.mnspToImport = make(map[string]solver.VarID)
	m.mnspDirection = make(map[string]solver.VarID)
	for _, id := range in.MNSPs {
		m.mnspFromExport[id] = p.AddVar("V_MNSP_FROM_REGION_EXPORT[" + id + "]")
		m.mnspFromImport[id] = p.AddVar("V_MNSP_FROM_REGION_IMPORT[" + id + "]")
		m.mnspToExport[id] = p.AddVar("V_MNSP_TO_REGION_EXPORT[" + id + "]")
		m.mnspToImport[id] = p.AddVar("V_MNSP_TO_REGION_IMPORT[" + id + "]")
		m.mnspDirection[id] = p.AddBinaryVar("V_MNSP_FLOW_DIRECTION[" + id + "]")
	}

	m.cvGC = make(map[string]solver.VarID)
	m.cvGCLHS = make(map[string]solver.VarID)
	m.cvGCRHS = make(map[string]solver.VarID)
	for _, id := range in.GenericConstraints {
		m.cvGC[id] = p.AddNonNegVar("V_CV[" + id + "]")
		m.cvGCLHS[id] = p.AddNonNegVar("V_CV_LHS[" + id + "]")
		m.cvGCRHS[id] = p.AddNonNegVar("V_CV_RHS[" + id + "]")
	}

	m.cvRampUp = make(map[string]solver.VarID)
	m.cvRampDown = make(map[string]solver.VarID)
	for _, id := range in.Traders {
		m.cvRampUp[id] = p.AddNonNegVar("V_CV_TRADER_RAMP_UP[" + id + "]")
		m.cvRampDown[id] = p.AddNonNegVar("V_CV_TRADER_RAMP_DOWN[" + id + "]")
	}

	m.cvJointRampUp = make(map[nemde.OfferKey]solver.VarID)
	m.cvJointRampDown = make(map[nemde.OfferKey]solver.VarID)
	m.cvJointCapRHS = make(map[nemde.OfferKey]solver.VarID)
	m.cvJointCapLHS = make(map[nemde.OfferKey]solver.VarID)
	m.cvEnergyRegRHS = make(map[nemde.OfferKey]solver.VarID)
	m.cvEnergyRegLHS = make(map[nemde.OfferKey]solver.VarID)
	m.cvFCASMaxAvail = make(map[nemde.OfferKey]solver.VarID)
	m.cvEnablementMin = make(map[nemde.OfferKey]solver.VarID)
	m.cvEnablementMax = make(map[nemde.OfferKey]solver.VarID)
	for _, k := range in.TraderFCASOffers {
		m.cvJointRampUp[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_JOINT_RAMPING_UP[%s,%s]", k.TraderID, k.TradeType))
		m.cvJointRampDown[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_JOINT_RAMPING_DOWN[%s,%s]", k.TraderID, k.TradeType))
		m.cvJointCapRHS[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_JOINT_CAPACITY_RHS[%s,%s]", k.TraderID, k.TradeType))
		m.cvJointCapLHS[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_JOINT_CAPACITY_LHS[%s,%s]", k.TraderID, k.TradeType))
		m.cvEnergyRegRHS[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_ENERGY_REGULATING_RHS[%s,%s]", k.TraderID, k.TradeType))
		m.cvEnergyRegLHS[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_ENERGY_REGULATING_LHS[%s,%s]", k.TraderID, k.TradeType))
		m.cvFCASMaxAvail[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_MAX_AVAILABLE[%s,%s]", k.TraderID, k.TradeType))
		m.cvEnablementMin[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_ENABLEMENT_MIN[%s,%s]", k.TraderID, k.TradeType))
		m.cvEnablementMax[k] = p.AddNonNegVar(fmt.Sprintf("V_CV_TRADER_FCAS_ENABLEMENT_MAX[%s,%s]", k.TraderID, k.TradeType))
	}

	m.cvInflexProfile = make(map[string]solver.VarID)
	m.cvInflexLHS = make(map[string]solver.VarID)
	m.cvInflexRHS = make(map[string]solver.VarID)
	for _, id := range in.FastStartTraders {
		m.cvInflexProfile[id] = p.AddNonNegVar("V_CV_TRADER_INFLEXIBILITY_PROFILE[" + id + "]")
		m.cvInflexLHS[id] = p.AddNonNegVar("V_CV_TRADER_INFLEXIBILITY_PROFILE_LHS[" + id + "]")
		m.cvInflexRHS[id] = p.AddNonNegVar("V_CV_TRADER_INFLEXIBILITY_PROFILE_RHS[" + id + "]")
	}

	m.cvRegionSurplus = make(map[string]solver.VarID)
	m.cvRegionDeficit = make(map[string]solver.VarID)
	for _, id := range in.Regions {
		m.cvRegionSurplus[id] = p.AddNonNegVar("V_CV_REGION_GENERATION_SURPLUS[" + id + "]")
		m.cvRegionDeficit[id] = p.AddNonNegVar("V_CV_REGION_GENERATION_DEFICIT[" + id + "]")
	}

	m.tieBreakGenUp = make(map[nemde.TieBreakPair]solver.VarID)
	m.tieBreakGenDown = make(map[nemde.TieBreakPair]solver.VarID)
	for _, pair := range in.PriceTiedGenerators {
		m.tieBreakGenUp[pair] = p.AddNonNegVar(tieBreakName("V_TRADER_SLACK_1_GENERATOR", pair))
		m.tieBreakGenDown[pair] = p.AddNonNegVar(tieBreakName("V_TRADER_SLACK_2_GENERATOR", pair))
	}
	m.tieBreakLoadUp = make(map[nemde.TieBreakPair]solver.VarID)
	m.tieBreakLoadDown = make(map[nemde.TieBreakPair]solver.VarID)
	for _, pair := range in.PriceTiedLoads {
		m.tieBreakLoadUp[pair] = p.AddNonNegVar(tieBreakName("V_TRADER_SLACK_1_LOAD", pair))
		m.tieBreakLoadDown[pair] = p.AddNonNegVar(tieBreakName("V_TRADER_SLACK_2_LOAD", pair))
	}
}

func tieBreakName(prefix string, pair nemde.TieBreakPair) string {
	return fmt.Sprintf("%s[%s,%s,%d,%s,%s,%d]", prefix,
		pair.A.TraderID, pair.A.TradeType, pair.A.Band,
		pair.B.TraderID, pair.B.TradeType, pair.B.Band)
}
