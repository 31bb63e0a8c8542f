// Copyright (c) 2024 Akxen Labs

package model

import (
	"fmt"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

func (m *Model) defineExpressions() error {
	if err := m.defineRegionParameters(); err != nil {
		return err
	}
	if err := m.defineMNSPExpressions(); err != nil {
		return err
	}
	if err := m.defineRegionExpressions(); err != nil {
		return err
	}
	m.defineGenericConstraintExpressions()
	m.defineEffectiveEnablement()
	m.defineTotalPenalty()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Parameter-only region accounting. Fixed demand is known before the solve:
// it depends only on initial conditions and the initial loss estimates.

// initialScheduledLoad sums InitialMW over non-semi-dispatch loads in a
// region.
func (m *Model) initialScheduledLoad(region string) float64 {
	in := m.in
	total := 0.0
	for _, k := range in.TraderOffers {
		if k.TradeType != nemde.TradeType_LDOF {
			continue
		}
		if in.TraderRegion[k.TraderID] != region || in.TraderSemiDispatch[k.TraderID] {
			continue
		}
		total += in.TraderInitialMW[k.TraderID]
	}
	return total
}

// initialAllocatedLoss allocates the initial loss estimates to a region:
// MNSP losses go to the sending end (by initial flow direction), non-MNSP
// losses split by loss share.
func (m *Model) initialAllocatedLoss(region string) (float64, error) {
	in := m.in
	total := 0.0
	for _, id := range in.Interconnectors {
		fromRegion := in.InterconnectorFromRegion[id]
		toRegion := in.InterconnectorToRegion[id]
		if region != fromRegion && region != toRegion {
			continue
		}
		loss := in.InterconnectorInitialLoss[id]
		lossShare := in.InterconnectorLossShare[id]
		initialMW := in.InterconnectorInitialMW[id]
		mnsp := in.InterconnectorMNSP[id]

		switch {
		case region == fromRegion && mnsp && initialMW >= 0:
			total += loss
		case region == fromRegion && mnsp && initialMW < 0:
			// Sending end is the to-region; nothing allocated here.
		case region == fromRegion && !mnsp:
			total += loss * lossShare
		case region == toRegion && mnsp && initialMW >= 0:
			// Sending end is the from-region; nothing allocated here.
		case region == toRegion && mnsp && initialMW < 0:
			total += loss
		case region == toRegion && !mnsp:
			total += loss * (1 - lossShare)
		default:
			return 0, fmt.Errorf("%w: region %s interconnector %s", nemde.ErrUnhandledRegionAlloc, region, id)
		}
	}
	return total, nil
}

// initialMNSPLoss estimates the MNSP connection-point loss allocated to a
// region before the solve, keyed off InitialMW as the direction proxy.
// DeltaLoss = (MLF - 1) x connection point flow.
func (m *Model) initialMNSPLoss(region string) (float64, error) {
	in := m.in
	total := 0.0
	for _, id := range in.MNSPs {
		fromRegion := in.InterconnectorFromRegion[id]
		toRegion := in.InterconnectorToRegion[id]
		if region != fromRegion && region != toRegion {
			continue
		}
		initialMW := in.InterconnectorInitialMW[id]
		loss := in.InterconnectorInitialLoss[id]

		switch {
		case region == fromRegion && initialMW >= 0:
			exportFlow := initialMW + loss
			total += (in.MNSPFromRegionLFExport[id] - 1) * exportFlow
		case region == fromRegion && initialMW < 0:
			total += (in.MNSPFromRegionLFImport[id] - 1) * initialMW
		case region == toRegion && initialMW >= 0:
			total += (in.MNSPToRegionLFImport[id] - 1) * initialMW * -1
		case region == toRegion && initialMW < 0:
			exportFlow := initialMW - loss
			total += (in.MNSPToRegionLFExport[id] - 1) * exportFlow * -1
		default:
			return 0, fmt.Errorf("%w: region %s MNSP %s", nemde.ErrUnhandledRegionAlloc, region, id)
		}
	}
	return total, nil
}

// defineRegionParameters computes FixedDemand per region:
// InitialDemand + ADE + DF - InitialScheduledLoad - InitialAllocatedLoss
// - InitialMNSPLoss.
func (m *Model) defineRegionParameters() error {
	in := m.in
	m.fixedDemand = make(map[string]float64, len(in.Regions))
	for _, region := range in.Regions {
		allocatedLoss, err := m.initialAllocatedLoss(region)
		if err != nil {
			return err
		}
		mnspLoss, err := m.initialMNSPLoss(region)
		if err != nil {
			return err
		}
		m.fixedDemand[region] = in.RegionInitialDemand[region] +
			in.RegionADE[region] +
			in.RegionDF[region] -
			m.initialScheduledLoad(region) -
			allocatedLoss -
			mnspLoss
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// MNSP loss expressions

func (m *Model) defineMNSPExpressions() error {
	in := m.in
	m.eMNSPFromCPFlow = make(map[string]*solver.Expr)
	m.eMNSPToCPFlow = make(map[string]*solver.Expr)
	m.eMNSPFromRegionLoss = make(map[string]*solver.Expr)
	m.eMNSPToRegionLoss = make(map[string]*solver.Expr)

	for _, id := range in.MNSPs {
		fromRegion := in.InterconnectorFromRegion[id]
		toRegion := in.InterconnectorToRegion[id]
		indicator := in.MNSPRegionLossIndicator[id]

		// Net flow at each connection point: losses are added at whichever
		// end the loss indicator assigns them to.
		fromCP := solver.NewExpr().
			AddTerm(1, m.gcInterconnector[id]).
			AddTerm(indicator[fromRegion], m.loss[id])
		toCP := solver.NewExpr().
			AddTerm(1, m.gcInterconnector[id]).
			AddTerm(-indicator[toRegion], m.loss[id])
		m.eMNSPFromCPFlow[id] = fromCP
		m.eMNSPToCPFlow[id] = toCP

		// Region-allocated loss from the MLF identity
		// DeltaLoss = (MLF-1) x connection point flow.
		m.eMNSPFromRegionLoss[id] = solver.NewExpr().
			AddTerm(in.MNSPFromRegionLFExport[id]-1, m.mnspFromExport[id]).
			AddTerm(in.MNSPFromRegionLFImport[id]-1, m.mnspFromImport[id])
		m.eMNSPToRegionLoss[id] = solver.NewExpr().
			AddTerm(-(in.MNSPToRegionLFExport[id]-1), m.mnspToExport[id]).
			AddTerm(-(in.MNSPToRegionLFImport[id] - 1), m.mnspToImport[id])
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Region aggregate expressions

func (m *Model) defineRegionExpressions() error {
	in := m.in
	m.eDispatchedGeneration = make(map[string]*solver.Expr)
	m.eDispatchedLoad = make(map[string]*solver.Expr)
	m.eAllocatedLoss = make(map[string]*solver.Expr)
	m.eMNSPLoss = make(map[string]*solver.Expr)
	m.eInterconnectorExport = make(map[string]*solver.Expr)
	m.eNetExport = make(map[string]*solver.Expr)
	m.eClearedDemand = make(map[string]*solver.Expr)

	for _, region := range in.Regions {
		generation := solver.NewExpr()
		load := solver.NewExpr()
		for _, k := range in.TraderOffers {
			if in.TraderRegion[k.TraderID] != region {
				continue
			}
			switch k.TradeType {
			case nemde.TradeType_ENOF:
				generation.AddTerm(1, m.traderTotal[k])
			case nemde.TradeType_LDOF:
				load.AddTerm(1, m.traderTotal[k])
			}
		}
		m.eDispatchedGeneration[region] = generation
		m.eDispatchedLoad[region] = load

		allocatedLoss := solver.NewExpr()
		export := solver.NewExpr()
		for _, id := range in.Interconnectors {
			fromRegion := in.InterconnectorFromRegion[id]
			toRegion := in.InterconnectorToRegion[id]
			if region != fromRegion && region != toRegion {
				continue
			}
			lossShare := in.InterconnectorLossShare[id]
			initialMW := in.InterconnectorInitialMW[id]
			mnsp := in.InterconnectorMNSP[id]

			switch {
			case region == fromRegion && mnsp && initialMW >= 0:
				allocatedLoss.AddTerm(1, m.loss[id])
			case region == fromRegion && mnsp && initialMW < 0:
				// Loss rides with the to-region.
			case region == fromRegion && !mnsp:
				allocatedLoss.AddTerm(lossShare, m.loss[id])
			case region == toRegion && mnsp && initialMW >= 0:
				// Loss rides with the from-region.
			case region == toRegion && mnsp && initialMW < 0:
				allocatedLoss.AddTerm(1, m.loss[id])
			case region == toRegion && !mnsp:
				allocatedLoss.AddTerm(1-lossShare, m.loss[id])
			default:
				return fmt.Errorf("%w: region %s interconnector %s", nemde.ErrUnhandledRegionAlloc, region, id)
			}

			// Positive flow exports from the from-region and imports to the
			// to-region.
			if region == fromRegion {
				export.AddTerm(1, m.gcInterconnector[id])
			} else {
				export.AddTerm(-1, m.gcInterconnector[id])
			}
		}
		m.eAllocatedLoss[region] = allocatedLoss
		m.eInterconnectorExport[region] = export

		mnspLoss := solver.NewExpr()
		for _, id := range in.MNSPs {
			switch region {
			case in.InterconnectorFromRegion[id]:
				mnspLoss.AddExpr(1, m.eMNSPFromRegionLoss[id])
			case in.InterconnectorToRegion[id]:
				mnspLoss.AddExpr(1, m.eMNSPToRegionLoss[id])
			}
		}
		m.eMNSPLoss[region] = mnspLoss

		netExport := solver.NewExpr().
			AddExpr(1, export).
			AddExpr(1, allocatedLoss).
			AddExpr(1, mnspLoss)
		m.eNetExport[region] = netExport

		clearedDemand := solver.NewExpr().
			AddConst(m.fixedDemand[region]).
			AddExpr(1, allocatedLoss).
			AddExpr(1, load).
			AddExpr(1, mnspLoss)
		m.eClearedDemand[region] = clearedDemand
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Generic constraint LHS expressions

// defineGenericConstraintExpressions forms each constraint's LHS over the
// linkage variables. Factors naming entities outside the variable set are
// skipped when forming the expression.
func (m *Model) defineGenericConstraintExpressions() {
	in := m.in
	m.eGCLHS = make(map[string]*solver.Expr, len(in.GenericConstraints))
	for _, id := range in.GenericConstraints {
		terms, ok := in.GCLHS[id]
		if !ok {
			continue
		}
		lhs := solver.NewExpr()
		for k, factor := range terms.Traders {
			if v, ok := m.gcTrader[k]; ok {
				lhs.AddTerm(factor, v)
			}
		}
		for icID, factor := range terms.Interconnectors {
			if v, ok := m.gcInterconnector[icID]; ok {
				lhs.AddTerm(factor, v)
			}
		}
		for k, factor := range terms.Regions {
			if v, ok := m.gcRegion[k]; ok {
				lhs.AddTerm(factor, v)
			}
		}
		m.eGCLHS[id] = lhs
	}
}

///////////////////////////////////////////////////////////////////////////////
// Effective regulation enablement bounds

// defineEffectiveEnablement computes, for regulation offers, the effective
// EnablementMax = min(EnablementMax, HMW, UIGF) and effective
// EnablementMin = max(EnablementMin, LMW).
func (m *Model) defineEffectiveEnablement() {
	in := m.in
	m.effEnablementMax = make(map[nemde.OfferKey]float64)
	m.effEnablementMin = make(map[nemde.OfferKey]float64)
	for _, k := range in.TraderFCASOffers {
		if !k.TradeType.IsRegulation() {
			continue
		}
		trap := in.FCASTrapezium[k]

		maxCap := trap.EnablementMax
		if hmw, ok := in.TraderHMW[k.TraderID]; ok && hmw < maxCap {
			maxCap = hmw
		}
		if in.TraderSemiDispatch[k.TraderID] {
			if uigf, ok := in.TraderUIGF[k.TraderID]; ok && uigf < maxCap {
				maxCap = uigf
			}
		}
		m.effEnablementMax[k] = maxCap

		minCap := trap.EnablementMin
		if lmw, ok := in.TraderLMW[k.TraderID]; ok && lmw > minCap {
			minCap = lmw
		}
		m.effEnablementMin[k] = minCap
	}
}

///////////////////////////////////////////////////////////////////////////////
// Violation penalty expression

// defineTotalPenalty prices every violation variable into one expression.
func (m *Model) defineTotalPenalty() {
	in := m.in
	cvf := in.CVF
	penalty := solver.NewExpr()

	for _, id := range in.GenericConstraints {
		price := in.GCCVF[id]
		penalty.AddTerm(price, m.cvGC[id])
		penalty.AddTerm(price, m.cvGCLHS[id])
		penalty.AddTerm(price, m.cvGCRHS[id])
	}
	for _, k := range in.TraderOffers {
		for band := 1; band <= nemde.NumBands; band++ {
			penalty.AddTerm(cvf.OfferPrice, m.cvTraderOffer[nemde.BandKey{TraderID: k.TraderID, TradeType: k.TradeType, Band: band}])
		}
		penalty.AddTerm(cvf.CapacityPrice, m.cvTraderCapacity[k])
		penalty.AddTerm(cvf.UIGFSurplusPrice, m.cvTraderUIGF[k])
	}
	for _, id := range in.Traders {
		penalty.AddTerm(cvf.RampRatePrice, m.cvRampUp[id])
		penalty.AddTerm(cvf.RampRatePrice, m.cvRampDown[id])
	}
	for _, k := range in.TraderFCASOffers {
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvJointRampUp[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvJointRampDown[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvJointCapRHS[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvJointCapLHS[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvEnergyRegRHS[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvEnergyRegLHS[k])
		penalty.AddTerm(cvf.ASMaxAvailPrice, m.cvFCASMaxAvail[k])
		penalty.AddTerm(cvf.ASEnablementMinPrice, m.cvEnablementMin[k])
		penalty.AddTerm(cvf.ASEnablementMaxPrice, m.cvEnablementMax[k])
	}
	for _, id := range in.FastStartTraders {
		penalty.AddTerm(cvf.FastStartPrice, m.cvInflexProfile[id])
		penalty.AddTerm(cvf.FastStartPrice, m.cvInflexLHS[id])
		penalty.AddTerm(cvf.FastStartPrice, m.cvInflexRHS[id])
	}
	for _, k := range in.MNSPOffers {
		for band := 1; band <= nemde.NumBands; band++ {
			penalty.AddTerm(cvf.MNSPOfferPrice, m.cvMNSPOffer[nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}])
		}
		penalty.AddTerm(cvf.MNSPCapacityPrice, m.cvMNSPCapacity[k])
		penalty.AddTerm(cvf.MNSPRampRatePrice, m.cvMNSPRampUp[k])
		penalty.AddTerm(cvf.MNSPRampRatePrice, m.cvMNSPRampDown[k])
	}
	for _, id := range in.Interconnectors {
		penalty.AddTerm(cvf.InterconnectorPrice, m.cvICForward[id])
		penalty.AddTerm(cvf.InterconnectorPrice, m.cvICReverse[id])
	}
	for _, id := range in.Regions {
		penalty.AddTerm(cvf.EnergySurplusPrice, m.cvRegionSurplus[id])
		penalty.AddTerm(cvf.EnergyDeficitPrice, m.cvRegionDeficit[id])
	}
	m.eTotalPenalty = penalty
}
