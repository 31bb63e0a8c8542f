// Copyright (c) 2024 Akxen Labs

package model

import (
	"fmt"

	"github.com/akxen/nemde-go"
	"github.com/akxen/nemde-go/solver"
)

///////////////////////////////////////////////////////////////////////////////

func (m *Model) defineConstraints() error {
	m.defineOfferConstraints()
	if err := m.defineGenericConstraints(); err != nil {
		return err
	}
	if err := m.defineUnitConstraints(); err != nil {
		return err
	}
	m.defineRegionConstraints()
	m.defineInterconnectorConstraints()
	m.defineMNSPConstraints()
	if err := m.defineFCASConstraints(); err != nil {
		return err
	}
	m.defineLossModelConstraints()
	if err := m.defineFastStartConstraints(); err != nil {
		return err
	}
	m.defineTieBreakingConstraints()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Offer constraints

func (m *Model) defineOfferConstraints() {
	in := m.in
	p := m.p

	for _, k := range in.TraderOffers {
		// Band outputs sum to the total offer.
		total := solver.Term(1, m.traderTotal[k])
		for band := 1; band <= nemde.NumBands; band++ {
			total.AddTerm(-1, m.traderOffer[nemde.BandKey{TraderID: k.TraderID, TradeType: k.TradeType, Band: band}])
		}
		p.AddConstraint(fmt.Sprintf("C_TRADER_TOTAL_OFFER[%s,%s]", k.TraderID, k.TradeType), total, solver.OpEQ, 0)

		// Each band stays within its bid amount.
		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.BandKey{TraderID: k.TraderID, TradeType: k.TradeType, Band: band}
			lhs := solver.Term(1, m.traderOffer[bk]).AddTerm(-1, m.cvTraderOffer[bk])
			p.AddConstraint(fmt.Sprintf("C_TRADER_OFFER[%s,%s,%d]", k.TraderID, k.TradeType, band),
				lhs, solver.OpLE, in.TraderQuantityBand[bk])
		}

		// The total stays within MaxAvail; UIGF caps semi-dispatch energy.
		if in.TraderSemiDispatch[k.TraderID] && k.TradeType == nemde.TradeType_ENOF {
			uigf, ok := in.TraderUIGF[k.TraderID]
			if ok {
				lhs := solver.Term(1, m.traderTotal[k]).AddTerm(-1, m.cvTraderUIGF[k])
				p.AddConstraint(fmt.Sprintf("C_TRADER_CAPACITY[%s,%s]", k.TraderID, k.TradeType),
					lhs, solver.OpLE, uigf)
				continue
			}
		}
		lhs := solver.Term(1, m.traderTotal[k]).AddTerm(-1, m.cvTraderCapacity[k])
		p.AddConstraint(fmt.Sprintf("C_TRADER_CAPACITY[%s,%s]", k.TraderID, k.TradeType),
			lhs, solver.OpLE, in.TraderMaxAvail[k])
	}

	for _, k := range in.MNSPOffers {
		total := solver.Term(1, m.mnspTotal[k])
		for band := 1; band <= nemde.NumBands; band++ {
			total.AddTerm(-1, m.mnspOffer[nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}])
		}
		p.AddConstraint(fmt.Sprintf("C_MNSP_TOTAL_OFFER[%s,%s]", k.InterconnectorID, k.RegionID), total, solver.OpEQ, 0)

		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}
			lhs := solver.Term(1, m.mnspOffer[bk]).AddTerm(-1, m.cvMNSPOffer[bk])
			p.AddConstraint(fmt.Sprintf("C_MNSP_OFFER[%s,%s,%d]", k.InterconnectorID, k.RegionID, band),
				lhs, solver.OpLE, in.MNSPQuantityBand[bk])
		}

		lhs := solver.Term(1, m.mnspTotal[k]).AddTerm(-1, m.cvMNSPCapacity[k])
		p.AddConstraint(fmt.Sprintf("C_MNSP_CAPACITY[%s,%s]", k.InterconnectorID, k.RegionID),
			lhs, solver.OpLE, in.MNSPMaxAvail[k])
	}
}

///////////////////////////////////////////////////////////////////////////////
// Generic constraints and linkage

func (m *Model) defineGenericConstraints() error {
	in := m.in
	p := m.p

	// Trader linkage. The GC trader index may name offers outside the
	// trader-offer index; those get no linking constraint.
	for _, k := range in.GCTraderVars {
		totalVar, ok := m.traderTotal[k]
		if !ok {
			continue
		}
		lhs := solver.Term(1, totalVar).AddTerm(-1, m.gcTrader[k])
		p.AddConstraint(fmt.Sprintf("C_TRADER_VARIABLE_LINK[%s,%s]", k.TraderID, k.TradeType),
			lhs, solver.OpEQ, 0)
	}

	// Region linkage: the region variable equals the sum of in-region total
	// offers of that trade type.
	for _, k := range in.GCRegionVars {
		lhs := solver.Term(-1, m.gcRegion[k])
		for _, offer := range in.TraderOffers {
			if offer.TradeType == k.TradeType && in.TraderRegion[offer.TraderID] == k.RegionID {
				lhs.AddTerm(1, m.traderTotal[offer])
			}
		}
		p.AddConstraint(fmt.Sprintf("C_REGION_VARIABLE_LINK[%s,%s]", k.RegionID, k.TradeType),
			lhs, solver.OpEQ, 0)
	}

	// MNSP linkage: flow is the to-region offer net of the from-region
	// offer.
	for _, id := range in.MNSPs {
		fromKey := nemde.MNSPOfferKey{InterconnectorID: id, RegionID: in.InterconnectorFromRegion[id]}
		toKey := nemde.MNSPOfferKey{InterconnectorID: id, RegionID: in.InterconnectorToRegion[id]}
		toVar, okTo := m.mnspTotal[toKey]
		fromVar, okFrom := m.mnspTotal[fromKey]
		if !okTo || !okFrom {
			return fmt.Errorf("%w: MNSP %s missing endpoint offers", nemde.ErrCasefileValue, id)
		}
		lhs := solver.Term(1, m.gcInterconnector[id]).AddTerm(-1, toVar).AddTerm(1, fromVar)
		p.AddConstraint("C_MNSP_VARIABLE_LINK["+id+"]", lhs, solver.OpEQ, 0)
	}

	// The generic constraints themselves.
	for _, id := range in.GenericConstraints {
		lhs, ok := m.eGCLHS[id]
		if !ok {
			continue
		}
		rhs := in.GCRHS[id]
		switch in.GCType[id] {
		case nemde.ConstraintType_LE:
			e := solver.NewExpr().AddExpr(1, lhs).AddTerm(-1, m.cvGC[id])
			p.AddConstraint("C_GENERIC_CONSTRAINT["+id+"]", e, solver.OpLE, rhs)
		case nemde.ConstraintType_GE:
			e := solver.NewExpr().AddExpr(1, lhs).AddTerm(1, m.cvGC[id])
			p.AddConstraint("C_GENERIC_CONSTRAINT["+id+"]", e, solver.OpGE, rhs)
		case nemde.ConstraintType_EQ:
			e := solver.NewExpr().AddExpr(1, lhs).AddTerm(1, m.cvGCLHS[id]).AddTerm(-1, m.cvGCRHS[id])
			p.AddConstraint("C_GENERIC_CONSTRAINT["+id+"]", e, solver.OpEQ, rhs)
		default:
			return fmt.Errorf("%w: constraint %s type %q", nemde.ErrCasefileValue, id, in.GCType[id])
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Unit ramping constraints

func (m *Model) defineUnitConstraints() error {
	in := m.in
	p := m.p

	for _, k := range in.TraderEnergyOffers {
		traderID := k.TraderID
		rampUp, hasRampUp := in.TraderRampUpRate[traderID]
		mode, hasMode := in.FastStartCurrentMode[traderID]
		modeTime, hasModeTime := in.FastStartCurrentModeTime[traderID]

		if hasRampUp {
			switch {
			case hasMode && hasModeTime && mode == 1:
				// Unit synchronising: capability comes from the startup
				// trajectory, with InitialMW pinned at zero.
				profile := m.fastStartProfile(traderID, int(mode), modeTime)
				capability := profile.ModeOneRampCapability(rampUp)
				lhs := solver.Term(1, m.traderTotal[k]).AddTerm(-1, m.cvRampUp[traderID])
				p.AddConstraint("C_TRADER_RAMP_UP_RATE["+traderID+"]", lhs, solver.OpLE, capability)

			case hasMode && hasModeTime && mode == 2:
				// Unit on the startup trajectory: reconstruct InitialMW from
				// the profile rather than SCADA.
				profile := m.fastStartProfile(traderID, int(mode), modeTime)
				initialMW := profile.ModeTwoInitialMW()
				capability := profile.ModeTwoRampCapability(rampUp)
				lhs := solver.Term(1, m.traderTotal[k]).AddTerm(-1, m.cvRampUp[traderID])
				p.AddConstraint("C_TRADER_RAMP_UP_RATE["+traderID+"]", lhs, solver.OpLE, initialMW+capability)

			default:
				lhs := solver.Term(1, m.traderTotal[k]).AddTerm(-1, m.cvRampUp[traderID])
				p.AddConstraint("C_TRADER_RAMP_UP_RATE["+traderID+"]", lhs, solver.OpLE,
					in.TraderInitialMW[traderID]+rampUp/nemde.RampRatePerInterval)
			}
		}

		if rampDown, ok := in.TraderRampDownRate[traderID]; ok {
			lhs := solver.Term(1, m.traderTotal[k]).AddTerm(1, m.cvRampDown[traderID])
			p.AddConstraint("C_TRADER_RAMP_DOWN_RATE["+traderID+"]", lhs, solver.OpGE,
				in.TraderInitialMW[traderID]-rampDown/nemde.RampRatePerInterval)
		}
	}
	return nil
}

func (m *Model) fastStartProfile(traderID string, mode int, modeTime float64) nemde.FastStartProfile {
	in := m.in
	return nemde.FastStartProfile{
		MinLoadingMW:    in.FastStartMinLoading[traderID],
		CurrentMode:     mode,
		CurrentModeTime: modeTime,
		T1:              in.FastStartT1[traderID],
		T2:              in.FastStartT2[traderID],
		T3:              in.FastStartT3[traderID],
		T4:              in.FastStartT4[traderID],
	}
}

///////////////////////////////////////////////////////////////////////////////
// Region power balance

func (m *Model) defineRegionConstraints() {
	for _, region := range m.in.Regions {
		// DispatchedGeneration + Deficit
		//   = FixedDemand + DispatchedLoad + NetExport + Surplus
		lhs := solver.NewExpr().
			AddExpr(1, m.eDispatchedGeneration[region]).
			AddTerm(1, m.cvRegionDeficit[region]).
			AddExpr(-1, m.eDispatchedLoad[region]).
			AddExpr(-1, m.eNetExport[region]).
			AddTerm(-1, m.cvRegionSurplus[region])
		m.p.AddConstraint("C_POWER_BALANCE["+region+"]", lhs, solver.OpEQ, m.fixedDemand[region])
	}
}

///////////////////////////////////////////////////////////////////////////////
// Interconnector flow limits

func (m *Model) defineInterconnectorConstraints() {
	in := m.in
	for _, id := range in.Interconnectors {
		forward := solver.Term(1, m.gcInterconnector[id]).AddTerm(-1, m.cvICForward[id])
		m.p.AddConstraint("C_INTERCONNECTOR_FORWARD_FLOW["+id+"]", forward, solver.OpLE,
			in.InterconnectorUpperLimit[id])

		reverse := solver.Term(1, m.gcInterconnector[id]).AddTerm(1, m.cvICReverse[id])
		m.p.AddConstraint("C_INTERCONNECTOR_REVERSE_FLOW["+id+"]", reverse, solver.OpGE,
			-in.InterconnectorLowerLimit[id])
	}
}

///////////////////////////////////////////////////////////////////////////////
// SOS2 loss model

// defineLossModelConstraints encodes the piecewise-linear loss curve: the
// lambdas interpolate both flow and loss over the breakpoints, exactly one
// interval binary is active, and lambdas outside the active interval's two
// endpoints are forced to zero.
func (m *Model) defineLossModelConstraints() {
	in := m.in
	p := m.p

	for _, id := range in.Interconnectors {
		breakpoints := in.InterconnectorLossBreakpoints[id]
		lambdas := m.lossLambda[id]
		ys := m.lossY[id]

		// Loss equals the lambda-weighted breakpoint losses.
		loss := solver.Term(1, m.loss[id])
		for j, bp := range breakpoints {
			loss.AddTerm(-bp.Y, lambdas[j])
		}
		p.AddConstraint("C_APPROXIMATED_LOSS["+id+"]", loss, solver.OpEQ, 0)

		// Flow equals the lambda-weighted breakpoint flows.
		flow := solver.Term(1, m.gcInterconnector[id])
		for j, bp := range breakpoints {
			flow.AddTerm(-bp.X, lambdas[j])
		}
		p.AddConstraint("C_SOS2_CONDITION_1["+id+"]", flow, solver.OpEQ, 0)

		// Lambdas form a convex combination.
		lambdaSum := solver.NewExpr()
		for _, l := range lambdas {
			lambdaSum.AddTerm(1, l)
		}
		p.AddConstraint("C_SOS2_CONDITION_2["+id+"]", lambdaSum, solver.OpEQ, 1)

		if len(ys) == 0 {
			continue
		}

		// Exactly one interval is active.
		ySum := solver.NewExpr()
		for _, y := range ys {
			ySum.AddTerm(1, y)
		}
		p.AddConstraint("C_SOS2_CONDITION_3["+id+"]", ySum, solver.OpEQ, 1)

		// Endpoint lambdas activate only with their single adjacent
		// interval; interior lambdas with either neighbour.
		last := len(lambdas) - 1
		for j := range lambdas {
			link := solver.Term(1, lambdas[j])
			switch j {
			case 0:
				link.AddTerm(-1, ys[0])
			case last:
				link.AddTerm(-1, ys[last-1])
			default:
				link.AddTerm(-1, ys[j-1]).AddTerm(-1, ys[j])
			}
			p.AddConstraint(fmt.Sprintf("C_SOS2_ADJACENCY[%s,%d]", id, j), link, solver.OpLE, 0)
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// Fast-start inflexibility profile

func (m *Model) defineFastStartConstraints() error {
	in := m.in
	p := m.p

	for _, traderID := range in.FastStartTraders {
		mode, hasMode := in.FastStartCurrentMode[traderID]
		modeTime, hasModeTime := in.FastStartCurrentModeTime[traderID]
		if !hasMode || !hasModeTime {
			continue
		}
		energyType, err := in.EnergyOfferType(traderID)
		if err != nil {
			return err
		}
		totalVar, ok := m.traderTotal[nemde.OfferKey{TraderID: traderID, TradeType: energyType}]
		if !ok {
			continue
		}

		profile := m.fastStartProfile(traderID, int(mode), modeTime)
		effectiveMode, err := profile.EffectiveMode()
		if err != nil {
			return err
		}
		effectiveTime, err := profile.EffectiveModeTime()
		if err != nil {
			return err
		}

		name := "C_TRADER_INFLEXIBILITY_PROFILE[" + traderID + "]"
		switch {
		case effectiveMode <= 1:
			// Synchronising: output pinned to zero.
			lhs := solver.Term(1, totalVar).
				AddTerm(1, m.cvInflexLHS[traderID]).
				AddTerm(-1, m.cvInflexRHS[traderID])
			p.AddConstraint(name, lhs, solver.OpEQ, 0)

		case effectiveMode == 2:
			// On the startup trajectory: output fixed to the profile.
			startup := (profile.MinLoadingMW / profile.T2) * effectiveTime
			lhs := solver.Term(1, totalVar).
				AddTerm(1, m.cvInflexLHS[traderID]).
				AddTerm(-1, m.cvInflexRHS[traderID])
			p.AddConstraint(name, lhs, solver.OpEQ, startup)

		case effectiveMode == 3:
			lhs := solver.Term(1, totalVar).AddTerm(1, m.cvInflexProfile[traderID])
			p.AddConstraint(name, lhs, solver.OpGE, profile.MinLoadingMW)

		case effectiveMode == 4 && effectiveTime < profile.T4:
			// Output still floor-bounded while the profile decays to zero.
			floor := profile.MinLoadingMW * (1 - effectiveTime/profile.T4)
			lhs := solver.Term(1, totalVar).AddTerm(1, m.cvInflexProfile[traderID])
			p.AddConstraint(name, lhs, solver.OpGE, floor)

		default:
			lhs := solver.Term(1, totalVar).AddTerm(1, m.cvInflexProfile[traderID])
			p.AddConstraint(name, lhs, solver.OpGE, 0)
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Tie-breaking

func (m *Model) defineTieBreakingConstraints() {
	in := m.in
	p := m.p

	addPair := func(pair nemde.TieBreakPair, up, down solver.VarID, name string) {
		qa := in.TraderQuantityBand[pair.A]
		qb := in.TraderQuantityBand[pair.B]
		if qa == 0 || qb == 0 {
			return
		}
		lhs := solver.NewExpr().
			AddTerm(1/qa, m.traderOffer[pair.A]).
			AddTerm(-1/qb, m.traderOffer[pair.B]).
			AddTerm(-1, up).
			AddTerm(1, down)
		p.AddConstraint(name, lhs, solver.OpEQ, 0)
	}
	for _, pair := range in.PriceTiedGenerators {
		addPair(pair, m.tieBreakGenUp[pair], m.tieBreakGenDown[pair],
			tieBreakName("C_TRADER_TIE_BREAK_GENERATORS", pair))
	}
	for _, pair := range in.PriceTiedLoads {
		addPair(pair, m.tieBreakLoadUp[pair], m.tieBreakLoadDown[pair],
			tieBreakName("C_TRADER_TIE_BREAK_LOADS", pair))
	}
}

///////////////////////////////////////////////////////////////////////////////
// Objective

// defineObjective minimizes as-bid cost (loads negated) plus MNSP cost,
// violation penalties, and the tie-break cost.
func (m *Model) defineObjective() {
	in := m.in
	p := m.p

	for _, k := range in.TraderOffers {
		sign := 1.0
		if k.TradeType == nemde.TradeType_LDOF {
			sign = -1.0
		}
		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.BandKey{TraderID: k.TraderID, TradeType: k.TradeType, Band: band}
			p.AddObjectiveTerm(sign*in.TraderPriceBand[bk], m.traderOffer[bk])
		}
	}
	for _, k := range in.MNSPOffers {
		for band := 1; band <= nemde.NumBands; band++ {
			bk := nemde.MNSPBandKey{InterconnectorID: k.InterconnectorID, RegionID: k.RegionID, Band: band}
			p.AddObjectiveTerm(in.MNSPPriceBand[bk], m.mnspOffer[bk])
		}
	}

	p.AddObjective(m.eTotalPenalty)

	for _, pair := range in.PriceTiedGenerators {
		p.AddObjectiveTerm(nemde.TieBreakObjectiveCoefficient, m.tieBreakGenUp[pair])
		p.AddObjectiveTerm(nemde.TieBreakObjectiveCoefficient, m.tieBreakGenDown[pair])
	}
	for _, pair := range in.PriceTiedLoads {
		p.AddObjectiveTerm(nemde.TieBreakObjectiveCoefficient, m.tieBreakLoadUp[pair])
		p.AddObjectiveTerm(nemde.TieBreakObjectiveCoefficient, m.tieBreakLoadDown[pair])
	}
}
