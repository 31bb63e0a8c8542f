// Copyright (c) 2024 Akxen Labs

// Package analysis recomputes region demand and loss accounting directly
// from casefile inputs and a solved dispatch, independently of the model's
// own expressions. Used by tests to verify the power-balance invariants.
package analysis

import (
	"github.com/akxen/nemde-go"
)

///////////////////////////////////////////////////////////////////////////////

// solvedFlows indexes an interconnector solution by id.
func solvedFlows(sol *nemde.Solution) map[string]nemde.InterconnectorSolution {
	out := make(map[string]nemde.InterconnectorSolution, len(sol.InterconnectorSolution))
	for _, ic := range sol.InterconnectorSolution {
		out[ic.InterconnectorID] = ic
	}
	return out
}

// traderTargets indexes a trader solution by id.
func traderTargets(sol *nemde.Solution) map[string]nemde.TraderSolution {
	out := make(map[string]nemde.TraderSolution, len(sol.TraderSolution))
	for _, t := range sol.TraderSolution {
		out[t.TraderID] = t
	}
	return out
}

///////////////////////////////////////////////////////////////////////////////

// InitialScheduledLoad sums InitialMW over non-semi-dispatch loads in the
// region.
func InitialScheduledLoad(in *nemde.CaseInputs, region string) float64 {
	total := 0.0
	seen := make(map[string]bool)
	for _, k := range in.TraderOffers {
		if k.TradeType != nemde.TradeType_LDOF || seen[k.TraderID] {
			continue
		}
		if in.TraderRegion[k.TraderID] != region || in.TraderSemiDispatch[k.TraderID] {
			continue
		}
		seen[k.TraderID] = true
		total += in.TraderInitialMW[k.TraderID]
	}
	return total
}

// regionInterconnectorLoss allocates a per-interconnector loss amount to the
// region using the sending-end (MNSP) or loss-share (regulated) rule, with
// direction taken from the supplied flow.
func regionInterconnectorLoss(in *nemde.CaseInputs, region, interconnectorID string, loss, directionFlow float64) float64 {
	fromRegion := in.InterconnectorFromRegion[interconnectorID]
	toRegion := in.InterconnectorToRegion[interconnectorID]
	if region != fromRegion && region != toRegion {
		return 0
	}
	if in.InterconnectorMNSP[interconnectorID] {
		sendingEnd := fromRegion
		if directionFlow < 0 {
			sendingEnd = toRegion
		}
		if region == sendingEnd {
			return loss
		}
		return 0
	}
	share := in.InterconnectorLossShare[interconnectorID]
	if region == fromRegion {
		return loss * share
	}
	return loss * (1 - share)
}

// InitialAllocatedLoss recomputes the pre-solve loss allocated to the
// region, integrating each loss curve at the interconnector's initial MW.
func InitialAllocatedLoss(in *nemde.CaseInputs, region string) (float64, error) {
	total := 0.0
	for _, id := range in.Interconnectors {
		loss, err := nemde.LossEstimate(in.InterconnectorLossSegments[id], in.InterconnectorInitialMW[id])
		if err != nil {
			return 0, err
		}
		total += regionInterconnectorLoss(in, region, id, loss, in.InterconnectorInitialMW[id])
	}
	return total, nil
}

// InitialMNSPLoss recomputes the pre-solve MNSP connection point loss
// allocated to the region, keyed off initial MW.
func InitialMNSPLoss(in *nemde.CaseInputs, region string) (float64, error) {
	total := 0.0
	for _, id := range in.MNSPs {
		fromRegion := in.InterconnectorFromRegion[id]
		toRegion := in.InterconnectorToRegion[id]
		if region != fromRegion && region != toRegion {
			continue
		}
		initialMW := in.InterconnectorInitialMW[id]
		loss, err := nemde.LossEstimate(in.InterconnectorLossSegments[id], initialMW)
		if err != nil {
			return 0, err
		}
		switch {
		case region == fromRegion && initialMW >= 0:
			total += (in.MNSPFromRegionLFExport[id] - 1) * (initialMW + loss)
		case region == fromRegion:
			total += (in.MNSPFromRegionLFImport[id] - 1) * initialMW
		case region == toRegion && initialMW >= 0:
			total -= (in.MNSPToRegionLFImport[id] - 1) * initialMW
		default:
			total -= (in.MNSPToRegionLFExport[id] - 1) * (initialMW - loss)
		}
	}
	return total, nil
}

// FixedDemand recomputes the region's fixed demand from first principles.
func FixedDemand(in *nemde.CaseInputs, region string) (float64, error) {
	allocatedLoss, err := InitialAllocatedLoss(in, region)
	if err != nil {
		return 0, err
	}
	mnspLoss, err := InitialMNSPLoss(in, region)
	if err != nil {
		return 0, err
	}
	return in.RegionInitialDemand[region] +
		in.RegionADE[region] +
		in.RegionDF[region] -
		InitialScheduledLoad(in, region) -
		allocatedLoss -
		mnspLoss, nil
}

///////////////////////////////////////////////////////////////////////////////
// Post-solve accounting, recomputed from the solved flows and targets.

// DispatchedGeneration sums solved energy targets of generators in the
// region.
func DispatchedGeneration(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	targets := traderTargets(sol)
	total := 0.0
	for _, traderID := range in.Traders {
		if in.TraderRegion[traderID] != region || in.TraderType[traderID].IsLoad() {
			continue
		}
		total += targets[traderID].EnergyTarget
	}
	return total
}

// DispatchedLoad sums solved energy targets of loads in the region.
func DispatchedLoad(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	targets := traderTargets(sol)
	total := 0.0
	for _, traderID := range in.Traders {
		if in.TraderRegion[traderID] != region || !in.TraderType[traderID].IsLoad() {
			continue
		}
		total += targets[traderID].EnergyTarget
	}
	return total
}

// AllocatedLoss recomputes the region's post-solve interconnector loss
// allocation from the solved losses. Direction for MNSP sending-end
// allocation follows the interconnector's initial MW, matching the model's
// pre-solve proxy convention.
func AllocatedLoss(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	flows := solvedFlows(sol)
	total := 0.0
	for _, id := range in.Interconnectors {
		total += regionInterconnectorLoss(in, region, id, flows[id].Losses, in.InterconnectorInitialMW[id])
	}
	return total
}

// MNSPLoss recomputes the post-solve MNSP loss allocation from the solved
// flow, with direction taken from the solved flow's sign.
func MNSPLoss(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	flows := solvedFlows(sol)
	total := 0.0
	for _, id := range in.MNSPs {
		fromRegion := in.InterconnectorFromRegion[id]
		toRegion := in.InterconnectorToRegion[id]
		if region != fromRegion && region != toRegion {
			continue
		}
		flow := flows[id].Flow
		loss := flows[id].Losses
		indicator := in.MNSPRegionLossIndicator[id]

		// Connection point flows as the model forms them.
		fromCP := flow + loss*indicator[fromRegion]
		toCP := flow - loss*indicator[toRegion]

		if region == fromRegion {
			if flow >= 0 {
				total += (in.MNSPFromRegionLFExport[id] - 1) * fromCP
			} else {
				total += (in.MNSPFromRegionLFImport[id] - 1) * fromCP
			}
		} else {
			if flow >= 0 {
				total -= (in.MNSPToRegionLFImport[id] - 1) * toCP
			} else {
				total -= (in.MNSPToRegionLFExport[id] - 1) * toCP
			}
		}
	}
	return total
}

// InterconnectorExport sums signed solved flows leaving the region.
func InterconnectorExport(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	flows := solvedFlows(sol)
	total := 0.0
	for _, id := range in.Interconnectors {
		switch region {
		case in.InterconnectorFromRegion[id]:
			total += flows[id].Flow
		case in.InterconnectorToRegion[id]:
			total -= flows[id].Flow
		}
	}
	return total
}

// NetExport recomputes net export including allocated losses.
func NetExport(in *nemde.CaseInputs, sol *nemde.Solution, region string) float64 {
	return InterconnectorExport(in, sol, region) +
		AllocatedLoss(in, sol, region) +
		MNSPLoss(in, sol, region)
}

// ClearedDemand recomputes cleared demand:
// FixedDemand + AllocatedLoss + DispatchedLoad + MNSPLoss.
func ClearedDemand(in *nemde.CaseInputs, sol *nemde.Solution, region string) (float64, error) {
	fixedDemand, err := FixedDemand(in, region)
	if err != nil {
		return 0, err
	}
	return fixedDemand +
		AllocatedLoss(in, sol, region) +
		DispatchedLoad(in, sol, region) +
		MNSPLoss(in, sol, region), nil
}
