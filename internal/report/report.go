// Copyright (c) 2024 Akxen Labs

// Package report writes solution tables as CSV and Parquet files for
// downstream analysis.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/akxen/nemde-go"
)

///////////////////////////////////////////////////////////////////////////////

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRegionCSV writes the region solution table.
func WriteRegionCSV(w io.Writer, sol *nemde.Solution) error {
	cw := csv.NewWriter(w)
	header := []string{
		"case_id", "region_id", "intervention", "dispatched_generation",
		"dispatched_load", "fixed_demand", "cleared_demand", "net_export",
		"surplus_generation",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range sol.RegionSolution {
		row := []string{
			r.CaseID, r.RegionID, r.Intervention,
			formatFloat(r.DispatchedGeneration),
			formatFloat(r.DispatchedLoad),
			formatFloat(r.FixedDemand),
			formatFloat(r.ClearedDemand),
			formatFloat(r.NetExport),
			formatFloat(r.SurplusGeneration),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTraderCSV writes the trader solution table.
func WriteTraderCSV(w io.Writer, sol *nemde.Solution) error {
	cw := csv.NewWriter(w)
	header := []string{
		"case_id", "trader_id", "intervention", "energy_target",
		"r6_target", "r60_target", "r5_target", "r5reg_target",
		"l6_target", "l60_target", "l5_target", "l5reg_target",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range sol.TraderSolution {
		row := []string{
			t.CaseID, t.TraderID, t.Intervention,
			formatFloat(t.EnergyTarget),
			formatFloat(t.R6Target), formatFloat(t.R60Target),
			formatFloat(t.R5Target), formatFloat(t.R5RegTarget),
			formatFloat(t.L6Target), formatFloat(t.L60Target),
			formatFloat(t.L5Target), formatFloat(t.L5RegTarget),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInterconnectorCSV writes the interconnector solution table.
func WriteInterconnectorCSV(w io.Writer, sol *nemde.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"case_id", "interconnector_id", "intervention", "flow", "losses", "deficit"}); err != nil {
		return err
	}
	for _, ic := range sol.InterconnectorSolution {
		row := []string{
			ic.CaseID, ic.InterconnectorID, ic.Intervention,
			formatFloat(ic.Flow), formatFloat(ic.Losses), formatFloat(ic.Deficit),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
