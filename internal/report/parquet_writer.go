// Copyright (c) 2024 Akxen Labs

package report

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/akxen/nemde-go"
)

///////////////////////////////////////////////////////////////////////////////

// WriteTraderParquet writes the trader solution table as a Parquet file.
func WriteTraderParquet(w io.Writer, sol *nemde.Solution) error {
	pwProperties := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy))

	pw := pqfile.NewParquetWriter(w, parquetGroupNodeTraderSolution(), pqfile.WithWriterProps(pwProperties))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for i := range sol.TraderSolution {
		if err := parquetWriteRowTraderSolution(rgw, &sol.TraderSolution[i]); err != nil {
			return err
		}
	}
	rgw.Close()
	if err := pw.FlushWithFooter(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// parquetGroupNodeTraderSolution returns the Parquet schema group node for
// the trader solution table.
//
// optional binary field_id=-1 case_id (String);
// optional binary field_id=-1 trader_id (String);
// optional binary field_id=-1 intervention (String);
// optional double field_id=-1 energy_target;
// optional double field_id=-1 {r6,r60,r5,r5reg,l6,l60,l5,l5reg}_target;
func parquetGroupNodeTraderSolution() *pqschema.GroupNode {
	fields := pqschema.FieldList{
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("case_id", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("trader_id", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("intervention", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.NewFloat64Node("energy_target", parquet.Repetitions.Optional, -1),
	}
	for _, name := range []string{"r6_target", "r60_target", "r5_target", "r5reg_target", "l6_target", "l60_target", "l5_target", "l5reg_target"} {
		fields = append(fields, pqschema.NewFloat64Node(name, parquet.Repetitions.Optional, -1))
	}
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1))
}

func parquetWriteRowTraderSolution(rgw pqfile.BufferedRowGroupWriter, t *nemde.TraderSolution) error {
	strs := []string{t.CaseID, t.TraderID, t.Intervention}
	for i, s := range strs {
		cw, err := rgw.Column(i)
		if err != nil {
			return err
		}
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{parquet.ByteArray(s)}, []int16{1}, nil)
	}
	floats := []float64{
		t.EnergyTarget,
		t.R6Target, t.R60Target, t.R5Target, t.R5RegTarget,
		t.L6Target, t.L60Target, t.L5Target, t.L5RegTarget,
	}
	for i, v := range floats {
		cw, err := rgw.Column(len(strs) + i)
		if err != nil {
			return err
		}
		cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch([]float64{v}, []int16{1}, nil)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// WriteRegionParquet writes the region solution table as a Parquet file.
func WriteRegionParquet(w io.Writer, sol *nemde.Solution) error {
	pwProperties := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy))

	pw := pqfile.NewParquetWriter(w, parquetGroupNodeRegionSolution(), pqfile.WithWriterProps(pwProperties))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for i := range sol.RegionSolution {
		if err := parquetWriteRowRegionSolution(rgw, &sol.RegionSolution[i]); err != nil {
			return err
		}
	}
	rgw.Close()
	if err := pw.FlushWithFooter(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func parquetGroupNodeRegionSolution() *pqschema.GroupNode {
	fields := pqschema.FieldList{
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("case_id", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("region_id", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
		pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted("intervention", parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1)),
	}
	for _, name := range []string{"dispatched_generation", "dispatched_load", "fixed_demand", "cleared_demand", "net_export", "surplus_generation"} {
		fields = append(fields, pqschema.NewFloat64Node(name, parquet.Repetitions.Optional, -1))
	}
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1))
}

func parquetWriteRowRegionSolution(rgw pqfile.BufferedRowGroupWriter, r *nemde.RegionSolution) error {
	strs := []string{r.CaseID, r.RegionID, r.Intervention}
	for i, s := range strs {
		cw, err := rgw.Column(i)
		if err != nil {
			return err
		}
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{parquet.ByteArray(s)}, []int16{1}, nil)
	}
	floats := []float64{
		r.DispatchedGeneration, r.DispatchedLoad, r.FixedDemand,
		r.ClearedDemand, r.NetExport, r.SurplusGeneration,
	}
	for i, v := range floats {
		cw, err := rgw.Column(len(strs) + i)
		if err != nil {
			return err
		}
		cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch([]float64{v}, []int16{1}, nil)
	}
	return nil
}
