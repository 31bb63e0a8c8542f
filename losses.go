// Copyright (c) 2024 Akxen Labs

package nemde

import "fmt"

///////////////////////////////////////////////////////////////////////////////

// ParsedLossSegment is a loss model segment in start-end-factor form.
// Factor is the marginal loss factor over [Start, End].
type ParsedLossSegment struct {
	Start  float64
	End    float64
	Factor float64
}

// ParseLossSegments converts raw {Limit, Factor} segments to start-end form.
// The first segment starts at -lossLowerLimit.
func ParseLossSegments(segments []LossSegment, lossLowerLimit float64) []ParsedLossSegment {
	out := make([]ParsedLossSegment, 0, len(segments))
	start := -lossLowerLimit
	for _, s := range segments {
		out = append(out, ParsedLossSegment{Start: start, End: s.Limit, Factor: s.Factor})
		start = s.Limit
	}
	return out
}

// LossEstimate integrates the marginal loss curve from 0 to flow (or flow to
// 0 for negative flow). Segments crossing the origin contribute only the
// portion between 0 and flow.
func LossEstimate(segments []ParsedLossSegment, flow float64) (float64, error) {
	totalArea := 0.0
	for _, s := range segments {
		width := s.End - s.Start
		var proportion float64

		if flow > 0 {
			switch {
			case s.End <= 0:
				proportion = 0
			case s.Start > flow:
				proportion = 0
			case s.Start < 0 && s.End > 0:
				positiveProportion := s.End / width
				flowProportion := flow / width
				proportion = min(positiveProportion, flowProportion)
			case flow >= s.Start && flow <= s.End:
				proportion = (flow - s.Start) / width
			case flow > s.End:
				proportion = 1
			default:
				return 0, fmt.Errorf("%w: flow=%v segment=[%v,%v]", ErrUnhandledLossSegment, flow, s.Start, s.End)
			}
			totalArea += width * s.Factor * proportion
		} else {
			switch {
			case s.Start >= 0:
				proportion = 0
			case s.End < flow:
				proportion = 0
			case s.Start < 0 && s.End > 0:
				negativeProportion := -s.Start / width
				flowProportion := -flow / width
				proportion = min(negativeProportion, flowProportion)
			case flow >= s.Start && flow <= s.End:
				proportion = -(flow - s.End) / width
			case flow <= s.Start:
				proportion = 1
			default:
				return 0, fmt.Errorf("%w: flow=%v segment=[%v,%v]", ErrUnhandledLossSegment, flow, s.Start, s.End)
			}
			totalArea += -width * s.Factor * proportion
		}
	}
	return totalArea, nil
}

///////////////////////////////////////////////////////////////////////////////

// LossBreakpoint is one SOS2 vertex of the piecewise-linear loss curve:
// X is interconnector flow, Y the integrated loss at that flow.
type LossBreakpoint struct {
	X float64
	Y float64
}

// LossModelBreakpoints builds the SOS2 breakpoints: breakpoint 0 sits at
// -lossLowerLimit and breakpoint k at segment k's limit, each with the
// integrated loss as its Y value. len(result) == len(segments)+1.
func LossModelBreakpoints(segments []LossSegment, lossLowerLimit float64) ([]LossBreakpoint, error) {
	parsed := ParseLossSegments(segments, lossLowerLimit)

	xs := make([]float64, 0, len(segments)+1)
	xs = append(xs, -lossLowerLimit)
	for _, s := range segments {
		xs = append(xs, s.Limit)
	}

	out := make([]LossBreakpoint, 0, len(xs))
	for _, x := range xs {
		y, err := LossEstimate(parsed, x)
		if err != nil {
			return nil, err
		}
		out = append(out, LossBreakpoint{X: x, Y: y})
	}
	return out, nil
}
