// Copyright (c) 2024 Akxen Labs

package nemde

import "fmt"

var (
	ErrCasefileNotFound      = fmt.Errorf("casefile not found")
	ErrCasefileQuery         = fmt.Errorf("casefile query is ambiguous")
	ErrCasefileValue         = fmt.Errorf("invalid casefile payload")
	ErrCasefileOptions       = fmt.Errorf("invalid casefile options")
	ErrCasefileUpdaterLookup = fmt.Errorf("casefile update path lookup failed")
	ErrMissingAttribute      = fmt.Errorf("missing casefile attribute")
	ErrParseFailure          = fmt.Errorf("casefile attribute parse failure")
	ErrUnexpectedTraderType  = fmt.Errorf("unexpected trader type")
	ErrUnexpectedTradeType   = fmt.Errorf("unexpected trade type")
	ErrUnhandledLossSegment  = fmt.Errorf("unhandled loss segment case")
	ErrUnhandledRegionAlloc  = fmt.Errorf("unhandled region loss allocation")
	ErrSolverFailure         = fmt.Errorf("solver failure")
)

func missingAttributeError(entity string, id string, field string) error {
	return fmt.Errorf("%w: %s %q has no %s", ErrMissingAttribute, entity, id, field)
}

func parseFailureError(entity string, id string, field string, err error) error {
	return fmt.Errorf("%w: %s %q attribute %s: %v", ErrParseFailure, entity, id, field, err)
}

func unexpectedTraderTypeError(got string) error {
	return fmt.Errorf("%w: %q", ErrUnexpectedTraderType, got)
}
