// Copyright (c) 2024 Akxen Labs

package nemde

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

///////////////////////////////////////////////////////////////////////////////

// Casefile is a parsed NEMDE casefile document. The underlying tree is the
// "@"-attribute JSON rendering of the NEMSPDCaseFile XML. All reads go
// through the typed accessors in lookup.go; the only mutation path is
// ApplyPatches in updater.go.
type Casefile struct {
	parser fastjson.Parser // owns the value tree's backing buffers
	arena  fastjson.Arena  // allocates patch replacement values
	root   *fastjson.Value
}

// ParseCasefile parses a casefile JSON document.
func ParseCasefile(data []byte) (*Casefile, error) {
	cf := &Casefile{}
	root, err := cf.parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCasefileValue, err)
	}
	if root.Get("NEMSPDCaseFile") == nil {
		return nil, fmt.Errorf("%w: document has no NEMSPDCaseFile root", ErrCasefileValue)
	}
	cf.root = root
	return cf, nil
}

// Root returns the document root.
func (cf *Casefile) Root() *fastjson.Value {
	return cf.root
}

// Inputs returns the NemSpdInputs subtree.
func (cf *Casefile) Inputs() *fastjson.Value {
	return cf.root.Get("NEMSPDCaseFile", "NemSpdInputs")
}

// Outputs returns the NemSpdOutputs subtree carrying the reference solution,
// or nil if the casefile has none.
func (cf *Casefile) Outputs() *fastjson.Value {
	return cf.root.Get("NEMSPDCaseFile", "NemSpdOutputs")
}

// MarshalJSON renders the document back to JSON.
func (cf *Casefile) MarshalJSON() ([]byte, error) {
	return cf.root.MarshalTo(nil), nil
}

///////////////////////////////////////////////////////////////////////////////

// elems normalizes a casefile collection member to a list: the source XML
// renders single children as an object and repeated children as an array.
func elems(v *fastjson.Value) []*fastjson.Value {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case fastjson.TypeArray:
		items, _ := v.Array()
		return items
	case fastjson.TypeObject:
		return []*fastjson.Value{v}
	default:
		return nil
	}
}

// attrString reads a string-typed attribute (e.g. "@TraderID").
func attrString(v *fastjson.Value, key string) (string, bool) {
	av := v.Get(key)
	if av == nil {
		return "", false
	}
	sb, err := av.StringBytes()
	if err != nil {
		// Numbers occasionally appear unquoted; render them.
		return string(av.MarshalTo(nil)), true
	}
	return string(sb), true
}

// attrFloat reads a numeric attribute, accepting quoted and bare numbers.
func attrFloat(v *fastjson.Value, key string) (float64, bool, error) {
	av := v.Get(key)
	if av == nil {
		return 0, false, nil
	}
	switch av.Type() {
	case fastjson.TypeNumber:
		f, err := av.Float64()
		return f, true, err
	case fastjson.TypeString:
		sb, _ := av.StringBytes()
		f, err := strconv.ParseFloat(string(sb), 64)
		if err != nil {
			return 0, true, err
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("attribute %s is %s, not numeric", key, av.Type())
	}
}

// mustAttrString reads a required string attribute.
func mustAttrString(v *fastjson.Value, entity, id, key string) (string, error) {
	s, ok := attrString(v, key)
	if !ok {
		return "", missingAttributeError(entity, id, key)
	}
	return s, nil
}

// mustAttrFloat reads a required numeric attribute.
func mustAttrFloat(v *fastjson.Value, entity, id, key string) (float64, error) {
	f, ok, err := attrFloat(v, key)
	if !ok {
		return 0, missingAttributeError(entity, id, key)
	}
	if err != nil {
		return 0, parseFailureError(entity, id, key, err)
	}
	return f, nil
}
