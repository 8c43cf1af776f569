package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Grade sentinel symbols used instead of a numeric grade.
const (
	GradeSymbolNoResult = "ม" // no result yet / not eligible
	GradeSymbolAbsent   = "ข" // absent from the final exam
)

// GradeValue holds either a numeric grade or a sentinel symbol. On the wire it
// is a JSON number or a JSON string; a string is always a symbol, even when it
// looks numeric. The zero value is an absent grade and encodes as null.
type GradeValue struct {
	number   float64
	symbol   string
	isNumber bool
	present  bool
}

// NumericGrade builds a numeric grade.
func NumericGrade(v float64) GradeValue {
	return GradeValue{number: v, isNumber: true, present: true}
}

// SymbolGrade builds a sentinel grade.
func SymbolGrade(s string) GradeValue {
	return GradeValue{symbol: s, present: true}
}

// Number returns the numeric grade and whether the value is numeric.
func (g GradeValue) Number() (float64, bool) {
	return g.number, g.isNumber
}

// IsNull reports whether no grade has been recorded.
func (g GradeValue) IsNull() bool {
	return !g.present
}

// Symbol returns the sentinel symbol, empty for numeric grades.
func (g GradeValue) Symbol() string {
	return g.symbol
}

// Graded reports whether the grade counts towards GPA and earned credits:
// numeric and strictly positive.
func (g GradeValue) Graded() bool {
	return g.isNumber && g.number > 0
}

// String renders the grade for exports.
func (g GradeValue) String() string {
	if g.isNumber {
		return strconv.FormatFloat(g.number, 'f', -1, 64)
	}
	return g.symbol
}

// MarshalJSON implements json.Marshaler.
func (g GradeValue) MarshalJSON() ([]byte, error) {
	if !g.present {
		return []byte("null"), nil
	}
	if g.isNumber {
		return json.Marshal(g.number)
	}
	return json.Marshal(g.symbol)
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *GradeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*g = GradeValue{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = SymbolGrade(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("grade must be a number or a symbol: %w", err)
	}
	*g = NumericGrade(n)
	return nil
}
