// internal/model/shape.go
package model

import (
	"encoding/json"
	"fmt"
)

// PositiveClassContributions reduces an attribution payload to one row of
// width values for the approval class. Accepted layouts:
//
//	[f]              flat row
//	[[f]]            single-row matrix
//	[[[f]],[[f]]]    per-class matrices, last class taken
//	[[[c]]]          row x feature x class, last class taken
func PositiveClassContributions(raw json.RawMessage, width int) ([]float64, error) {
	var values interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode attribution values: %w", err)
	}

	switch depth(values) {
	case 1:
		return flatRow(values, width)
	case 2:
		rows := values.([]interface{})
		if len(rows) != 1 {
			return nil, fmt.Errorf("expected a single attribution row, got %d", len(rows))
		}
		return flatRow(rows[0], width)
	case 3:
		outer := values.([]interface{})
		first := outer[0].([]interface{})
		// row x feature x class
		if len(outer) == 1 && len(first) == width {
			row := make([]float64, width)
			for i, cell := range first {
				classes, ok := cell.([]interface{})
				if !ok || len(classes) == 0 {
					return nil, fmt.Errorf("feature %d has no class values", i)
				}
				f, ok := classes[len(classes)-1].(float64)
				if !ok {
					return nil, fmt.Errorf("feature %d value is not numeric", i)
				}
				row[i] = f
			}
			return row, nil
		}
		// class x row x feature
		positive, ok := outer[len(outer)-1].([]interface{})
		if !ok || len(positive) != 1 {
			return nil, fmt.Errorf("expected a single attribution row per class")
		}
		return flatRow(positive[0], width)
	default:
		return nil, fmt.Errorf("unsupported attribution layout")
	}
}

// depth is the array nesting of v, following first elements. Empty arrays
// count as depth 1.
func depth(v interface{}) int {
	d := 0
	for {
		arr, ok := v.([]interface{})
		if !ok {
			return d
		}
		d++
		if len(arr) == 0 {
			return d
		}
		v = arr[0]
	}
}

func flatRow(v interface{}, width int) ([]float64, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("attribution row is not an array")
	}
	if len(arr) != width {
		return nil, fmt.Errorf("got %d contributions for %d encoded features", len(arr), width)
	}

	row := make([]float64, len(arr))
	for i, cell := range arr {
		f, ok := cell.(float64)
		if !ok {
			return nil, fmt.Errorf("contribution %d is not numeric", i)
		}
		row[i] = f
	}
	return row, nil
}
