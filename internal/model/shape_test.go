package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveClassContributions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		width   int
		want    []float64
		wantErr bool
	}{
		{name: "flat", raw: `[0.1,-0.2,0.3]`, width: 3, want: []float64{0.1, -0.2, 0.3}},
		{name: "single row matrix", raw: `[[0.1,-0.2,0.3]]`, width: 3, want: []float64{0.1, -0.2, 0.3}},
		{name: "per-class matrices", raw: `[[[-0.1,0.2,-0.3]],[[0.1,-0.2,0.3]]]`, width: 3, want: []float64{0.1, -0.2, 0.3}},
		{name: "row feature class", raw: `[[[-0.1,0.1],[0.2,-0.2],[-0.3,0.3]]]`, width: 3, want: []float64{0.1, -0.2, 0.3}},
		{name: "length mismatch", raw: `[0.1,0.2]`, width: 3, wantErr: true},
		{name: "multiple rows", raw: `[[0.1,0.2,0.3],[0.1,0.2,0.3]]`, width: 3, wantErr: true},
		{name: "not numeric", raw: `["a","b","c"]`, width: 3, wantErr: true},
		{name: "scalar", raw: `0.5`, width: 1, wantErr: true},
		{name: "malformed", raw: `[0.1,`, width: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositiveClassContributions(json.RawMessage(tt.raw), tt.width)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
