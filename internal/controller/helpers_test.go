package controller

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeValueUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{`2.5`, 2.5, false},
		{`"2,5"`, 2.5, false},
		{`"4"`, 4, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req GradeRequest
			err := json.Unmarshal([]byte(`{"value":`+tt.input+`}`), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, float64(req.Value))
		})
	}
}
