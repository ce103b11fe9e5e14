package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateID(1))
	assert.NoError(t, ValidateID(981235))
	assert.Error(t, ValidateID(0))
	assert.Error(t, ValidateID(-7))
}

func TestNormalizeNote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		note    string
		want    string
		wantErr bool
	}{
		{"Empty", "", "", false},
		{"Trimmed", "  needs payroll access\n", "needs payroll access", false},
		{"At Cap", strings.Repeat("x", 2000), strings.Repeat("x", 2000), false},
		{"Over Cap", strings.Repeat("x", 2001), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNote(tt.note)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateBatchSize(t *testing.T) {
	t.Parallel()
	assert.Error(t, ValidateBatchSize(0))
	assert.NoError(t, ValidateBatchSize(1))
	assert.NoError(t, ValidateBatchSize(50))
	assert.Error(t, ValidateBatchSize(51))
}
