package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"positive", "150.75", 15075, false},
		{"negative keeps magnitude", "-150.75", 15075, false},
		{"integer", "200", 20000, false},
		{"zero", "0", 0, false},
		{"decimal comma", "1234,56", 123456, false},
		{"rounds half up", "0.005", 1, false},
		{"whitespace", "  10.50  ", 1050, false},
		{"empty", "", 0, true},
		{"garbage", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNegative(t *testing.T) {
	assert.True(t, IsNegative("-10.00"))
	assert.False(t, IsNegative("10.00"))
	assert.False(t, IsNegative("0"))
	assert.False(t, IsNegative("not a number"))
}

func TestSumCents(t *testing.T) {
	assert.Equal(t, int64(600), SumCents([]int64{100, 200, 300}))
	assert.Equal(t, int64(0), SumCents(nil))
}

func TestFormatBRL(t *testing.T) {
	got := FormatBRL(123456)
	assert.Contains(t, got, "1.234,56")
}
