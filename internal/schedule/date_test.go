package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{date: "2025-03-10"},
		{date: "2024-02-29"},
		{date: "2025-02-29", wantErr: true},
		{date: "2025-3-10", wantErr: true},
		{date: "2025/03/10", wantErr: true},
		{date: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewYearMonth(t *testing.T) {
	got, err := NewYearMonth(2025, 3)
	require.NoError(t, err)
	assert.Equal(t, YearMonth{Year: 2025, Month: time.March}, got)
	assert.Equal(t, "2025-03", got.String())

	for _, tt := range []struct{ year, month int }{{2025, 0}, {2025, 13}, {0, 1}, {10000, 1}} {
		_, err := NewYearMonth(tt.year, tt.month)
		assert.True(t, IsValidation(err), "year=%d month=%d", tt.year, tt.month)
	}
}

func TestParseYearMonth(t *testing.T) {
	got, err := ParseYearMonth("2025-11")
	require.NoError(t, err)
	assert.Equal(t, YearMonth{Year: 2025, Month: time.November}, got)

	_, err = ParseYearMonth("2025-13")
	assert.True(t, IsValidation(err))
}

func TestMonthOf(t *testing.T) {
	got, err := MonthOf("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, YearMonth{Year: 2025, Month: time.December}, got)

	_, err = MonthOf("2025-12-32")
	assert.Error(t, err)
}

func TestYearMonth_Contains(t *testing.T) {
	march := YearMonth{Year: 2025, Month: time.March}
	assert.True(t, march.Contains("2025-03-01"))
	assert.True(t, march.Contains("2025-03-31"))
	assert.False(t, march.Contains("2025-04-01"))
	assert.False(t, march.Contains("2024-03-01"))
}
