package pvgis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Hourly(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal(sampleBody(t), &resp))

	records, err := resp.Hourly()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC), records[0].Time)
	assert.Equal(t, time.Date(2023, 6, 1, 12, 10, 0, 0, time.UTC), records[4].Time)
	assert.InDelta(t, 27.3, records[4].TempC, 1e-9)
}

func TestResponse_HourlyBadTime(t *testing.T) {
	var resp Response
	resp.Outputs.Hourly = []HourlyRaw{{Time: "2023-01-01 00:10"}}

	_, err := resp.Hourly()
	assert.ErrorContains(t, err, "hourly record 0")
}

func TestSummarize(t *testing.T) {
	var resp Response
	require.NoError(t, json.Unmarshal(sampleBody(t), &resp))
	records, err := resp.Hourly()
	require.NoError(t, err)

	s := Summarize(records)

	assert.Equal(t, 5, s.Hours)
	assert.InDelta(t, 1.0325, s.AnnualKWh, 1e-9)
	assert.InDelta(t, 0.6125, s.MonthlyKWh[0], 1e-9)
	assert.InDelta(t, 0.42, s.MonthlyKWh[5], 1e-9)
	assert.Equal(t, 420.0, s.PeakW)
	assert.Equal(t, time.June, s.PeakTime.Month())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Hours)
	assert.Equal(t, 0.0, s.AnnualKWh)
}
