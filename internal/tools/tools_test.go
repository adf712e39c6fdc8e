package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_profile/internal/observe"
	"energy_profile/internal/pvgis"
)

// newTestSet builds a catalogue rooted in a temp dir holding a copy of the
// sample consumption exports and a PVGIS stub.
func newTestSet(t *testing.T, pvHandler http.HandlerFunc) (*Set, string) {
	t.Helper()
	base := t.TempDir()
	copyDir(t, "../../testdata/consumption", filepath.Join(base, "consumption"))

	if pvHandler == nil {
		pvHandler = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unexpected call", http.StatusTeapot)
		}
	}
	srv := httptest.NewServer(pvHandler)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		BaseDir:    base,
		PVGIS:      pvgis.NewClient(pvgis.WithBaseURL(srv.URL)),
		PVDefaults: pvgis.Request{Year: 2023},
		Metrics:    observe.New(),
	})
	require.NoError(t, err)
	return s, base
}

func copyDir(t *testing.T, src, dst string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dst, 0o755))
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, e.Name()), data, 0o644))
	}
}

func TestSet_Catalogue(t *testing.T) {
	s, _ := newTestSet(t, nil)

	var names []string
	for _, d := range s.Definitions() {
		names = append(names, d.Name)
		assert.Equal(t, "object", d.Parameters["type"], d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
	}
	assert.Equal(t, []string{
		"aggregate_csv", "calculate_pv_output", "estimate_pv_output", "prepare_consumption", "read_csv",
	}, names)

	_, ok := s.Lookup("read_csv")
	assert.True(t, ok)
}

func TestSet_CallUnknownTool(t *testing.T) {
	s, _ := newTestSet(t, nil)

	out, failed := s.Call(context.Background(), "delete_everything", "{}")
	assert.True(t, failed)
	assert.Equal(t, `Error: unknown tool "delete_everything"`, out)
}

func TestSet_CallBadArguments(t *testing.T) {
	s, _ := newTestSet(t, nil)

	out, failed := s.Call(context.Background(), "read_csv", "{not json")
	assert.True(t, failed)
	assert.Contains(t, out, "Error: read_csv: invalid arguments")
}

func TestSafePath(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "srv", "data")

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"relative", "consumption/a.csv", filepath.Join(base, "consumption", "a.csv"), false},
		{"base itself", ".", base, false},
		{"absolute inside", filepath.Join(base, "x.csv"), filepath.Join(base, "x.csv"), false},
		{"traversal", "../etc/passwd", "", true},
		{"absolute outside", filepath.Join(string(filepath.Separator), "etc", "passwd"), "", true},
		{"sibling prefix", "../data2/x.csv", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safePath(base, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCSV(t *testing.T) {
	s, base := newTestSet(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(base, "usage.csv"),
		[]byte("day,kwh\n1,10\n2,11\n3,12\n4,13\n5,14\n6,15\n7,16\n"), 0o644))

	out, failed := s.Call(context.Background(), "read_csv", `{"file_path":"usage.csv"}`)

	require.False(t, failed, out)
	assert.Contains(t, out, "Successfully read CSV usage.csv")
	assert.Contains(t, out, "Shape: 7 rows x 2 columns")
	assert.Contains(t, out, "Columns: day, kwh")
	assert.Contains(t, out, "First 5 rows:")
	assert.Contains(t, out, "Last 5 rows:")
	assert.Contains(t, out, "16")
}

func TestReadCSV_MeterExportOptions(t *testing.T) {
	s, _ := newTestSet(t, nil)

	out, failed := s.Call(context.Background(), "read_csv",
		`{"file_path":"consumption/2023-01.csv","delimiter":";","decimal":","}`)

	require.False(t, failed, out)
	assert.Contains(t, out, "Shape: 3 rows x 5 columns")
	assert.Contains(t, out, "Giorno")
}

func TestReadCSV_Errors(t *testing.T) {
	s, _ := newTestSet(t, nil)

	out, failed := s.Call(context.Background(), "read_csv", `{"file_path":"missing.csv"}`)
	assert.True(t, failed)
	assert.Equal(t, `Error: file "missing.csv" not found`, out)

	out, failed = s.Call(context.Background(), "read_csv", `{"file_path":"../../etc/passwd"}`)
	assert.True(t, failed)
	assert.Contains(t, out, "outside the data directory")

	out, failed = s.Call(context.Background(), "read_csv", `{"file_path":"usage.csv","delimiter":";;"}`)
	assert.True(t, failed)
	assert.Contains(t, out, "single character")
}

func TestAggregateCSV(t *testing.T) {
	s, base := newTestSet(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(base, "usage.csv"),
		[]byte("region,month,kwh\nnorth,1,10\nnorth,1,12\nsouth,2,7\n"), 0o644))

	out, failed := s.Call(context.Background(), "aggregate_csv",
		`{"file_path":"usage.csv","group_by":"region, month","agg_column":"kwh","agg_function":"mean"}`)

	require.False(t, failed, out)
	assert.Contains(t, out, "mean of kwh grouped by region, month (2 groups)")
	assert.Contains(t, out, "north")
	assert.Contains(t, out, "11")
}

func TestAggregateCSV_Errors(t *testing.T) {
	s, base := newTestSet(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(base, "usage.csv"), []byte("a,b\nx,1\n"), 0o644))

	out, failed := s.Call(context.Background(), "aggregate_csv",
		`{"file_path":"usage.csv","group_by":"a","agg_column":"b","agg_function":"mode"}`)
	assert.True(t, failed)
	assert.Contains(t, out, `unknown aggregation function "mode"`)

	out, failed = s.Call(context.Background(), "aggregate_csv",
		`{"file_path":"usage.csv","group_by":"zzz","agg_column":"b","agg_function":"sum"}`)
	assert.True(t, failed)
	assert.Contains(t, out, `column "zzz" not found`)
}

func TestPrepareConsumption(t *testing.T) {
	s, base := newTestSet(t, nil)

	out, failed := s.Call(context.Background(), "prepare_consumption",
		`{"input_dir":"consumption","output_path":"prepared/out.csv"}`)

	require.False(t, failed, out)
	assert.Contains(t, out, "Prepared 20 readings from 5 daily rows x 4 time bands.")
	assert.Contains(t, out, "Time range: 2023-01-01 00:00:00 to 2023-01-05 18:00:00")
	assert.Contains(t, out, "2023-01-01")

	data, err := os.ReadFile(filepath.Join(base, "prepared", "out.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,consumption\n2023-01-01 00:00:00,1.23\n2023-01-01 06:00:00,4.56\n")
}

func TestPrepareConsumption_DefaultOutput(t *testing.T) {
	s, base := newTestSet(t, nil)

	_, failed := s.Call(context.Background(), "prepare_consumption", `{"input_dir":"consumption"}`)
	require.False(t, failed)

	_, err := os.Stat(filepath.Join(base, "data", "output.csv"))
	assert.NoError(t, err)
}

func TestPrepareConsumption_NoData(t *testing.T) {
	s, base := newTestSet(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "empty"), 0o755))

	out, failed := s.Call(context.Background(), "prepare_consumption", `{"input_dir":"nowhere"}`)
	assert.True(t, failed)
	assert.Contains(t, out, `no consumption data in "nowhere"`)
	assert.Contains(t, out, "not_found")

	out, failed = s.Call(context.Background(), "prepare_consumption", `{"input_dir":"empty"}`)
	assert.True(t, failed)
	assert.Contains(t, out, "no_input_data")
}

func pvgisStub(t *testing.T, query *map[string]string) http.HandlerFunc {
	body, err := os.ReadFile("../../testdata/pvgis/seriescalc.json")
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		if query != nil {
			*query = map[string]string{}
			for k := range r.URL.Query() {
				(*query)[k] = r.URL.Query().Get(k)
			}
		}
		w.Write(body)
	}
}

func TestEstimatePVOutput(t *testing.T) {
	var query map[string]string
	s, _ := newTestSet(t, pvgisStub(t, &query))

	out, failed := s.Call(context.Background(), "estimate_pv_output",
		`{"latitude":45.07,"longitude":7.69,"efficiency":0.2,"azimuth":0,"tilt":30,"module_power":2}`)

	require.False(t, failed, out)
	var res estimateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 1.0325, res.AnnualKWh, 1e-3)
	assert.InDelta(t, 0.5, res.SpecificYield, 1e-9)
	assert.Equal(t, 420.0, res.PeakW)
	assert.Equal(t, 5, res.Hours)
	assert.Equal(t, 2023, res.Year)

	assert.Equal(t, "30", query["angle"])
	assert.Equal(t, "2", query["peakpower"])
	assert.Equal(t, "15", query["loss"])
}

func TestCalculatePVOutput(t *testing.T) {
	var query map[string]string
	s, _ := newTestSet(t, pvgisStub(t, &query))

	out, failed := s.Call(context.Background(), "calculate_pv_output",
		`{"latitude":45.07,"longitude":7.69,"efficiency":0.2,"azimuth":-90,"slope":20,"year":2020,"system_losses":10}`)

	require.False(t, failed, out)
	var res calculateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2020, res.Year)
	assert.InDelta(t, 45.07, res.Location.Latitude, 1e-9)
	require.Len(t, res.Summary.MonthlyKWh, 12)
	assert.InDelta(t, 0.6125, res.Summary.MonthlyKWh[0], 1e-3)
	assert.Equal(t, "2023-06-01 12:10:00", res.Summary.PeakTime)

	assert.Equal(t, "2020", query["startyear"])
	assert.Equal(t, "-90", query["aspect"])
	assert.Equal(t, "10", query["loss"])
}

func TestPVTools_Errors(t *testing.T) {
	s, _ := newTestSet(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Location over the sea."}`))
	})

	out, failed := s.Call(context.Background(), "estimate_pv_output", `{"longitude":7}`)
	assert.True(t, failed)
	assert.Contains(t, out, "latitude and longitude are required")

	out, failed = s.Call(context.Background(), "calculate_pv_output",
		`{"latitude":40,"longitude":-30,"efficiency":0.2,"azimuth":0,"slope":30}`)
	assert.True(t, failed)
	assert.Contains(t, out, "upstream_failure")
	assert.Contains(t, out, "Location over the sea.")
}

func TestCalculatePVOutput_SavesRaw(t *testing.T) {
	base := t.TempDir()
	srv := httptest.NewServer(pvgisStub(t, nil))
	defer srv.Close()

	savePath := filepath.Join(base, "data", "energy_production.json")
	s, err := New(Config{
		BaseDir:    base,
		PVGIS:      pvgis.NewClient(pvgis.WithBaseURL(srv.URL)),
		PVSavePath: savePath,
	})
	require.NoError(t, err)

	_, failed := s.Call(context.Background(), "calculate_pv_output",
		`{"latitude":45,"longitude":7,"efficiency":0.2,"azimuth":0,"slope":30}`)
	require.False(t, failed)

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hourly"`)
}
