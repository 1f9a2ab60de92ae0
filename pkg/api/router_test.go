package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/pkg/ingest"
	"github.com/openaria/ariad/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.GORMStore) {
	t.Helper()
	st, err := store.New(&store.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	pipeline := ingest.New(st, aria.UnitKilograms, nil)
	srv := httptest.NewServer(NewRouter(st, pipeline, "kg"))
	t.Cleanup(srv.Close)
	return srv, st
}

func testUploadBody() []byte {
	f := &aria.UploadFrame{
		ProtocolVersion: aria.ProtocolVersion,
		FirmwareVersion: 39,
		Battery:         85,
		MAC:             aria.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		ScaleTime:       1705315840,
		DeclaredCount:   1,
		Measurements: []aria.Measurement{{
			ID:        1,
			Impedance: 520,
			WeightG:   75300,
			Timestamp: 1705315840,
			UserSlot:  1,
			FatRaw1:   185,
			FatRaw2:   185,
		}},
	}
	f.AuthCode[0] = f.MAC[5]
	return aria.EncodeUpload(f)
}

func TestScaleValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/scale/validate")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "T", string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestScaleRegisterEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Get(srv.URL + "/scale/register?mac=aabbccddeeff&ssid=home")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "S\n", string(body))

	// The MAC in the query creates the scale row eagerly.
	scale, err := st.GetScale(t.Context(), "AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	require.NotNil(t, scale.LastSSID)
	assert.Equal(t, "home", *scale.LastSSID)
}

func TestScaleRegisterWithoutMAC(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Get(srv.URL + "/scale/register")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "S\n", string(body))

	scales, err := st.ListScales(t.Context())
	require.NoError(t, err)
	assert.Empty(t, scales)
}

func TestScaleUploadEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader(testUploadBody()))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	require.Len(t, body, aria.ResponseSize)
	assert.Equal(t, aria.Trailer[:], body[len(body)-2:])

	rows, err := st.ListMeasurements(t.Context(), store.MeasurementFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestScaleUploadGarbageStillAnswers200(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader([]byte{0x01, 0x02}))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body, aria.ResponseSize)

	raws, err := st.ListRawUploads(t.Context(), true, 0, 0)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.False(t, raws[0].ParseOK)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["db"])
}

func TestUserLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	// Create via query parameters.
	resp, err := http.Post(srv.URL+"/api/users?name=Alice&height_cm=165&age=30&gender=female&min_kg=40&max_kg=90", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID        uint   `json:"id"`
		Name      string `json:"name"`
		ScaleSlot uint8  `json:"scale_slot"`
		HeightMM  uint16 `json:"height_mm"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Alice", created.Name)
	assert.Equal(t, uint8(0), created.ScaleSlot)
	assert.Equal(t, uint16(1650), created.HeightMM)

	// List
	listResp, err := http.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var users []json.RawMessage
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&users))
	assert.Len(t, users, 1)

	// Delete frees the slot.
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/users/%d", srv.URL, created.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	// Deleting again is a 404 with the standard error shape.
	delResp2, err := http.DefaultClient.Do(req.Clone(t.Context()))
	require.NoError(t, err)
	defer delResp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, delResp2.StatusCode)
	var errBody map[string]string
	require.NoError(t, json.NewDecoder(delResp2.Body).Decode(&errBody))
	assert.Equal(t, "not_found", errBody["error"])
}

func TestUserCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing name", "height_cm=165&age=30&gender=0"},
		{"bad height", "name=A&height_cm=abc&age=30&gender=0"},
		{"bad gender", "name=A&height_cm=165&age=30&gender=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/users?"+tt.query, "", nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestMeasurementViews(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader(testUploadBody()))
	require.NoError(t, err)
	resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/api/measurements")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var views []struct {
		MeasurementID  uint32   `json:"measurement_id"`
		WeightG        uint32   `json:"weight_g"`
		WeightKG       float64  `json:"weight_kg"`
		WeightLbs      float64  `json:"weight_lbs"`
		BodyFatPercent *float64 `json:"body_fat_percent"`
		Unit           string   `json:"unit"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, uint32(75300), views[0].WeightG)
	assert.InDelta(t, 75.3, views[0].WeightKG, 0.0001)
	assert.InDelta(t, 166.0, views[0].WeightLbs, 0.1)
	require.NotNil(t, views[0].BodyFatPercent)
	assert.InDelta(t, 18.5, *views[0].BodyFatPercent, 0.0001)
	assert.Equal(t, "kg", views[0].Unit)

	latestResp, err := http.Get(srv.URL + "/api/measurements/latest")
	require.NoError(t, err)
	defer latestResp.Body.Close()
	assert.Equal(t, http.StatusOK, latestResp.StatusCode)
}

func TestMeasurementsLatestEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/measurements/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScalesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader(testUploadBody()))
	require.NoError(t, err)
	resp.Body.Close()

	listResp, err := http.Get(srv.URL + "/api/scales")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var scales []struct {
		MACAddress string `json:"mac_address"`
		Serial     string `json:"serial"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&scales))
	require.Len(t, scales, 1)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", scales[0].MACAddress)

	oneResp, err := http.Get(srv.URL + "/api/scales/AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	defer oneResp.Body.Close()
	assert.Equal(t, http.StatusOK, oneResp.StatusCode)

	missingResp, err := http.Get(srv.URL + "/api/scales/11:22:33:44:55:66")
	require.NoError(t, err)
	defer missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
}

func TestRawUploadsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	// One clean upload, one garbage.
	resp, err := http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader(testUploadBody()))
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Post(srv.URL+"/scale/upload", "application/octet-stream", bytes.NewReader([]byte{0xde, 0xad}))
	require.NoError(t, err)
	resp.Body.Close()

	all, err := http.Get(srv.URL + "/api/raw-uploads")
	require.NoError(t, err)
	defer all.Body.Close()
	var rows []struct {
		ParseOK    bool   `json:"parse_ok"`
		RequestHex string `json:"request_hex"`
	}
	require.NoError(t, json.NewDecoder(all.Body).Decode(&rows))
	assert.Len(t, rows, 2)

	failing, err := http.Get(srv.URL + "/api/raw-uploads?errors_only=true")
	require.NoError(t, err)
	defer failing.Body.Close()
	rows = nil
	require.NoError(t, json.NewDecoder(failing.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.False(t, rows[0].ParseOK)
	assert.Equal(t, "dead", rows[0].RequestHex)
}
