package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaria/ariad/pkg/models"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	st, err := New(&Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	return st
}

const testMAC = "AA:BB:CC:DD:EE:FF"

func testUpsert() ScaleUpsert {
	return ScaleUpsert{
		MAC:             testMAC,
		Serial:          "aabbccddeeff",
		FirmwareVersion: 39,
		ProtocolVersion: 3,
		BatteryPercent:  85,
	}
}

func TestUpsertScaleCreatesAndUpdates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	scale, err := st.UpsertScale(ctx, testUpsert())
	require.NoError(t, err)
	assert.Equal(t, testMAC, scale.MACAddress)
	assert.Equal(t, uint8(85), scale.BatteryPercent)
	assert.False(t, scale.FirstSeen.IsZero())

	// Second contact updates the mutable fields but keeps first-seen.
	up := testUpsert()
	up.BatteryPercent = 60
	up.FirmwareVersion = 40
	updated, err := st.UpsertScale(ctx, up)
	require.NoError(t, err)
	assert.Equal(t, scale.ID, updated.ID)
	assert.Equal(t, uint8(60), updated.BatteryPercent)
	assert.Equal(t, uint8(40), updated.FirmwareVersion)

	stored, err := st.GetScale(ctx, testMAC)
	require.NoError(t, err)
	assert.Equal(t, scale.FirstSeen.Unix(), stored.FirstSeen.Unix())
	assert.Equal(t, uint8(60), stored.BatteryPercent)

	scales, err := st.ListScales(ctx)
	require.NoError(t, err)
	assert.Len(t, scales, 1)
}

func TestUpsertScaleOptionalFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.UpsertScale(ctx, testUpsert())
	require.NoError(t, err)

	ssid := "home-wifi"
	auth := "00112233445566778899aabbccddeeff"
	up := testUpsert()
	up.SSID = &ssid
	up.AuthCode = &auth
	_, err = st.UpsertScale(ctx, up)
	require.NoError(t, err)

	scale, err := st.GetScale(ctx, testMAC)
	require.NoError(t, err)
	require.NotNil(t, scale.LastSSID)
	assert.Equal(t, "home-wifi", *scale.LastSSID)
	assert.Equal(t, auth, scale.AuthCode)

	// A later sighting without the optional fields must not erase them.
	_, err = st.UpsertScale(ctx, testUpsert())
	require.NoError(t, err)
	scale, err = st.GetScale(ctx, testMAC)
	require.NoError(t, err)
	require.NotNil(t, scale.LastSSID)
	assert.Equal(t, auth, scale.AuthCode)
}

func TestGetScaleNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetScale(context.Background(), "11:22:33:44:55:66")
	assert.ErrorIs(t, err, models.ErrScaleNotFound)
}

func testMeasurement(id uint32) *models.Measurement {
	return &models.Measurement{
		ScaleMAC:      testMAC,
		MeasurementID: id,
		WeightG:       75300,
		Impedance:     520,
		Timestamp:     1705315840,
		Raw:           []byte{0x01, 0x02, 0x03},
		ReceivedAt:    time.Now().UTC(),
	}
}

func TestInsertMeasurementIfAbsent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	inserted, existing, err := st.InsertMeasurementIfAbsent(ctx, testMeasurement(1))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Nil(t, existing)

	// Same (MAC, ID) again: not inserted, original returned.
	dup := testMeasurement(1)
	dup.WeightG = 99999
	inserted, existing, err = st.InsertMeasurementIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NotNil(t, existing)
	assert.Equal(t, uint32(75300), existing.WeightG)

	// Different ID inserts independently.
	inserted, _, err = st.InsertMeasurementIfAbsent(ctx, testMeasurement(2))
	require.NoError(t, err)
	assert.True(t, inserted)

	rows, err := st.ListMeasurements(ctx, MeasurementFilter{ScaleMAC: testMAC})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListMeasurementsNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, ts := range []uint32{100, 300, 200} {
		m := testMeasurement(uint32(i + 1))
		m.Timestamp = ts + 1420070400 // offset into plausible range
		_, _, err := st.InsertMeasurementIfAbsent(ctx, m)
		require.NoError(t, err)
	}

	rows, err := st.ListMeasurements(ctx, MeasurementFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Timestamp >= rows[1].Timestamp)
	assert.True(t, rows[1].Timestamp >= rows[2].Timestamp)

	latest, err := st.LatestMeasurement(ctx, MeasurementFilter{})
	require.NoError(t, err)
	assert.Equal(t, rows[0].MeasurementID, latest.MeasurementID)

	// Pagination
	page, err := st.ListMeasurements(ctx, MeasurementFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, rows[1].MeasurementID, page[0].MeasurementID)
}

func TestLatestMeasurementNotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.LatestMeasurement(context.Background(), MeasurementFilter{})
	assert.ErrorIs(t, err, models.ErrMeasurementNotFound)
}

func TestCreateUserAssignsLowestFreeSlot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, UserCreate{Name: "Alice", HeightMM: 1650, Age: 30, Gender: models.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), alice.ScaleSlot)

	bob, err := st.CreateUser(ctx, UserCreate{Name: "Bob", HeightMM: 1800, Age: 35, Gender: models.GenderMale})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), bob.ScaleSlot)

	// Deleting Alice frees slot 0 for the next create.
	require.NoError(t, st.DeleteUser(ctx, alice.ID))
	carol, err := st.CreateUser(ctx, UserCreate{Name: "Carol", HeightMM: 1700, Age: 28, Gender: models.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), carol.ScaleSlot)

	users, err := st.ListUsersBySlot(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Carol", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
}

func TestCreateUserNoFreeSlot(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := st.CreateUser(ctx, UserCreate{Name: "User", HeightMM: 1700, Age: 30})
		require.NoError(t, err)
	}

	_, err := st.CreateUser(ctx, UserCreate{Name: "Ninth", HeightMM: 1700, Age: 30})
	assert.ErrorIs(t, err, models.ErrNoFreeSlot)
}

func TestDeleteUserNotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.DeleteUser(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRawUploadLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	raw := &models.RawUpload{
		ReceivedAt:   time.Now().UTC(),
		ScaleMAC:     testMAC,
		RequestBytes: []byte{0x03, 0x00},
	}
	require.NoError(t, st.RecordRawUpload(ctx, raw))
	require.NotZero(t, raw.ID)

	raw.ParseOK = true
	raw.Error = "crc_mismatch"
	raw.ResponseBytes = []byte{0x66, 0x00}
	require.NoError(t, st.UpdateRawUpload(ctx, raw))

	rows, err := st.ListRawUploads(ctx, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ParseOK)
	assert.Equal(t, "crc_mismatch", rows[0].Error)
	assert.Equal(t, []byte{0x66, 0x00}, rows[0].ResponseBytes)

	// errors_only filters clean rows out.
	clean := &models.RawUpload{ReceivedAt: time.Now().UTC(), RequestBytes: []byte{0x01}}
	require.NoError(t, st.RecordRawUpload(ctx, clean))

	errRows, err := st.ListRawUploads(ctx, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, errRows, 1)
	assert.Equal(t, raw.ID, errRows[0].ID)
}

func TestTransactionRollback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sentinel := assert.AnError
	err := st.Transaction(ctx, func(tx Store) error {
		if _, err := tx.UpsertScale(ctx, testUpsert()); err != nil {
			return err
		}
		if err := tx.RecordRawUpload(ctx, &models.RawUpload{ReceivedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = st.GetScale(ctx, testMAC)
	assert.ErrorIs(t, err, models.ErrScaleNotFound)
	rows, err := st.ListRawUploads(ctx, false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
