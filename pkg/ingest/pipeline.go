// Package ingest orchestrates the upload path: record the raw request,
// decode, validate, upsert the scale, insert measurements exactly once, and
// build the binary acknowledgment. One database transaction spans the whole
// ingest, so an aborted request leaves no trace and a committed one is
// complete.
package ingest

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/openaria/ariad/internal/logger"
	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/internal/telemetry"
	"github.com/openaria/ariad/pkg/metrics"
	"github.com/openaria/ariad/pkg/models"
	"github.com/openaria/ariad/pkg/store"
)

// ErrStoreUnavailable wraps persistence failures so the HTTP adapter can
// answer 503 and let the scale retry. Nothing was committed when this comes
// back: the raw-upload row rolls back with the rest of the transaction.
var ErrStoreUnavailable = errors.New("store unavailable")

// Pipeline processes scale uploads. Safe for concurrent use; uploads from
// distinct scales run in parallel and rely on the store's unique indexes
// for consistency.
type Pipeline struct {
	store   store.Store
	unit    aria.Unit
	metrics metrics.IngestMetrics

	// now is the server clock, injectable for deterministic tests.
	now func() time.Time
}

// New creates a Pipeline. m may be nil to disable metrics.
func New(st store.Store, unit aria.Unit, m metrics.IngestMetrics) *Pipeline {
	return &Pipeline{
		store:   st,
		unit:    unit,
		metrics: m,
		now:     time.Now,
	}
}

// Result summarizes one processed upload for logging and tests. The
// Response bytes are what the scale receives regardless of outcome.
type Result struct {
	Response   []byte
	ParseOK    bool
	Flags      []string
	Inserted   int
	Duplicates int
	Conflicts  int
	Skipped    int
}

// HandleUpload runs the full ingest for one request body and returns the
// response frame. The only error it returns is ErrStoreUnavailable
// (wrapped); every decode or validation problem still yields a well-formed
// response because the scale retries forever otherwise.
func (p *Pipeline) HandleUpload(ctx context.Context, body []byte) (*Result, error) {
	start := p.now()

	ctx, span := telemetry.Tracer().Start(ctx, "ingest.upload")
	defer span.End()
	span.SetAttributes(attribute.Int("upload.bytes", len(body)))

	var res *Result
	err := p.store.Transaction(ctx, func(tx store.Store) error {
		var txErr error
		res, txErr = p.ingest(ctx, tx, body)
		return txErr
	})
	if err != nil {
		p.record("store_error", start)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if res.ParseOK {
		p.record("ok", start)
	} else {
		p.record("decode_error", start)
	}
	if p.metrics != nil {
		p.metrics.RecordMeasurements(res.Inserted, res.Duplicates, res.Conflicts, res.Skipped)
		for _, f := range res.Flags {
			p.metrics.RecordFlag(f)
		}
	}
	return res, nil
}

func (p *Pipeline) record(outcome string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordUpload(outcome, p.now().Sub(start))
	}
}

// ingest is the transactional body of HandleUpload.
func (p *Pipeline) ingest(ctx context.Context, tx store.Store, body []byte) (*Result, error) {
	now := p.now().UTC()

	raw := &models.RawUpload{
		ReceivedAt:   now,
		RequestBytes: body,
	}
	if mac, ok := aria.ExtractMAC(body); ok {
		raw.ScaleMAC = mac.String()
	}
	if err := tx.RecordRawUpload(ctx, raw); err != nil {
		return nil, err
	}

	frame, err := aria.ParseUpload(body)
	if err != nil {
		// The scale must still get a valid acknowledgment or it loops;
		// answer with an empty user list and record the failure.
		logger.Warn("upload decode failed", "mac", raw.ScaleMAC, "error", err)
		resp := aria.EncodeResponse(&aria.Response{
			Timestamp: uint32(now.Unix()),
			Unit:      p.unit,
		})
		raw.Error = err.Error()
		raw.ResponseBytes = resp
		if err := tx.UpdateRawUpload(ctx, raw); err != nil {
			return nil, err
		}
		return &Result{Response: resp}, nil
	}

	report := aria.Validate(frame, now)
	res := &Result{ParseOK: true}

	if !report.Has(aria.FlagBadMAC) {
		authCode := hex.EncodeToString(frame.AuthCode[:])
		scaleUp := store.ScaleUpsert{
			MAC:             frame.MAC.String(),
			Serial:          frame.MAC.Serial(),
			FirmwareVersion: frame.FirmwareVersion,
			ProtocolVersion: frame.ProtocolVersion,
			BatteryPercent:  report.Battery,
			AuthCode:        &authCode,
		}
		if _, err := tx.UpsertScale(ctx, scaleUp); err != nil {
			return nil, err
		}

		res.Skipped = len(frame.Measurements) - len(report.Valid)
		if err := p.insertMeasurements(ctx, tx, frame, report.Valid, now, res); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("upload with unusable MAC", "mac", frame.MAC.String())
	}

	users, err := tx.ListUsersBySlot(ctx)
	if err != nil {
		return nil, err
	}
	resp := aria.EncodeResponse(BuildResponse(users, p.unit, now))
	res.Response = resp
	res.Flags = report.Flags()

	raw.ScaleMAC = frame.MAC.String()
	raw.ParseOK = true
	raw.Error = report.FlagString()
	raw.ResponseBytes = resp
	if err := tx.UpdateRawUpload(ctx, raw); err != nil {
		return nil, err
	}

	logger.Info("upload ingested",
		"mac", frame.MAC.String(),
		"firmware", frame.FirmwareVersion,
		"battery", report.Battery,
		"measurements", len(frame.Measurements),
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"flags", raw.Error,
	)
	return res, nil
}

// insertMeasurements writes the surviving measurements, deduplicating on
// the (MAC, ID) unique index. A re-upload with identical bytes is a no-op;
// one with different bytes keeps the original row and logs a conflict.
func (p *Pipeline) insertMeasurements(ctx context.Context, tx store.Store, frame *aria.UploadFrame, valid []aria.Measurement, now time.Time, res *Result) error {
	mac := frame.MAC.String()
	for i := range valid {
		m := &valid[i]
		row := &models.Measurement{
			ScaleMAC:       mac,
			MeasurementID:  m.ID,
			WeightG:        m.WeightG,
			Impedance:      m.Impedance,
			FatRaw1:        m.FatRaw1,
			FatRaw2:        m.FatRaw2,
			Covariance:     m.Covariance,
			BodyFatPercent: m.BodyFatPercent(),
			Timestamp:      m.Timestamp,
			UserSlot:       m.UserSlot,
			IsGuest:        m.IsGuest(),
			Raw:            aria.EncodeMeasurementRecord(m),
			ReceivedAt:     now,
		}

		inserted, existing, err := tx.InsertMeasurementIfAbsent(ctx, row)
		if err != nil {
			return err
		}
		switch {
		case inserted:
			res.Inserted++
		case existing != nil && bytes.Equal(existing.Raw, row.Raw):
			res.Duplicates++
		default:
			res.Conflicts++
			logger.Warn("conflicting re-upload, keeping original",
				"mac", mac, "measurement_id", m.ID)
			if err := tx.RecordMeasurementConflict(ctx, &models.MeasurementConflict{
				ScaleMAC:      mac,
				MeasurementID: m.ID,
				Raw:           row.Raw,
				ReceivedAt:    now,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildResponse places each profile in its slot, leaves the rest
// zero-filled, and stamps the server clock and configured unit.
func BuildResponse(users []*models.User, unit aria.Unit, now time.Time) *aria.Response {
	r := &aria.Response{
		Timestamp: uint32(now.Unix()),
		Unit:      unit,
	}
	for _, u := range users {
		if int(u.ScaleSlot) >= aria.UserSlots {
			continue
		}
		r.Users[u.ScaleSlot] = aria.UserBlock{
			Slot:       u.ScaleSlot,
			HeightMM:   u.HeightMM,
			Age:        u.Age,
			Gender:     u.Gender,
			MinWeightG: u.MinWeightG,
			MaxWeightG: u.MaxWeightG,
		}
	}
	return r
}
