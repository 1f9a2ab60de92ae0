package aria

import (
	"encoding/binary"
	"fmt"
)

// ExtractMAC pulls the scale MAC out of a raw buffer without decoding the
// rest of the frame. The ingestion pipeline records it on the raw-upload row
// before parsing, so even an undecodable frame is attributable to a device.
func ExtractMAC(data []byte) (MAC, bool) {
	var mac MAC
	if len(data) < 15 {
		return mac, false
	}
	copy(mac[:], data[9:15])
	return mac, true
}

// ParseUpload decodes a v3 upload frame.
//
// Hard failures (ErrShortFrame, ErrBadProtocolVersion,
// ErrBadMeasurementCount) return a nil frame. Recoverable anomalies — CRC
// mismatch, a measurement area shorter than the declared count — come back
// as flags on the frame; callers decide how loudly to complain.
func ParseUpload(data []byte) (*UploadFrame, error) {
	if len(data) < MinUploadSize {
		return nil, decodeError(KindShortFrame, fmt.Sprintf("%d bytes, need at least %d", len(data), MinUploadSize))
	}
	if data[0] != ProtocolVersion {
		return nil, decodeError(KindBadProtocolVersion, fmt.Sprintf("0x%02x", data[0]))
	}

	f := &UploadFrame{
		ProtocolVersion: data[0],
		FirmwareVersion: data[HeaderSize],
		Battery:         data[8],
		ScaleTime:       binary.BigEndian.Uint32(data[HeaderSize+1 : HeaderSize+5]),
		DeclaredCount:   binary.BigEndian.Uint16(data[HeaderSize+5 : HeaderSize+7]),
	}
	copy(f.MAC[:], data[9:15])

	// The authorization code straddles the header/metadata boundary on
	// some firmwares; offset 14 of the combined buffer is authoritative.
	copy(f.AuthCode[:], data[AuthCodeOffset:AuthCodeOffset+AuthCodeSize])

	copy(f.HeaderReserved[:], data[15:HeaderSize])
	copy(f.MetadataReserved[:], data[HeaderSize+7:HeaderSize+MetadataSize])

	if f.DeclaredCount > MaxMeasurements {
		return nil, decodeError(KindBadMeasurementCount, fmt.Sprintf("%d declared, limit %d", f.DeclaredCount, MaxMeasurements))
	}

	// Decode as many whole measurement records as the buffer holds; the
	// last two bytes are the CRC, never measurement payload.
	body := data[HeaderSize+MetadataSize : len(data)-CRCSize]
	avail := len(body) / MeasurementSize
	n := int(f.DeclaredCount)
	if avail < n {
		f.Truncated = true
		n = avail
	}
	if len(body) > n*MeasurementSize {
		f.Surplus = true
	}

	if n > 0 {
		f.Measurements = make([]Measurement, 0, n)
	}
	for i := 0; i < n; i++ {
		rec := body[i*MeasurementSize : (i+1)*MeasurementSize]
		m := Measurement{
			ID:         binary.BigEndian.Uint32(rec[0:4]),
			Impedance:  binary.BigEndian.Uint16(rec[4:6]),
			WeightG:    binary.BigEndian.Uint32(rec[6:10]),
			Timestamp:  binary.BigEndian.Uint32(rec[10:14]),
			UserSlot:   rec[14],
			FatRaw1:    binary.BigEndian.Uint16(rec[15:17]),
			FatRaw2:    binary.BigEndian.Uint16(rec[17:19]),
			Covariance: binary.BigEndian.Uint16(rec[19:21]),
		}
		copy(m.Reserved[:], rec[21:])
		f.Measurements = append(f.Measurements, m)
	}

	want := binary.BigEndian.Uint16(data[len(data)-CRCSize:])
	if CRC16(data[:len(data)-CRCSize]) != want {
		f.CRCMismatch = true
	}

	return f, nil
}

// ParseResponse decodes a response frame. The server never consumes its own
// responses in production; this exists for round-trip verification and for
// tooling that inspects captured traffic.
func ParseResponse(data []byte) (*Response, error) {
	if len(data) < ResponseSize {
		return nil, decodeError(KindShortFrame, fmt.Sprintf("%d bytes, need %d", len(data), ResponseSize))
	}

	r := &Response{
		Timestamp: binary.BigEndian.Uint32(data[0:4]),
		Unit:      Unit(data[4]),
		Status:    data[5],
	}
	for i := 0; i < UserSlots; i++ {
		b := data[6+i*UserBlockSize : 6+(i+1)*UserBlockSize]
		r.Users[i] = UserBlock{
			Slot:       b[0],
			HeightMM:   binary.BigEndian.Uint16(b[1:3]),
			Age:        b[3],
			Gender:     b[4],
			MinWeightG: binary.BigEndian.Uint32(b[5:9]),
			MaxWeightG: binary.BigEndian.Uint32(b[9:13]),
		}
	}
	return r, nil
}
