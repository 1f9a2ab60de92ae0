package aria

import "encoding/binary"

// EncodeResponse serializes a response frame: payload, CRC-16/XMODEM over
// the payload, then the 0x66 0x00 trailer. The result is always exactly
// ResponseSize bytes; the scale rejects anything else.
//
// User block layout (13 bytes, big-endian): slot, height mm, age, gender,
// min weight g, max weight g. Empty slots are zero-filled.
func EncodeResponse(r *Response) []byte {
	buf := make([]byte, ResponseSize)

	binary.BigEndian.PutUint32(buf[0:4], r.Timestamp)
	buf[4] = byte(r.Unit)
	buf[5] = r.Status

	for i, u := range r.Users {
		b := buf[6+i*UserBlockSize : 6+(i+1)*UserBlockSize]
		b[0] = u.Slot
		binary.BigEndian.PutUint16(b[1:3], u.HeightMM)
		b[3] = u.Age
		b[4] = u.Gender
		binary.BigEndian.PutUint32(b[5:9], u.MinWeightG)
		binary.BigEndian.PutUint32(b[9:13], u.MaxWeightG)
	}

	crcEnd := ResponseSize - CRCSize - 2
	binary.BigEndian.PutUint16(buf[crcEnd:crcEnd+2], CRC16(buf[:crcEnd]))
	buf[ResponseSize-2] = Trailer[0]
	buf[ResponseSize-1] = Trailer[1]

	return buf
}

// EncodeUpload serializes an upload frame the way the scale would. Used by
// tests and capture tooling; the server itself only parses uploads.
func EncodeUpload(f *UploadFrame) []byte {
	size := HeaderSize + MetadataSize + len(f.Measurements)*MeasurementSize + CRCSize
	buf := make([]byte, size)

	buf[0] = f.ProtocolVersion
	buf[8] = f.Battery
	copy(buf[9:15], f.MAC[:])
	copy(buf[15:HeaderSize], f.HeaderReserved[:])

	// The auth code overlaps the reserved regions from offset 14; write it
	// over the header tail, then put the last MAC byte back at offset 14,
	// which the parser reads as both MAC[5] and AuthCode[0].
	copy(buf[AuthCodeOffset:AuthCodeOffset+AuthCodeSize], f.AuthCode[:])
	buf[14] = f.MAC[5]

	buf[HeaderSize] = f.FirmwareVersion
	binary.BigEndian.PutUint32(buf[HeaderSize+1:HeaderSize+5], f.ScaleTime)
	binary.BigEndian.PutUint16(buf[HeaderSize+5:HeaderSize+7], uint16(len(f.Measurements)))
	copy(buf[HeaderSize+7:HeaderSize+MetadataSize], f.MetadataReserved[:])

	for i := range f.Measurements {
		putMeasurement(buf[HeaderSize+MetadataSize+i*MeasurementSize:], &f.Measurements[i])
	}

	binary.BigEndian.PutUint16(buf[size-CRCSize:], CRC16(buf[:size-CRCSize]))
	return buf
}

// EncodeMeasurementRecord serializes one measurement to its 32-byte wire
// form. The ingestion pipeline stores this alongside the row so a
// re-upload of the same measurement ID can be compared byte for byte.
func EncodeMeasurementRecord(m *Measurement) []byte {
	rec := make([]byte, MeasurementSize)
	putMeasurement(rec, m)
	return rec
}

func putMeasurement(rec []byte, m *Measurement) {
	binary.BigEndian.PutUint32(rec[0:4], m.ID)
	binary.BigEndian.PutUint16(rec[4:6], m.Impedance)
	binary.BigEndian.PutUint32(rec[6:10], m.WeightG)
	binary.BigEndian.PutUint32(rec[10:14], m.Timestamp)
	rec[14] = m.UserSlot
	binary.BigEndian.PutUint16(rec[15:17], m.FatRaw1)
	binary.BigEndian.PutUint16(rec[17:19], m.FatRaw2)
	binary.BigEndian.PutUint16(rec[19:21], m.Covariance)
	copy(rec[21:MeasurementSize], m.Reserved[:])
}
