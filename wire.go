package pptxunlock

import (
	"encoding/binary"
	"io"
)

// backupHeaderV1 is the fixed header that precedes every backup payload.
type backupHeaderV1 struct {
	Magic       [8]byte
	Version     uint16
	Flags       uint16
	HeaderSize  uint32
	OriginalLen uint64
	PayloadLen  uint64
	SHA256      [32]byte
}

func readBackupHeader(r io.Reader) (backupHeaderV1, error) {
	var buf [backupHeaderSizeV1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return backupHeaderV1{}, err
	}
	var h backupHeaderV1
	copy(h.Magic[:], buf[0:8])
	h.Version = binary.LittleEndian.Uint16(buf[8:10])
	h.Flags = binary.LittleEndian.Uint16(buf[10:12])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[12:16])
	h.OriginalLen = binary.LittleEndian.Uint64(buf[16:24])
	h.PayloadLen = binary.LittleEndian.Uint64(buf[24:32])
	copy(h.SHA256[:], buf[32:64])
	return h, nil
}

func writeBackupHeader(w io.Writer, h backupHeaderV1) error {
	var buf [backupHeaderSizeV1]byte
	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint16(buf[8:10], h.Version)
	binary.LittleEndian.PutUint16(buf[10:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.HeaderSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.OriginalLen)
	binary.LittleEndian.PutUint64(buf[24:32], h.PayloadLen)
	copy(buf[32:64], h.SHA256[:])
	_, err := w.Write(buf[:])
	return err
}

func (h backupHeaderV1) compression() Compression {
	return Compression(h.Flags & backupFlagCompressionMask)
}
