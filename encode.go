package pptxunlock

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Function variables for testing injection.
var (
	zipCreateHeader = func(zw *zip.Writer, fh *zip.FileHeader) (io.Writer, error) { return zw.CreateHeader(fh) }
	zipClose        = func(zw *zip.Writer) error { return zw.Close() }
)

// Write serializes p as a ZIP container.
//
// Entries are written in package order. File entries are deflated at the
// level set by WithDeflateLevel; directory entries are stored. Entry
// modification times, comments and external attributes are preserved.
// Write returns ErrInvalidArchive if an entry name is unsafe or duplicated.
func (p *Package) Write(w io.Writer, opts ...Option) error {
	cfg := newConfig(opts)
	return writePackage(w, p, cfg.deflateLevel)
}

func writePackage(w io.Writer, p *Package, level int) error {
	if err := validatePackage(p); err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	if p.Comment != "" {
		if err := zw.SetComment(p.Comment); err != nil {
			_ = zipClose(zw)
			return err
		}
	}
	for _, e := range p.Entries {
		fh := &zip.FileHeader{
			Name:          e.Name,
			Comment:       e.Comment,
			Modified:      e.Modified,
			ExternalAttrs: e.ExternalAttrs,
			Method:        zip.Deflate,
		}
		if e.IsDir() {
			fh.Method = zip.Store
		}
		ew, err := zipCreateHeader(zw, fh)
		if err != nil {
			_ = zipClose(zw)
			return err
		}
		if e.IsDir() {
			continue
		}
		if _, err := ew.Write(e.Data); err != nil {
			_ = zipClose(zw)
			return err
		}
	}
	return zipClose(zw)
}

// EncodeBackup reads src to EOF and writes it to w framed as a backup,
// compressed with comp. The header records the original length and its
// SHA-256.
//
// If w is an io.WriteSeeker, such as an *os.File, the payload is streamed
// straight into w and the header is filled in afterwards. Otherwise the
// compressed payload is held in memory until the header is known.
func EncodeBackup(w io.Writer, src io.Reader, comp Compression) error {
	if ws, ok := w.(io.WriteSeeker); ok {
		return encodeBackupSeekable(ws, src, comp)
	}
	var payload bytes.Buffer
	h, err := encodePayload(&payload, src, comp)
	if err != nil {
		return err
	}
	if err := writeBackupHeader(w, h); err != nil {
		return err
	}
	_, err = payload.WriteTo(w)
	return err
}

// encodeBackupSeekable reserves the header with zeros, which never decode as
// a backup, and rewrites it once the payload is complete.
func encodeBackupSeekable(ws io.WriteSeeker, src io.Reader, comp Compression) error {
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := writeBackupHeader(ws, backupHeaderV1{}); err != nil {
		return err
	}
	h, err := encodePayload(ws, src, comp)
	if err != nil {
		return err
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := ws.Seek(start, io.SeekStart); err != nil {
		return err
	}
	if err := writeBackupHeader(ws, h); err != nil {
		return err
	}
	_, err = ws.Seek(end, io.SeekStart)
	return err
}

// encodePayload compresses src into w and returns the header describing it.
func encodePayload(w io.Writer, src io.Reader, comp Compression) (backupHeaderV1, error) {
	out := &countingWriter{w: w}
	pw, err := newPayloadWriter(comp, out)
	if err != nil {
		return backupHeaderV1{}, err
	}
	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(pw, sum), src)
	if err != nil {
		_ = pw.Close()
		return backupHeaderV1{}, err
	}
	if err := pw.Close(); err != nil {
		return backupHeaderV1{}, err
	}
	h := backupHeaderV1{
		Magic:       BackupMagic,
		Version:     VersionV1,
		Flags:       uint16(comp),
		HeaderSize:  backupHeaderSizeV1,
		OriginalLen: uint64(n),
		PayloadLen:  out.n,
	}
	copy(h.SHA256[:], sum.Sum(nil))
	return h, nil
}
