package pptxunlock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Function variables for testing injection.
var (
	newZstdWriter = func(w io.Writer) (*zstd.Encoder, error) { return zstd.NewWriter(w) }
	newZstdReader = func(r io.Reader) (*zstd.Decoder, error) {
		return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	}
)

// backupMember is the single entry name used by CompZIP backups.
const backupMember = "original.pptx"

// newPayloadWriter returns a writer that compresses everything written to it
// into w. Close flushes the final frame; it does not close w.
func newPayloadWriter(comp Compression, w io.Writer) (io.WriteCloser, error) {
	switch comp {
	case CompNone:
		return nopWriteCloser{w}, nil
	case CompZIP:
		return newZipMemberWriter(w)
	case CompZSTD:
		return newZstdWriter(w)
	case CompLZ4:
		return lz4.NewWriter(w), nil
	case CompBR:
		return brotli.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidBackup, comp)
	}
}

// newPayloadReader returns a reader of the decompressed payload in r, which
// must yield exactly the payload bytes.
func newPayloadReader(comp Compression, r io.Reader) (io.ReadCloser, error) {
	switch comp {
	case CompNone:
		return io.NopCloser(r), nil
	case CompZIP:
		return openZipMember(r)
	case CompZSTD:
		dec, err := newZstdReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompBR:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidBackup, comp)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// zipMemberWriter deflates into the single backupMember of a ZIP archive.
type zipMemberWriter struct {
	io.Writer
	zw *zip.Writer
}

func newZipMemberWriter(w io.Writer) (io.WriteCloser, error) {
	zw := zip.NewWriter(w)
	mw, err := zipCreateHeader(zw, &zip.FileHeader{Name: backupMember, Method: zip.Deflate})
	if err != nil {
		_ = zipClose(zw)
		return nil, err
	}
	return &zipMemberWriter{Writer: mw, zw: zw}, nil
}

func (z *zipMemberWriter) Close() error { return zipClose(z.zw) }

// openZipMember reads a CompZIP payload. The central directory sits at the
// end of the archive, so the payload is buffered before the member is opened.
func openZipMember(r io.Reader) (io.ReadCloser, error) {
	b, err := readAll(r)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip payload has %d entries, want 1", ErrInvalidBackup, len(zr.File))
	}
	zf := zr.File[0]
	if zf.Name != backupMember || zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("%w: zip payload entry %q, want file %s", ErrInvalidBackup, zf.Name, backupMember)
	}
	return zipOpen(zf)
}

// countingWriter records how many bytes reached w.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// payloadReader reports every failed read of a backup payload as
// ErrInvalidBackup, so that io.Copy callers can tell it from a write failure.
type payloadReader struct{ r io.Reader }

func (p payloadReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err != nil && err != io.EOF && !errors.Is(err, ErrInvalidBackup) {
		err = fmt.Errorf("%w: payload: %w", ErrInvalidBackup, err)
	}
	return n, err
}
