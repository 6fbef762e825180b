package pptxunlock

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Function variables for testing injection.
var (
	zipOpen = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll = io.ReadAll
)

// ReadPackage reads every entry of the ZIP container in r.
//
// Stored, Deflate and Zstandard (method 93) entries are supported. ReadPackage
// returns ErrInvalidArchive if r is not a ZIP container, an entry name is
// unsafe or duplicated, or an entry fails its checksum, and ErrLimitExceeded
// if the package breaks the configured [Limits]. Redundant "." and "//"
// segments in entry names are cleaned away; names that would leave the
// package root are rejected.
func ReadPackage(r io.ReaderAt, size int64, opts ...Option) (*Package, error) {
	cfg := newConfig(opts)
	return readPackage(r, size, cfg.limits)
}

func readPackage(r io.ReaderAt, size int64, limits Limits) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	if len(zr.File) > limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrLimitExceeded, len(zr.File))
	}

	pkg := &Package{Comment: zr.Comment, Entries: make([]Entry, 0, len(zr.File))}
	seen := make(map[string]struct{}, len(zr.File))
	var total uint64
	for _, zf := range zr.File {
		name, err := normalizeEntryName(zf.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrInvalidArchive, zf.Name, err)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalidArchive, name)
		}
		seen[name] = struct{}{}

		e := Entry{
			Name:          name,
			Modified:      zf.Modified,
			Comment:       zf.Comment,
			ExternalAttrs: zf.ExternalAttrs,
			Method:        zf.Method,
		}
		if !e.IsDir() {
			limit := limits.MaxEntrySize
			if name == TargetEntry && limits.MaxTargetSize < limit {
				limit = limits.MaxTargetSize
			}
			if zf.UncompressedSize64 > limit {
				return nil, fmt.Errorf("%w: entry %q is %d bytes", ErrLimitExceeded, zf.Name, zf.UncompressedSize64)
			}
			data, err := readEntry(zf, limit)
			if err != nil {
				return nil, err
			}
			total += uint64(len(data))
			if total > limits.MaxTotalSize {
				return nil, fmt.Errorf("%w: package expands beyond %d bytes", ErrLimitExceeded, limits.MaxTotalSize)
			}
			e.Data = data
		}
		pkg.Entries = append(pkg.Entries, e)
	}
	return pkg, nil
}

// readEntry reads at most limit bytes of zf. The declared size is not
// trusted; reading past limit is an error.
func readEntry(zf *zip.File, limit uint64) ([]byte, error) {
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidArchive, zf.Name, err)
	}
	defer rc.Close()
	b, err := readAll(io.LimitReader(rc, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidArchive, zf.Name, err)
	}
	if uint64(len(b)) > limit {
		return nil, fmt.Errorf("%w: entry %q expands beyond %d bytes", ErrLimitExceeded, zf.Name, limit)
	}
	return b, nil
}

// DecodeBackup reads a backup written by EncodeBackup and returns the
// original bytes.
//
// DecodeBackup returns ErrInvalidBackup if the header or payload is
// malformed or the SHA-256 does not match, ErrUnsupportedVersion for
// unknown versions, and ErrLimitExceeded if the declared sizes exceed
// Limits.MaxBackupLength.
func DecodeBackup(r io.Reader, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	var buf bytes.Buffer
	if _, err := decodeBackup(&buf, r, cfg.limits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeBackup streams the original bytes of the backup in r into w. The
// digest is only known to match once decodeBackup returns nil, so w should
// be discarded on error.
func decodeBackup(w io.Writer, r io.Reader, limits Limits) (int64, error) {
	h, err := readBackupHeader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: header: %w", ErrInvalidBackup, err)
	}
	if err := validateBackupHeader(h, limits); err != nil {
		return 0, err
	}
	payload := &io.LimitedReader{R: r, N: int64(h.PayloadLen)}
	pr, err := newPayloadReader(h.compression(), payloadReader{payload})
	if err != nil {
		if errors.Is(err, ErrInvalidBackup) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: payload: %w", ErrInvalidBackup, err)
	}
	defer pr.Close()

	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, sum), payloadReader{io.LimitReader(pr, int64(h.OriginalLen)+1)})
	if err != nil {
		return n, err
	}
	if uint64(n) != h.OriginalLen {
		return n, fmt.Errorf("%w: payload holds %d bytes, header says %d", ErrInvalidBackup, n, h.OriginalLen)
	}
	if subtle.ConstantTimeCompare(sum.Sum(nil), h.SHA256[:]) != 1 {
		return n, fmt.Errorf("%w: SHA256 mismatch", ErrInvalidBackup)
	}
	// A complete stream can end before the declared payload length.
	if _, err := io.Copy(io.Discard, payloadReader{payload}); err != nil {
		return n, err
	}
	if payload.N != 0 {
		return n, fmt.Errorf("%w: payload is %d bytes short", ErrInvalidBackup, payload.N)
	}
	return n, nil
}
