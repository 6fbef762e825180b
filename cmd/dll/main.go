// Package main provides C-compatible exports for the pptxunlock library.
// Build with: go build -buildmode=c-shared -o pptxunlock.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    int   removed;
    int   status;
    char* error;
} PptxUnlockResult;
*/
import "C"

import (
	"context"
	"encoding/json"
	"errors"
	"unsafe"

	"github.com/logicossoftware/go-pptxunlock"
)

// Status codes reported in PptxUnlockResult.status.
const (
	statusOK             = 0
	statusSourceNotFound = 1
	statusMissingEntry   = 2
	statusProcessing     = 3
)

func main() {}

// PptxUnlockBackupVersion returns the backup format version written by this library.
//
//export PptxUnlockBackupVersion
func PptxUnlockBackupVersion() C.uint16_t {
	return C.uint16_t(pptxunlock.VersionV1)
}

// PptxUnlockFreeResult frees memory allocated by other PptxUnlock functions.
// Must be called to avoid memory leaks.
//
//export PptxUnlockFreeResult
func PptxUnlockFreeResult(result C.PptxUnlockResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// PptxUnlockFreeString frees a C string allocated by Go.
//
//export PptxUnlockFreeString
func PptxUnlockFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func statusOf(err error) C.int {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, pptxunlock.ErrSourceNotFound):
		return statusSourceNotFound
	case errors.Is(err, pptxunlock.ErrMissingEntry):
		return statusMissingEntry
	default:
		return statusProcessing
	}
}

// makeResult creates a result with data.
func makeResult(data []byte, removed int) C.PptxUnlockResult {
	var result C.PptxUnlockResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	result.removed = C.int(removed)
	return result
}

// makeError creates a result with an error message and status.
func makeError(err error) C.PptxUnlockResult {
	var result C.PptxUnlockResult
	result.status = statusOf(err)
	result.error = C.CString(err.Error())
	return result
}

// PptxUnlockPatch removes the modify password from an in-memory package.
// Parameters:
//   - data: pointer to .pptx file bytes
//   - dataLen: length of the data
//
// Returns PptxUnlockResult with the rewritten package and the number of
// verifier elements removed, or an error. Call PptxUnlockFreeResult when done.
//
//export PptxUnlockPatch
func PptxUnlockPatch(data *C.char, dataLen C.int) C.PptxUnlockResult {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)

	res, err := pptxunlock.Patch(goData)
	if err != nil {
		return makeError(err)
	}
	return makeResult(res.Output, res.Removed)
}

// PptxUnlockFile removes the modify password from the file at src and writes
// the result to dst. A NULL or empty dst overwrites src.
//
// Returns PptxUnlockResult with no data; status is 0 on success. Call
// PptxUnlockFreeResult when done.
//
//export PptxUnlockFile
func PptxUnlockFile(src *C.char, dst *C.char) C.PptxUnlockResult {
	var d string
	if dst != nil {
		d = C.GoString(dst)
	}
	res, err := pptxunlock.PatchFile(context.Background(), C.GoString(src), d)
	if err != nil {
		return makeError(err)
	}
	return makeResult(nil, res.Removed)
}

// PptxUnlockInspect describes an in-memory package as JSON: its entries and
// any modifyVerifier elements with their attributes.
//
// Returns PptxUnlockResult with the JSON document or an error. Call
// PptxUnlockFreeResult when done.
//
//export PptxUnlockInspect
func PptxUnlockInspect(data *C.char, dataLen C.int) C.PptxUnlockResult {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)

	report, err := pptxunlock.Inspect(goData)
	if err != nil {
		return makeError(err)
	}
	jsonBytes, err := json.Marshal(report)
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes, len(report.Verifiers))
}

// PptxUnlockIsProtected reports whether an in-memory package carries a
// modify password. Returns 1 if protected, 0 if not, -1 on error.
//
//export PptxUnlockIsProtected
func PptxUnlockIsProtected(data *C.char, dataLen C.int) C.int {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)

	report, err := pptxunlock.Inspect(goData)
	if err != nil {
		return -1
	}
	if report.Protected() {
		return 1
	}
	return 0
}

// PptxUnlockRestore writes the original file back from a backup. A NULL or
// empty dst restores next to the backup without its .bak suffix.
// Returns NULL on success, or an error message string on failure.
// Call PptxUnlockFreeString on the result if non-NULL.
//
//export PptxUnlockRestore
func PptxUnlockRestore(backup *C.char, dst *C.char) *C.char {
	var d string
	if dst != nil {
		d = C.GoString(dst)
	}
	if err := pptxunlock.Restore(context.Background(), C.GoString(backup), d); err != nil {
		return C.CString(err.Error())
	}
	return nil
}
