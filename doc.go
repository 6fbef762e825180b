// Package pptxunlock removes the modify-password marker from PowerPoint
// (PPTX) packages.
//
// A PPTX file is a ZIP container following the Open Packaging Conventions.
// Write protection is recorded as a single self-closing element in
// ppt/presentation.xml:
//
//	<p:modifyVerifier cryptProviderType="rsaAES" cryptAlgorithmSid="14"
//	    spinCount="100000" saltData="..." hashData="..."/>
//
// Removing the element leaves the presentation editable. Every other entry
// in the package is carried over byte-for-byte.
//
// # Basic Usage
//
// To unlock a file in place:
//
//	res, err := pptxunlock.PatchFile(ctx, "deck.pptx", "")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("removed %d verifier(s)\n", res.Removed)
//
// To work purely in memory:
//
//	out, err := pptxunlock.Patch(src)
//	if err != nil {
//		return err
//	}
//	_ = os.WriteFile("unlocked.pptx", out.Output, 0o644)
//
// A missing ppt/presentation.xml is an error ([ErrMissingEntry]); a package
// with no verifier is patched successfully and Result.Removed is zero.
//
// # Backups
//
// [WithBackup] stores the previous destination bytes next to the output in a
// small framed container (see [EncodeBackup]) compressed with ZIP,
// Zstandard, LZ4 or Brotli. [Restore] writes them back.
//
// # Security Considerations
//
// Packages are read fully into memory. Entry counts and sizes are bounded by
// configurable [Limits], and entry names that are absolute or escape the
// package root are rejected.
package pptxunlock
