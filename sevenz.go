// Package sevenz reads and writes archives behind a small handle-based API.
//
// A [Reader] is an open archive session: enumerate items, extract one to
// memory or to disk, or extract everything with progress and cancellation.
// A [Writer] queues items and writes the container in one pass at Finalize.
// [ExtractArchive] and [CreateArchive] are the one-shot forms.
//
// Supported containers are 7z (read), zip, tar and its compressed variants
// (tar.gz, tar.bz2, tar.xz, tar.zst), bare gzip/bzip2/xz/zstd streams
// (surfaced as one-item archives), and rar (read). Encrypted 7z and zip
// archives open with a password; zip output can be encrypted.
//
// Every failure is an *[Error] carrying a [Code] from a small closed
// taxonomy, so callers branch on CodeOf(err) rather than string matching.
package sevenz

// Version is the semantic version of this library.
const Version = "1.0.0"

// VersionNumber encodes Version as major*10000 + minor*100 + patch for cheap
// ordered comparison.
const VersionNumber = 10000

// IsFormatSupported reports whether archives of the given format can be
// opened for reading.
func IsFormatSupported(f Format) bool {
	return f.CanRead()
}
