package acquire

import (
	"strings"
	"unicode"
)

const archiveSuffix = ".tar.gz"

// ArchiveName derives a filesystem-safe archive file name from an
// app's display name: alphanumerics are lower-cased, whitespace maps
// to underscore, everything else is dropped. The derivation is
// deterministic, so repeated runs produce the same name.
func ArchiveName(display string) string {
	var b strings.Builder
	for _, r := range display {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	return b.String() + archiveSuffix
}
