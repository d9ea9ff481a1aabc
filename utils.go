package mediafold

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidKey validates that a string meets the requirements for an asset
// key. It checks that the key:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20), or DEL (0x7f)
//
// Returns true if the key is valid, false otherwise.
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' {
		return false
	}

	if strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "..") {
		return false
	}

	if strings.Contains(k, "//") {
		return false
	}

	if strings.ContainsAny(k, `\?#~`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if strings.Contains(k, "/./") || strings.HasSuffix(k, "/.") || strings.HasPrefix(k, "./") {
		return false
	}

	for _, r := range k {
		if r == 0 || r < 0x20 || r == 0x7f {
			return false
		}
		if unicode.IsSpace(r) && r != ' ' {
			return false
		}
	}

	return true
}

// IsValidDirKey validates a directory key. The empty string is the root
// directory and is always valid; anything else follows IsValidKey.
func IsValidDirKey(k string) bool {
	return k == "" || IsValidKey(k)
}

// IsHiddenKey reports whether any path segment starts with a dot, so
// dotfiles and everything under dot directories stay out of listings.
func IsHiddenKey(k string) bool {
	for _, segment := range strings.Split(k, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
