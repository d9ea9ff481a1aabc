package mediafold

import (
	"regexp"
	"strings"
)

// authorityPort matches a single port token at the end of a URL's
// authority component, immediately preceding a path separator or the end
// of the string.
var authorityPort = regexp.MustCompile(`^([a-z][a-z0-9+.-]*://[^/:]+):\d+(/|$)`)

// AddressTranslator rewrites internally-resolvable store URLs into ones
// reachable by the calling client (split-horizon addressing). It is a pure
// function of its configuration: no I/O, deterministic, and idempotent as
// long as the external prefix does not itself begin with the internal one.
type AddressTranslator struct {
	internal string
	external string
}

// NewAddressTranslator creates a translator that substitutes internalPrefix
// with externalPrefix. Either prefix may be empty, in which case only the
// port strip is applied.
func NewAddressTranslator(internalPrefix, externalPrefix string) *AddressTranslator {
	return &AddressTranslator{
		internal: strings.TrimSuffix(internalPrefix, "/"),
		external: strings.TrimSuffix(externalPrefix, "/"),
	}
}

// Translate removes exactly one port token immediately preceding a path
// separator, then substitutes the configured internal host prefix with the
// external one.
func (t *AddressTranslator) Translate(raw string) string {
	out := authorityPort.ReplaceAllString(raw, "$1$2")

	if t.internal != "" && strings.HasPrefix(out, t.internal) {
		rest := out[len(t.internal):]
		if rest == "" || strings.HasPrefix(rest, "/") {
			out = t.external + rest
		}
	}

	return out
}
