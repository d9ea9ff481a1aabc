package mediafold

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// SignatureParam carries the capability signature on read URLs.
	SignatureParam = "sig"
	// ExpiresParam carries the capability expiry (unix seconds) on read URLs.
	ExpiresParam = "expires"

	// MaxTTL bounds capability lifetime to 30 days.
	MaxTTL = 30 * 24 * time.Hour
)

// Outcome is the result of verifying a presented capability. Exactly three
// outcomes exist, each with a distinct externally observable status.
type Outcome int

const (
	// OutcomeInvalid means the signature does not match. No retry is
	// possible without a new capability.
	OutcomeInvalid Outcome = iota
	// OutcomeExpired means the signature matches but the capability has
	// passed its expiry. Retry requires re-issuance.
	OutcomeExpired
	// OutcomeValid means the resource may be served, read-only.
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Capability is a stateless, time-limited read grant for one resource path.
// It is minted on demand and never persisted; the signature is recomputed
// per request from the shared secret.
type Capability struct {
	ResourcePath string
	Expires      int64
	Signature    string
}

// Query returns the query parameters that carry this capability.
func (c Capability) Query() url.Values {
	q := url.Values{}
	q.Set(SignatureParam, c.Signature)
	q.Set(ExpiresParam, strconv.FormatInt(c.Expires, 10))
	return q
}

// Signer mints read capabilities. The secret is process-wide and read-only
// after initialization; Sign is safe for concurrent use.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a Signer over the given shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign mints a capability for resourcePath valid for ttl from now.
// TTLs outside (0, MaxTTL] are an error.
func (s *Signer) Sign(resourcePath string, ttl time.Duration) (Capability, error) {
	if resourcePath == "" {
		return Capability{}, fmt.Errorf("sign capability: %w: resource path cannot be empty", ErrInvalidInput)
	}
	if ttl <= 0 || ttl > MaxTTL {
		return Capability{}, fmt.Errorf("sign capability: %w: ttl must be in (0, %s]", ErrInvalidInput, MaxTTL)
	}

	expires := s.now().Add(ttl).Unix()
	return Capability{
		ResourcePath: resourcePath,
		Expires:      expires,
		Signature:    computeSignature(s.secret, expires, resourcePath),
	}, nil
}

// Verifier validates presented capabilities at the proxy boundary,
// independent of any write-credential state. Verification is a pure
// function of its inputs plus the server clock; any number of calls may
// proceed in parallel.
type Verifier struct {
	secret []byte
	skew   time.Duration
}

// NewVerifier creates a Verifier over the shared secret. skew is the
// tolerated clock difference when checking expiry.
func NewVerifier(secret string, skew time.Duration) *Verifier {
	if skew < 0 {
		skew = 0
	}
	return &Verifier{secret: []byte(secret), skew: skew}
}

// Verify checks a presented signature and expiry against server-local time.
// The signature is compared first so that a tampered capability is always
// Invalid, never Expired.
func (v *Verifier) Verify(resourcePath, presentedSig string, expires int64, now time.Time) Outcome {
	if presentedSig == "" {
		return OutcomeInvalid
	}

	expected := computeSignature(v.secret, expires, resourcePath)
	if !hmac.Equal([]byte(expected), []byte(presentedSig)) {
		return OutcomeInvalid
	}

	if !now.Before(time.Unix(expires, 0).Add(v.skew)) {
		return OutcomeExpired
	}

	return OutcomeValid
}

// VerifyQuery extracts the capability parameters from query values and
// verifies them. Missing or malformed parameters yield OutcomeInvalid.
func (v *Verifier) VerifyQuery(resourcePath string, query url.Values, now time.Time) Outcome {
	sig := query.Get(SignatureParam)
	expStr := query.Get(ExpiresParam)
	if sig == "" || expStr == "" {
		return OutcomeInvalid
	}

	expires, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return OutcomeInvalid
	}

	return v.Verify(resourcePath, sig, expires, now)
}

// computeSignature is a keyed MAC over the concatenation of the expiry
// timestamp and the resource path.
func computeSignature(secret []byte, expires int64, resourcePath string) string {
	h := hmac.New(sha256.New, secret)
	fmt.Fprintf(h, "%d%s", expires, resourcePath)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
