package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	defaultPeriod = 360
	defaultDigits = 6
)

// Generator produces codes for a single secret. The zero value is not
// usable; construct through New.
type Generator struct {
	secret []byte
	period int
	digits int
	clock  func() time.Time
}

// Option adjusts a Generator during construction.
type Option func(*Generator)

// WithPeriod sets the window length in seconds.
func WithPeriod(seconds int) Option {
	return func(g *Generator) {
		if seconds > 0 {
			g.period = seconds
		}
	}
}

// WithDigits sets the code length.
func WithDigits(digits int) Option {
	return func(g *Generator) {
		if digits > 0 {
			g.digits = digits
		}
	}
}

// WithClock replaces the time source. Tests use this to pin windows.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// New builds a Generator over secret with a 360 second window and
// 6 digits unless options say otherwise.
func New(secret []byte, opts ...Option) *Generator {
	g := &Generator{
		secret: secret,
		period: defaultPeriod,
		digits: defaultDigits,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Code returns the code for the current window.
func (g *Generator) Code() string {
	return hotpCode(g.secret, g.counter(), g.digits)
}

// Verify reports whether code matches the current window. Comparison is
// constant time; malformed input fails before any HMAC work.
func (g *Generator) Verify(code string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != g.digits || !isNumericString(trimmed) {
		return false
	}
	if len(g.secret) == 0 {
		return false
	}

	generated := hotpCode(g.secret, g.counter(), g.digits)
	return subtle.ConstantTimeCompare([]byte(generated), []byte(trimmed)) == 1
}

// SecondsUntilRotation returns how many seconds remain before the
// current window rolls over and the code changes. Zero exactly at the
// rollover instant.
func (g *Generator) SecondsUntilRotation() int {
	elapsed := int(g.clock().Unix() % int64(g.period))
	return (g.period - elapsed) % g.period
}

func (g *Generator) counter() int64 {
	return g.clock().Unix() / int64(g.period)
}

// DeriveSecret produces a per-user secret from a master secret, so a
// code minted for one account never validates for another.
func DeriveSecret(master []byte, userID int64) []byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(userID))

	mac := hmac.New(sha256.New, master)
	_, _ = mac.Write(id[:])
	return mac.Sum(nil)
}

// hotpCode is RFC 4226 dynamic truncation over HMAC-SHA1.
func hotpCode(secret []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func isNumericString(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
