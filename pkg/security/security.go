// Package security validates the identity a plugin presents to the host.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// ErrInvalidSignature is wrapped by every validation failure.
var ErrInvalidSignature = errors.New("security: invalid plugin signature")

// MaxSignatureLen is the longest signature the host buffer holds.
const MaxSignatureLen = 255

var labelRE = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_-]*[A-Za-z0-9])?$`)

// ReverseDNS accepts signatures such as "com.example.demo": at least two
// dot-separated labels of letters, digits, '-' and '_'.
type ReverseDNS struct {
	// Reserved lists signature prefixes no plugin may claim, such as the
	// simulator vendor's own.
	Reserved []string
}

// DefaultValidator rejects the simulator vendor's namespace.
func DefaultValidator() *ReverseDNS {
	return &ReverseDNS{Reserved: []string{"xplanesdk.", "com.laminarresearch."}}
}

func (v *ReverseDNS) ValidateSignature(signature string) error {
	if signature == "" || len(signature) > MaxSignatureLen {
		return fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}
	labels := strings.Split(signature, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: %q is not reverse-DNS", ErrInvalidSignature, signature)
	}
	for _, l := range labels {
		if !labelRE.MatchString(l) {
			return fmt.Errorf("%w: bad label %q in %q", ErrInvalidSignature, l, signature)
		}
	}
	lower := strings.ToLower(signature)
	for _, p := range v.Reserved {
		if strings.HasPrefix(lower, p) {
			return fmt.Errorf("%w: %q is reserved", ErrInvalidSignature, p)
		}
	}
	return nil
}

// Unique wraps a validator and also rejects signatures already claimed in the
// same process, which the host would refuse to load.
type Unique struct {
	next    interface{ ValidateSignature(string) error }
	claimed cmap.ConcurrentMap[string, struct{}]
}

// NewUnique returns a Unique delegating format checks to next.
func NewUnique(next interface{ ValidateSignature(string) error }) *Unique {
	return &Unique{next: next, claimed: cmap.New[struct{}]()}
}

// ValidateSignature checks the format and claims the signature.
func (u *Unique) ValidateSignature(signature string) error {
	if u.next != nil {
		if err := u.next.ValidateSignature(signature); err != nil {
			return err
		}
	}
	if !u.claimed.SetIfAbsent(signature, struct{}{}) {
		return fmt.Errorf("%w: %q already loaded", ErrInvalidSignature, signature)
	}
	return nil
}

// Release gives a signature back, e.g. after the plugin stopped.
func (u *Unique) Release(signature string) {
	u.claimed.Remove(signature)
}
