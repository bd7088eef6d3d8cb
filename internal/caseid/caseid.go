// Package caseid generates the human-readable identifiers the workspace
// hands to people: issue case IDs ("ISS-XXXXXX") and one-time project-lead
// passwords ("Lead@xxxxxx").
package caseid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// CasePrefix starts every issue case ID.
	CasePrefix = "ISS-"

	// caseAlphabet deliberately excludes I, O, 0 and 1 — a case ID gets
	// read over the phone and typed back in, so ambiguous glyphs are out.
	caseAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// passwordAlphabet for temporary lead credentials; same ambiguity rule,
	// both cases allowed.
	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

	suffixLength = 6

	// TempPasswordPrefix starts every generated lead credential.
	TempPasswordPrefix = "Lead@"
)

// NewCaseID returns a fresh case ID, e.g. "ISS-A3F9B2".
//
// No collision check is made against existing cases: the 32^6 space
// (~1.07e9) makes a clash negligible at workspace scale, and the ledger's
// insert surfaces a duplicate key as an error rather than overwriting.
func NewCaseID() (string, error) {
	suffix, err := randomString(suffixLength, caseAlphabet)
	if err != nil {
		return "", fmt.Errorf("generate case id: %w", err)
	}
	return CasePrefix + suffix, nil
}

// NewTempPassword returns a one-time lead credential, e.g. "Lead@X7k2mQ".
func NewTempPassword() (string, error) {
	suffix, err := randomString(suffixLength, passwordAlphabet)
	if err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}
	return TempPasswordPrefix + suffix, nil
}

// Normalize maps user input to canonical case-ID form: surrounding
// whitespace dropped, letters uppercased. " iss-a3f9b2 " and "ISS-A3F9B2"
// normalize identically, which is what makes lookup case-insensitive.
func Normalize(caseID string) string {
	return strings.ToUpper(strings.TrimSpace(caseID))
}

// ValidCaseID reports whether s (already normalized) is a well-formed
// case ID: the prefix plus exactly six alphabet symbols.
func ValidCaseID(s string) bool {
	if !strings.HasPrefix(s, CasePrefix) {
		return false
	}
	suffix := s[len(CasePrefix):]
	if len(suffix) != suffixLength {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(caseAlphabet, r) {
			return false
		}
	}
	return true
}

// randomString samples length symbols uniformly from alphabet using
// crypto/rand. rand.Int avoids the modulo bias a plain byte-mod would
// introduce.
func randomString(length int, alphabet string) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
