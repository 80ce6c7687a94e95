package beacon

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

// Case ID format: "BCN" + 12 digits, assigned incrementally starting at
// BCN100000000001.
const (
	CaseIDPrefix     = "BCN"
	CaseIDDigits     = 12
	caseIDFirstValue = 100000000001
)

var caseIDPattern = regexp.MustCompile(`^BCN(\d{12})$`)

// ValidCaseID reports whether s is a well-formed public Case ID.
func ValidCaseID(s string) bool {
	return caseIDPattern.MatchString(s)
}

// NextCaseID returns the Case ID following maxExisting, which is the largest
// Case ID currently in the store ("" when there are none). Fixed-width digits
// keep lexical and numeric order identical, so a max() query is sufficient.
func NextCaseID(maxExisting string) string {
	m := caseIDPattern.FindStringSubmatch(maxExisting)
	if m == nil {
		return fmt.Sprintf("%s%d", CaseIDPrefix, caseIDFirstValue)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n < caseIDFirstValue {
		return fmt.Sprintf("%s%d", CaseIDPrefix, caseIDFirstValue)
	}
	return fmt.Sprintf("%s%0*d", CaseIDPrefix, CaseIDDigits, n+1)
}

// Secret keys are 4 groups of 5 symbols from a 32-symbol alphabet
// (Crockford base32 without lookalikes), 100 bits of entropy. The key is
// a password: only its bcrypt hash is ever persisted.
const (
	secretKeyGroups    = 4
	secretKeyGroupLen  = 5
	secretKeyAlphabet  = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	accessTokenBytes   = 32
	serverEntropyBytes = 32
)

var secretKeyPattern = regexp.MustCompile(`^[0-9A-Z]{5}(-[0-9A-Z]{5}){3}$`)

// NewSecretKey generates a cryptographically random secret key such as
// "7Q2MR-D41VX-H8KNP-3TWZG".
func NewSecretKey() (string, error) {
	raw := make([]byte, secretKeyGroups*secretKeyGroupLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	key := make([]byte, 0, len(raw)+secretKeyGroups-1)
	for i, b := range raw {
		if i > 0 && i%secretKeyGroupLen == 0 {
			key = append(key, '-')
		}
		key = append(key, secretKeyAlphabet[int(b)%len(secretKeyAlphabet)])
	}
	return string(key), nil
}

// ValidSecretKey reports whether s is a well-formed secret key.
func ValidSecretKey(s string) bool {
	return secretKeyPattern.MatchString(s)
}

// NewAccessToken mints an opaque session token. The caller-supplied seed is
// folded in via HMAC but server randomness always dominates, so a predictable
// seed cannot make the token predictable.
func NewAccessToken(clientSeed string) (string, error) {
	entropy := make([]byte, serverEntropyBytes)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	mac := hmac.New(sha256.New, entropy)
	mac.Write([]byte(clientSeed))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:accessTokenBytes]), nil
}

// HashToken returns the hex SHA-256 of an access token. Access tokens are
// high-entropy server-generated values, so a fast hash is sufficient here;
// secret keys go through bcrypt instead.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenHashEqual compares two token hashes in constant time.
func TokenHashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
