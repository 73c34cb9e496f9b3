package mpesa

import (
	"fmt"
	"regexp"
	"strings"
)

const countryCode = "254"

var msisdnPattern = regexp.MustCompile(`^254[17][0-9]{8}$`)

// NormalizePhone rewrites a Kenyan mobile number into the 2547XXXXXXXX /
// 2541XXXXXXXX form the Daraja API expects.
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)

	switch {
	case strings.HasPrefix(p, "+"):
		if !strings.HasPrefix(p, "+"+countryCode) {
			return "", fmt.Errorf("%w: unsupported country prefix in %q", ErrInvalidPhone, phone)
		}
		p = p[1:]
	case strings.HasPrefix(p, "0"):
		p = countryCode + p[1:]
	case strings.HasPrefix(p, countryCode):
	default:
		p = countryCode + p
	}

	if !msisdnPattern.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return p, nil
}
