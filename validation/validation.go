// Package validation holds the pure field predicates and formatters shared by
// step handlers and the progress rules, so both always agree on what a valid
// value is.
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fesexport/backend/model"
)

var (
	alphanumericHyphens    = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	catchCertificateNumber = regexp.MustCompile(`^GBR-\d{4}-CC-[A-Z0-9]{9}$`)
	healthCertificate      = regexp.MustCompile(`^\d{2}/\d{1}/\d{6}$`)
	ukPostcode             = regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]? ?\d[A-Za-z]{2}$`)
	commodityCode          = regexp.MustCompile(`^\d{6,8}$`)
	freeText               = regexp.MustCompile(`^[A-Za-z0-9 '\-.,/&()]*$`)
	decimal                = regexp.MustCompile(`^\d+(\.\d+)?$`)
	faoArea                = regexp.MustCompile(`^FAO\d{1,2}$`)
)

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AllPresent reports whether none of values is blank.
func AllPresent(values ...string) bool {
	for _, v := range values {
		if IsBlank(v) {
			return false
		}
	}
	return true
}

// MaxLength reports whether s has at most n characters.
func MaxLength(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

func IsAlphanumericWithHyphens(s string) bool {
	return alphanumericHyphens.MatchString(s)
}

// IsCatchCertificateNumber accepts only UK catch certificate numbers.
func IsCatchCertificateNumber(s string) bool {
	return catchCertificateNumber.MatchString(s)
}

// IsDocumentNumber accepts any UK export document number (CC, PS or SD).
func IsDocumentNumber(s string) bool {
	return model.IsDocumentNumber(s)
}

func IsHealthCertificateNumber(s string) bool {
	return healthCertificate.MatchString(s)
}

func IsUKPostcode(s string) bool {
	return ukPostcode.MatchString(strings.TrimSpace(s))
}

func IsCommodityCode(s string) bool {
	return commodityCode.MatchString(strings.TrimSpace(s))
}

func IsFAOArea(s string) bool {
	return faoArea.MatchString(s)
}

// IsFreeText accepts letters, digits, spaces and basic punctuation.
func IsFreeText(s string) bool {
	return freeText.MatchString(s)
}

// ParseNumber parses a plain non-negative decimal string.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimal.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsPositiveNumber reports whether s is a decimal greater than zero.
func IsPositiveNumber(s string) bool {
	v, ok := ParseNumber(s)
	return ok && v > 0
}

// HasMaxDecimalPlaces reports whether s has at most n digits after the point.
func HasMaxDecimalPlaces(s string, n int) bool {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '.')
	return i < 0 || len(s)-i-1 <= n
}

// FormatNumber renders v in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CanonicalNumber rewrites a numeric string to its shortest form
// ("010.50" becomes "10.5").
func CanonicalNumber(s string) (string, bool) {
	v, ok := ParseNumber(s)
	if !ok {
		return s, false
	}
	return FormatNumber(v), true
}

// DateLayout is the wire format for dates entered in the wizard.
const DateLayout = "02/01/2006"

// ParseDate parses D/M/YYYY or DD/MM/YYYY, rejecting impossible days.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2/1/2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateCheck is the outcome of a bounded date check.
type DateCheck int

const (
	DateValid DateCheck = iota
	DateInvalidFormat
	DateTooFarInFuture
)

// CheckDateWithinDays parses s and checks it is at most days calendar days
// after now. Format is checked first; the bound never runs on a malformed date.
func CheckDateWithinDays(s string, now time.Time, days int) DateCheck {
	d, ok := ParseDate(s)
	if !ok {
		return DateInvalidFormat
	}
	if d.After(today(now).AddDate(0, 0, days)) {
		return DateTooFarInFuture
	}
	return DateValid
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
