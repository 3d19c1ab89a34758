package audit

import (
	"regexp"
	"strconv"
)

// DefaultFieldCap is the maximum stored size of a single metadata field.
const DefaultFieldCap = 10 * 1024

const redactedPlaceholder = "[REDACTED]"

// Sensitive-value patterns. GPS coordinates and payment tokens must never
// reach the audit trail in cleartext.
var (
	// Decimal lat,lng pair, e.g. "6.5244,3.3792" or "-1.2921, 36.8219".
	gpsPairPattern = regexp.MustCompile(`^-?\d{1,3}\.\d{3,}\s*,\s*-?\d{1,3}\.\d{3,}$`)
	// Gateway tokens: Stripe-style prefixes and 13-19 digit PANs.
	paymentTokenPattern = regexp.MustCompile(`^(?:tok_|pm_|card_|src_)[A-Za-z0-9]+$|^\d{13,19}$`)
)

// Field names that are redacted outright regardless of value shape.
var sensitiveFields = map[string]struct{}{
	"gps":           {},
	"location":      {},
	"lat":           {},
	"lng":           {},
	"latitude":      {},
	"longitude":     {},
	"pickup_gps":    {},
	"dropoff_gps":   {},
	"card_number":   {},
	"payment_token": {},
	"cvv":           {},
	"password":      {},
}

// sanitizeMetadata returns a copy of meta safe for persistence: sensitive
// fields redacted, oversized fields truncated. The input map is not mutated.
func sanitizeMetadata(meta map[string]string, fieldCap int) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	if fieldCap <= 0 {
		fieldCap = DefaultFieldCap
	}
	out := make(map[string]string, len(meta))
	for key, value := range meta {
		if _, ok := sensitiveFields[key]; ok {
			out[key] = redactedPlaceholder
			continue
		}
		if gpsPairPattern.MatchString(value) || paymentTokenPattern.MatchString(value) {
			out[key] = redactedPlaceholder
			continue
		}
		if len(value) > fieldCap {
			out[key] = value[:fieldCap] + "...[truncated " + strconv.Itoa(len(value)-fieldCap) + " bytes]"
			continue
		}
		out[key] = value
	}
	return out
}
