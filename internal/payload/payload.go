// Package payload implements the deterministic ticket payload encoding and
// the request descriptor for the external code-rendering service.
//
// The payload is a pure function of (purchase id, holder name, line-item id):
// identical inputs always produce an identical string, which is what makes
// payload-based lookup possible without the stored identifier. The render
// URL is derived solely from the payload and is therefore recomputable; the
// service is never called from here, only described.
package payload

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Delimiter separates the three identity fields inside a payload. It is not
// expected (and not allowed) in any field value.
const Delimiter = "|"

// Defaults for the external rendering service, matching the public
// api.qrserver.com contract.
const (
	DefaultServiceURL = "https://api.qrserver.com/v1/create-qr-code/"
	DefaultSize       = "150x150"
)

// Encoding errors. Callers treat any error from Encode as fatal for that
// single line item's issuance only.
var (
	// ErrEmptyField is returned when one of the identity fields is empty.
	ErrEmptyField = errors.New("payload: empty field")

	// ErrDelimiterInField is returned when a field value contains the
	// payload delimiter and would make the encoding ambiguous.
	ErrDelimiterInField = errors.New("payload: field contains delimiter")
)

// Encode serializes ticket identity data into the opaque payload string
//
//	<purchaseID>|<holderName>|<lineItemID>
//
// It fails when any field is empty or contains the delimiter.
func Encode(purchaseID, holderName, lineItemID string) (string, error) {
	fields := []struct {
		name, value string
	}{
		{"purchase id", purchaseID},
		{"holder name", holderName},
		{"line item id", lineItemID},
	}
	for _, f := range fields {
		if f.value == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyField, f.name)
		}
		if strings.Contains(f.value, Delimiter) {
			return "", fmt.Errorf("%w: %s", ErrDelimiterInField, f.name)
		}
	}
	return purchaseID + Delimiter + holderName + Delimiter + lineItemID, nil
}

// RenderRequest builds the GET URL the presentation layer dereferences to
// obtain the scannable image. Pure string construction, no I/O. Empty
// serviceURL or size fall back to the qrserver.com defaults.
func RenderRequest(serviceURL, pl, size string) string {
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	if size == "" {
		size = DefaultSize
	}
	return serviceURL + "?data=" + url.QueryEscape(pl) + "&size=" + url.QueryEscape(size)
}
