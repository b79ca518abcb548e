package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint derives the dedupe digest for a submission. It is a
// deterministic sha256 over the normalized content: payment method,
// trimmed notes, and item lines sorted by menu item ID. Two submissions
// with the same content always hash identically, which is what makes
// double-clicks and retried requests idempotent.
func Fingerprint(paymentMethod, notes string, items []SubmitOrderItemRequest) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s:%d", item.MenuItemID, item.Quantity)
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString(strings.ToUpper(strings.TrimSpace(paymentMethod)))
	b.WriteByte('\n')
	b.WriteString(strings.TrimSpace(notes))
	b.WriteByte('\n')
	b.WriteString(strings.Join(lines, "\n"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
