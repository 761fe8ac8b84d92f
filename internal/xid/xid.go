package xid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// OrderCode returns the next human-readable order code after the highest
// existing code carrying the same prefix, e.g. DH-001, DH-002.
func OrderCode(prefix string, existing []string) string {
	highest := 0
	for _, code := range existing {
		rest, ok := strings.CutPrefix(code, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, highest+1)
}

// ReferralCode derives a short shareable code from a fresh UUID.
func ReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}
