// Package format holds display helpers and the address pattern shared by
// enrichment, generation and the CLI.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsAddress reports whether s is a 20-byte hex address (0x + 40 hex chars).
func IsAddress(s string) bool {
	return addressRe.MatchString(s)
}

// ShortAddress renders 0xabcdef...123456 style previews.
func ShortAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 {
		chars = 6
	}
	a := strings.TrimPrefix(address, "0x")
	if len(a) <= chars*2 {
		return address
	}
	return "0x" + a[:chars] + "..." + a[len(a)-chars:]
}

// RelativeTime renders a unix-milli timestamp relative to now.
func RelativeTime(ms, nowMs int64) string {
	diff := nowMs - ms
	switch {
	case diff < 60_000:
		return "just now"
	case diff < 3_600_000:
		return fmt.Sprintf("%dm ago", diff/60_000)
	case diff < 86_400_000:
		return fmt.Sprintf("%dh ago", diff/3_600_000)
	}
	return time.UnixMilli(ms).Format("15:04:05")
}
