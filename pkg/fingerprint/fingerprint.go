// Package fingerprint computes stable digests of normalized page text so
// that two polls can be compared without keeping both copies around.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// boilerplate lines are wizard-step labels rendered next to the calendar.
// They never carry availability and are dropped before hashing.
var boilerplate = map[string]struct{}{
	"ご予約日程のご入力": {},
	"お客様情報のご入力": {},
	"入力内容のご確認":  {},
	"受付完了":      {},
}

// Sum returns the hex-encoded SHA-256 digest of text.
func Sum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Of normalizes text and returns its digest.
func Of(text string) string {
	return Sum(Normalize(text))
}

// Normalize trims every line, collapses runs of whitespace, and drops empty
// and boilerplate lines.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if _, skip := boilerplate[line]; skip {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
