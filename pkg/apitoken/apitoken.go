// Package apitoken defines the textual format of Splitrail CLI tokens.
package apitoken

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Prefix starts every CLI token.
	Prefix = "st_"

	// MaxPerUser is the number of live tokens a user may hold.
	MaxPerUser = 50

	segmentLen = 13
	base36     = "0123456789abcdefghijklmnopqrstuvwxyz"
	maskGlyph  = "•"
	visibleLen = 4
)

// Pattern is the exact format any consumer must validate tokens against.
var Pattern = regexp.MustCompile(`^st_[a-zA-Z0-9]{20,}$`)

// Generate mints a new secret: the prefix followed by two independent
// 13 character base-36 segments read from crypto/rand.
func Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(len(Prefix) + 2*segmentLen)
	sb.WriteString(Prefix)
	for i := 0; i < 2; i++ {
		seg, err := randomSegment(segmentLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		sb.WriteString(seg)
	}
	return sb.String(), nil
}

// randomSegment draws n base-36 characters, rejecting bytes that would bias
// the distribution (252 is the largest multiple of 36 below 256).
func randomSegment(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, base36[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// IsValid reports whether s matches Pattern.
func IsValid(s string) bool {
	return Pattern.MatchString(s)
}

// Mask hides all but the trailing four characters of a token, one bullet per
// hidden character. Tokens of four characters or fewer are returned as is.
func Mask(token string) string {
	runes := []rune(token)
	if len(runes) <= visibleLen {
		return token
	}
	hidden := len(runes) - visibleLen
	return strings.Repeat(maskGlyph, hidden) + string(runes[hidden:])
}
