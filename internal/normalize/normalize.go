// Package normalize holds the pure field transforms applied to raw CSV cells
// before they become graph attributes.
//
// Every function is total: malformed input yields ok=false ("absent") rather
// than an error, so a bad cell never aborts a load.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// sourceDateLayout accepts one- or two-digit day and month (D/M/YYYY).
	sourceDateLayout = "2/1/2006"
	isoDateLayout    = "2006-01-02"
)

var (
	codeWithDescription = regexp.MustCompile(`^(\d+)\s*-\s*(.+)$`)
	bareCode            = regexp.MustCompile(`^\d+$`)
)

// CleanString trims s and reports whether anything is left.
func CleanString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// ParseDate converts day/month/year text to YYYY-MM-DD.
// Blank input and impossible dates (e.g. 13/13/2020, 31/02/2021) are absent.
func ParseDate(s string) (string, bool) {
	s, ok := CleanString(s)
	if !ok {
		return "", false
	}
	t, err := time.Parse(sourceDateLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(isoDateLayout), true
}

// ParseClassificationCode splits "68209 - Other letting and operating" into
// its numeric code and description.
//
// Bare digits yield a code with an empty description. The "none supplied" and
// "none" sentinels (any case), blank input and any other shape yield ok=false.
func ParseClassificationCode(s string) (code, description string, ok bool) {
	s, present := CleanString(s)
	if !present {
		return "", "", false
	}
	switch strings.ToLower(s) {
	case "none supplied", "none":
		return "", "", false
	}
	if m := codeWithDescription.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if bareCode.MatchString(s) {
		return s, "", true
	}
	return "", "", false
}

// ParseCount reads an optional integer counter. A blank cell counts as zero;
// anything that is not an integer is absent.
func ParseCount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
