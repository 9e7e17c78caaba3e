package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"31/12/2020", "2020-12-31", true},
		{"1/2/2003", "2003-02-01", true},
		{" 05/06/1999 ", "1999-06-05", true},
		{"", "", false},
		{"   ", "", false},
		{"13/13/2020", "", false},
		{"31/02/2021", "", false},
		{"2020-12-31", "", false},
		{"not a date", "", false},
	}
	for _, c := range cases {
		got, ok := ParseDate(c.in)
		assert.Equal(t, c.wantOK, ok, "ParseDate(%q) ok", c.in)
		assert.Equal(t, c.want, got, "ParseDate(%q)", c.in)
	}
}

func TestParseClassificationCode(t *testing.T) {
	cases := []struct {
		in     string
		code   string
		desc   string
		wantOK bool
	}{
		{"68209 - Other letting and operating", "68209", "Other letting and operating", true},
		{"  99999 -Dormant Company ", "99999", "Dormant Company", true},
		{"12345", "12345", "", true},
		{"None Supplied", "", "", false},
		{"NONE", "", "", false},
		{"", "", "", false},
		{"abc - letters are not a code", "", "", false},
		{"12a45", "", "", false},
	}
	for _, c := range cases {
		code, desc, ok := ParseClassificationCode(c.in)
		assert.Equal(t, c.wantOK, ok, "ParseClassificationCode(%q) ok", c.in)
		assert.Equal(t, c.code, code, "ParseClassificationCode(%q) code", c.in)
		assert.Equal(t, c.desc, desc, "ParseClassificationCode(%q) description", c.in)
	}
}

func TestCleanString(t *testing.T) {
	got, ok := CleanString("  ACME LTD \t")
	assert.True(t, ok)
	assert.Equal(t, "ACME LTD", got)

	_, ok = CleanString(" \t\n")
	assert.False(t, ok)
}

func TestParseCount(t *testing.T) {
	n, ok := ParseCount("")
	assert.True(t, ok)
	assert.Equal(t, int64(0), n)

	n, ok = ParseCount(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = ParseCount("4.5")
	assert.False(t, ok)
}

func TestCountryCode(t *testing.T) {
	uk, ok := CountryCode("United Kingdom")
	assert.True(t, ok)
	assert.Equal(t, "GB", uk)

	for _, nation := range []string{"Scotland", "WALES", "england", "Northern Ireland"} {
		got, _ := CountryCode(nation)
		assert.Equal(t, uk, got, "CountryCode(%q)", nation)
	}

	got, ok := CountryCode("Atlantis")
	assert.True(t, ok)
	assert.Equal(t, "AT", got)

	got, _ = CountryCode("Virgin Islands, British")
	assert.Equal(t, "VG", got)

	got, _ = CountryCode("X")
	assert.Equal(t, "X", got)

	_, ok = CountryCode("  ")
	assert.False(t, ok)
}
