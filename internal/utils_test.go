package internal

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidEmail(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{
			name:  "plain address",
			email: "user@example.com",
			want:  true,
		},
		{
			name:  "address with plus tag",
			email: "user+billing@example.co.uk",
			want:  true,
		},
		{
			name:  "address with dots and dashes",
			email: "first.last@some-domain.org",
			want:  true,
		},
		{
			name:  "missing domain",
			email: "user@",
			want:  false,
		},
		{
			name:  "missing at sign",
			email: "user.example.com",
			want:  false,
		},
		{
			name:  "single letter tld",
			email: "user@example.c",
			want:  false,
		},
		{
			name:  "empty string",
			email: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(ValidEmail(tt.email), qt.Equals, tt.want)
		})
	}
}

func TestRandomHex(t *testing.T) {
	c := qt.New(t)

	hex1 := RandomHex(16)
	hex2 := RandomHex(16)
	c.Assert(len(hex1), qt.Equals, 32)
	c.Assert(hex1, qt.Not(qt.Equals), hex2)
}

func TestHexHashPassword(t *testing.T) {
	c := qt.New(t)

	hash := HexHashPassword("salt", "password")
	c.Assert(hash, qt.Not(qt.Equals), "")
	// same input hashes to the same value
	c.Assert(HexHashPassword("salt", "password"), qt.Equals, hash)
	// a different salt changes the result
	c.Assert(HexHashPassword("other", "password"), qt.Not(qt.Equals), hash)
}
