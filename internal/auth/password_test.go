package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	passwords := []string{"password123", "", "pässwörd ünïcode", strings.Repeat("x", 200)}
	for _, pw := range passwords {
		digest, err := HashPassword(pw)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"), digest)
		assert.True(t, VerifyPassword(pw, digest))
		assert.False(t, VerifyPassword(pw+"!", digest))
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, VerifyPassword("same", a))
	assert.True(t, VerifyPassword("same", b))
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	valid, err := HashPassword("secret")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	digests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-hash",
		"bcrypt":          "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		"argon2i variant": strings.Replace(valid, "argon2id", "argon2i", 1),
		"wrong version":   strings.Replace(valid, "v=19", "v=16", 1),
		"bad params":      strings.Join([]string{"", parts[1], parts[2], "m=abc", parts[4], parts[5]}, "$"),
		"zero memory":     strings.Join([]string{"", parts[1], parts[2], "m=0,t=1,p=4", parts[4], parts[5]}, "$"),
		"huge memory":     strings.Join([]string{"", parts[1], parts[2], "m=4294967295,t=1,p=4", parts[4], parts[5]}, "$"),
		"bad salt":        strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!", parts[5]}, "$"),
		"empty key":       strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], ""}, "$"),
		"extra field":     valid + "$extra",
	}

	for name, digest := range digests {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, VerifyPassword("secret", digest))
			})
		})
	}
}

func TestBurnVerify(t *testing.T) {
	assert.NotPanics(t, func() { BurnVerify("anything") })
}
