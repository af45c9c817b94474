package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret"

func newCodec(t *testing.T, ttl time.Duration) *Codec {
	t.Helper()

	c, err := New(testSecret, ttl)
	require.NoError(t, err)

	return c
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	c := newCodec(t, time.Hour)

	tok, err := c.Issue("user-123")
	require.NoError(t, err)

	userID, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestIssue_Format(t *testing.T) {
	c := newCodec(t, time.Hour)
	fixed := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return fixed }

	tok, err := c.Issue("u1")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	for _, p := range parts {
		assert.NotContains(t, p, "=")
		assert.NotContains(t, p, "+")
		assert.NotContains(t, p, "/")
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	var header map[string]string
	require.NoError(t, json.Unmarshal(rawHeader, &header))
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	rawPayload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var payload struct {
		UserID string `json:"userId"`
		Iat    int64  `json:"iat"`
		Exp    int64  `json:"exp"`
	}
	require.NoError(t, json.Unmarshal(rawPayload, &payload))
	assert.Equal(t, "u1", payload.UserID)
	assert.Equal(t, fixed.Unix(), payload.Iat)
	assert.Equal(t, fixed.Add(time.Hour).Unix(), payload.Exp)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), parts[2])
}

func TestVerify_Expired(t *testing.T) {
	c := newCodec(t, time.Hour)

	issuedAt := time.Now().Add(-2 * time.Hour)
	c.now = func() time.Time { return issuedAt }

	tok, err := c.Issue("u1")
	require.NoError(t, err)

	c.now = time.Now

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_ValidUntilExpiry(t *testing.T) {
	c := newCodec(t, time.Hour)

	start := time.Now()
	c.now = func() time.Time { return start }

	tok, err := c.Issue("u1")
	require.NoError(t, err)

	c.now = func() time.Time { return start.Add(59 * time.Minute) }
	userID, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	c.now = func() time.Time { return start.Add(61 * time.Minute) }
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		at      time.Duration
		wantErr error
	}{
		{name: "exactly at exp", at: time.Hour},
		{name: "within final second", at: time.Hour + 500*time.Millisecond},
		{name: "one second past exp", at: time.Hour + time.Second, wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCodec(t, time.Hour)
			c.now = func() time.Time { return start }

			tok, err := c.Issue("u1")
			require.NoError(t, err)

			c.now = func() time.Time { return start.Add(tt.at) }
			userID, err := c.Verify(tok)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "u1", userID)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := newCodec(t, time.Hour)

	tok, err := issuer.Issue("u1")
	require.NoError(t, err)

	other, err := New("another-secret", time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	c := newCodec(t, time.Hour)

	valid, err := c.Issue("u1")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"admin","iat":1,"exp":99999999999}`))
	noneHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	flipped := "A" + parts[2][1:]
	if parts[2][0] == 'A' {
		flipped = "B" + parts[2][1:]
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no dots", token: "abcdef"},
		{name: "two parts", token: parts[0] + "." + parts[1]},
		{name: "four parts", token: valid + ".extra"},
		{name: "dots only", token: ".."},
		{name: "invalid base64 payload", token: parts[0] + ".!!!." + parts[2]},
		{name: "invalid base64 signature", token: parts[0] + "." + parts[1] + ".***"},
		{name: "tampered payload", token: parts[0] + "." + forged + "." + parts[2]},
		{name: "tampered signature", token: parts[0] + "." + parts[1] + "." + flipped},
		{name: "alg none", token: noneHeader + "." + forged + "."},
		{name: "payload not json", token: parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + "." + parts[2]},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				userID, err := c.Verify(tc.token)
				assert.Error(t, err)
				assert.Empty(t, userID)
			})
		})
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	c := newCodec(t, time.Hour)

	tok, err := c.Issue("")
	require.NoError(t, err)

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNew(t *testing.T) {
	_, err := New("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	c, err := New("s", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.TTL())
}
