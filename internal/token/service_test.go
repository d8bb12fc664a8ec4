package token

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-auth/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var sample = session.Record{
	UserID:        123,
	UserName:      "asdf",
	Auth:          123123123123,
	LastLoginTime: 12312312,
}

func TestSignVerifyRoundTrip(t *testing.T) {
	svc := New("unit-secret", discardLogger())

	signed, err := svc.Sign(sample)
	require.NoError(t, err)

	rec, ok := svc.Verify(signed)
	require.True(t, ok)
	assert.Equal(t, sample, *rec)
}

func TestSignIsDeterministic(t *testing.T) {
	svc := New("unit-secret", discardLogger())
	a, err := svc.Sign(sample)
	require.NoError(t, err)
	b, err := svc.Sign(sample)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFallbackSecret(t *testing.T) {
	fallback := New("", discardLogger())
	explicit := New(FallbackSecret, discardLogger())

	signed, err := fallback.Sign(sample)
	require.NoError(t, err)
	rec, ok := explicit.Verify(signed)
	require.True(t, ok)
	assert.Equal(t, sample, *rec)
}

func TestVerifyRejectsEmpty(t *testing.T) {
	rec, ok := New("unit-secret", discardLogger()).Verify("")
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestVerifyRejectsTamperedBytes(t *testing.T) {
	svc := New("unit-secret", discardLogger())
	signed, err := svc.Sign(sample)
	require.NoError(t, err)

	for i := 0; i < len(signed); i++ {
		b := []byte(signed)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		_, ok := svc.Verify(string(b))
		assert.False(t, ok, "tampered byte %d accepted", i)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signed, err := New("other-secret", discardLogger()).Sign(sample)
	require.NoError(t, err)
	_, ok := New("unit-secret", discardLogger()).Verify(signed)
	assert.False(t, ok)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: 1, Name: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := New("unit-secret", discardLogger()).Verify(unsigned)
	assert.False(t, ok)
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logout/1", nil)
	_, err := FromRequest(req)
	require.ErrorIs(t, err, ErrMissingBearer)

	req.Header.Set("Authorization", "Basic abc")
	_, err = FromRequest(req)
	require.ErrorIs(t, err, ErrMissingBearer)

	req.Header.Set("Authorization", "bearer   abc.def.ghi ")
	raw, err := FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)
}
