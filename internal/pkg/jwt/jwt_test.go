// internal/pkg/jwt/jwt_test.go
package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	key := newKey(t)
	gen := NewGenerator(key, "fanbase", "fanbase-api", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "fanbase", "fanbase-api")

	tok, jti, err := gen.GenerateAccessToken("user-1", []string{RoleUser})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.IdentityID)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.HasRole(RoleUser))
	assert.False(t, claims.IsAdmin())
}

func TestVerify_Rejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	gen := NewGenerator(key, "fanbase", "fanbase-api", "", time.Hour)

	tok, _, err := gen.GenerateAccessToken("user-1", nil)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := NewVerifier(&other.PublicKey, "fanbase", "fanbase-api").Verify(tok)
		assert.Error(t, err)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewVerifier(&key.PublicKey, "someone-else", "fanbase-api").Verify(tok)
		assert.Error(t, err)
	})
	t.Run("wrong audience", func(t *testing.T) {
		_, err := NewVerifier(&key.PublicKey, "fanbase", "other-api").Verify(tok)
		assert.Error(t, err)
	})
	t.Run("expired", func(t *testing.T) {
		expired, _, err := gen.Generate("user-1", nil, PurposeAccess, -time.Minute)
		require.NoError(t, err)
		// a negative ttl falls back to the generator default
		_, err = NewVerifier(&key.PublicKey, "fanbase", "fanbase-api").Verify(expired)
		assert.NoError(t, err)

		short := NewGenerator(key, "fanbase", "fanbase-api", "", -time.Minute)
		stale, _, err := short.GenerateAccessToken("user-1", nil)
		require.NoError(t, err)
		_, err = NewVerifier(&key.PublicKey, "fanbase", "fanbase-api").Verify(stale)
		assert.Error(t, err)
	})
	t.Run("not an access token", func(t *testing.T) {
		scoped, _, err := gen.Generate("user-1", nil, "webhook", time.Hour)
		require.NoError(t, err)
		_, err = NewVerifier(&key.PublicKey, "fanbase", "fanbase-api").VerifyAccessToken(scoped)
		assert.Error(t, err)
	})
}

func TestClaims_CanActFor(t *testing.T) {
	user := &Claims{IdentityID: "u1", Roles: []string{RoleUser}}
	admin := &Claims{IdentityID: "a1", Roles: []string{RoleAdmin}}

	assert.True(t, user.CanActFor("u1"))
	assert.False(t, user.CanActFor("u2"))
	assert.False(t, user.CanActFor(""))
	assert.True(t, admin.CanActFor("u2"))
}

func TestLoadAndBuild(t *testing.T) {
	key := newKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))

	mgr, err := LoadAndBuild(Config{
		PrivPath: privPath,
		PubPath:  pubPath,
		Issuer:   "fanbase",
		Audience: "fanbase-api",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	tok, _, err := mgr.Generator.GenerateAccessToken("artist-1", []string{RoleArtist})
	require.NoError(t, err)
	claims, err := mgr.Verifier.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "artist-1", claims.IdentityID)

	_, err = LoadVerifier(Config{PubPath: filepath.Join(dir, "missing.pem")})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.pem"), []byte("junk"), 0o644))
	_, err = LoadRSAPrivateKeyFromPEM(filepath.Join(dir, "junk.pem"))
	assert.Error(t, err)
}
