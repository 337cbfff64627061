package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/pem"
	"sync"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RSAKeySize is the modulus size for generated development keys
const RSAKeySize = 2048

// Provider supplies the process-wide RSA signing key pair and its JWKS
// export. The key material is immutable after construction, so reads need
// no locking; only the lazily computed JWKS document is guarded.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	logger     *zap.Logger

	jwksOnce sync.Once
	jwks     map[string]interface{}
	jwksErr  error
}

// NewProvider loads the signing key from configured PEM material. In
// production the absence of key material is a fatal error: silently
// generating an ephemeral pair would invalidate previously issued tokens
// across restarts. Outside production an ephemeral pair is generated with
// a loud warning.
func NewProvider(cfg *config.Config, logger *zap.Logger) (*Provider, error) {
	var privateKey *rsa.PrivateKey

	switch {
	case cfg.PrivateKeyPEM != "":
		key, err := parsePrivateKeyPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			logger.Error("Failed to parse configured private key", zap.Error(err))
			return nil, domain.ErrInvalidKeyConfig
		}
		privateKey = key

	case cfg.IsProduction():
		logger.Error("OAUTH_PRIVATE_KEY is required in production")
		return nil, domain.ErrInvalidKeyConfig

	default:
		key, err := rsa.GenerateKey(rand.Reader, RSAKeySize)
		if err != nil {
			return nil, domain.ErrInvalidKeyConfig
		}
		logger.Warn("No signing key configured, generated an ephemeral key pair; " +
			"issued tokens will not survive a restart")
		privateKey = key
	}

	return &Provider{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		keyID:      generateKeyID(privateKey),
		logger:     logger,
	}, nil
}

// GetPrivateKey returns the signing key
func (p *Provider) GetPrivateKey() *rsa.PrivateKey {
	return p.privateKey
}

// GetPublicKey returns the verification key
func (p *Provider) GetPublicKey() *rsa.PublicKey {
	return p.publicKey
}

// GetKeyID returns the stable key identifier included in token headers
func (p *Provider) GetKeyID() string {
	return p.keyID
}

// GetJWKS exports the public key as a JSON Web Key Set, computed once and
// cached for the process lifetime
func (p *Provider) GetJWKS() (map[string]interface{}, error) {
	p.jwksOnce.Do(func() {
		jwk, err := convertToJWK(p.publicKey, p.keyID)
		if err != nil {
			p.jwksErr = err
			return
		}
		p.jwks = map[string]interface{}{
			"keys": []map[string]interface{}{jwk},
		}
	})
	return p.jwks, p.jwksErr
}

// parsePrivateKeyPEM accepts PKCS#1 and PKCS#8 encoded RSA keys
func parsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, domain.ErrInvalidKeyConfig
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, domain.ErrInvalidKeyConfig
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, domain.ErrInvalidKeyConfig
	}
	return key, nil
}

// generateKeyID derives a stable identifier from the public key components
func generateKeyID(key *rsa.PrivateKey) string {
	modulus := key.N.Bytes()
	exponent := []byte{byte(key.E)}

	data := append(modulus, exponent...)
	hash := sha256.Sum256(data)

	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// convertToJWK converts an RSA public key to JWK format
func convertToJWK(publicKey *rsa.PublicKey, kid string) (map[string]interface{}, error) {
	if publicKey == nil {
		return nil, domain.ErrInvalidKeyConfig
	}

	nStr := base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes())

	eBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(eBytes, uint32(publicKey.E))
	eBytes = bytes.TrimLeft(eBytes, "\x00")
	eStr := base64.RawURLEncoding.EncodeToString(eBytes)

	return map[string]interface{}{
		"kty": "RSA",
		"use": "sig",
		"kid": kid,
		"alg": "RS256",
		"n":   nStr,
		"e":   eStr,
	}, nil
}
