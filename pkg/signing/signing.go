// Package signing signs plugin scripts the way the host verifies them:
// RSASSA-PKCS1-v1_5 over SHA-512, base64 encoded, with the public key
// shipped in the manifest as base64 PKIX DER.
package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

// DefaultKeyBits is the key size keygen uses
const DefaultKeyBits = 2048

// KeyPair holds the PEM encoded private key and public key
type KeyPair struct {
	PrivateKeyPEM []byte // PKCS#8
	PublicKeyPEM  []byte // PKIX
}

// GenerateKey creates a new RSA key pair
func GenerateKey(bits int) (*KeyPair, error) {
	if bits <= 0 {
		bits = DefaultKeyBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return &KeyPair{
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		PublicKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	}, nil
}

// Signature is a signed script, in the encodings the manifest stores
type Signature struct {
	Signature string // base64 signature
	PublicKey string // base64 PKIX DER
}

// Sign signs script with a PEM encoded RSA private key (PKCS#1 or PKCS#8)
func Sign(script, privateKeyPEM []byte) (*Signature, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "parse private key")
	}

	seg, err := jwt.SigningMethodRS512.Sign(string(script), key)
	if err != nil {
		return nil, fmt.Errorf("sign script: %w", err)
	}
	raw, err := jwt.DecodeSegment(seg)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}

	return &Signature{
		Signature: base64.StdEncoding.EncodeToString(raw),
		PublicKey: base64.StdEncoding.EncodeToString(pubDER),
	}, nil
}

// Verify checks a base64 signature of script against a base64 PKIX public key
func Verify(script []byte, signature, publicKey string) error {
	pubDER, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return errors.WrapError(err, errors.ErrValidation, "decode public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return errors.WrapError(err, errors.ErrValidation, "parse public key")
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return errors.WrapError(fmt.Errorf("got %T", parsed), errors.ErrValidation, "public key is not RSA")
	}

	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errors.WrapError(err, errors.ErrValidation, "decode signature")
	}
	if err := jwt.SigningMethodRS512.Verify(string(script), jwt.EncodeSegment(raw), pub); err != nil {
		return errors.WrapError(err, errors.ErrValidation, "script signature does not match")
	}
	return nil
}

// Apply stores sig in the manifest
func Apply(m *config.Manifest, sig *Signature) {
	m.ScriptSignature = sig.Signature
	m.ScriptPublicKey = sig.PublicKey
}

// VerifyManifest checks script against the signature stored in m
func VerifyManifest(m config.Manifest, script []byte) error {
	if m.ScriptSignature == "" || m.ScriptPublicKey == "" {
		return errors.WrapError(fmt.Errorf("manifest %s", m.ID), errors.ErrValidation, "script is not signed")
	}
	return Verify(script, m.ScriptSignature, m.ScriptPublicKey)
}
