// Firma de documentos fiscales: RSA-SHA256 (PKCS#1 v1.5) sobre el mensaje canónico del documento.

package signer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

// RSASigner firma con la llave privada del certificado del emisor.
type RSASigner struct {
	priv    *rsa.PrivateKey
	version string
}

// NewRSASigner construye el firmante a partir de un certificado con llave RSA.
func NewRSASigner(cert tls.Certificate) (*RSASigner, error) {
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("agt: el certificado debe incluir llave privada RSA")
	}
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil, fmt.Errorf("agt: certificado vacío")
		}
		var err error
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil, fmt.Errorf("agt: parsear certificado: %w", err)
		}
	}
	return &RSASigner{priv: priv, version: keyVersion(leaf)}, nil
}

// NewRSASignerFromKey firmante sin certificado X.509 (tests y llaves sueltas).
func NewRSASignerFromKey(priv *rsa.PrivateKey, version string) *RSASigner {
	return &RSASigner{priv: priv, version: version}
}

// Sign devuelve la firma en Base64.
func (s *RSASigner) Sign(message []byte) (string, error) {
	if len(message) == 0 {
		return "", fmt.Errorf("agt: mensaje vacío")
	}
	hash := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(nil, s.priv, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("agt: firmar: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

func (s *RSASigner) KeyVersion() string { return s.version }

// Verify comprueba una firma Base64 contra el mensaje.
func (s *RSASigner) Verify(message []byte, signatureB64 string) error {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("agt: firma no es Base64: %w", err)
	}
	hash := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(&s.priv.PublicKey, crypto.SHA256, hash[:], sig)
}

// DigestSigner firma de desarrollo: Base64 del SHA-256 del mensaje. No tiene valor fiscal.
type DigestSigner struct{}

func (DigestSigner) Sign(message []byte) (string, error) {
	h := sha256.Sum256(message)
	return base64.StdEncoding.EncodeToString(h[:]), nil
}

func (DigestSigner) KeyVersion() string { return "digest-dev" }

var (
	_ pkgagt.Signer = (*RSASigner)(nil)
	_ pkgagt.Signer = DigestSigner{}
)
