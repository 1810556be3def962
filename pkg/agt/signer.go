// Package agt: interfaz para la firma de documentos certificados.

package agt

// Signer firma el mensaje canónico de un documento fiscal y devuelve la firma en Base64.
type Signer interface {
	// Sign recibe la cadena canónica (hash anterior;número;fecha;total;certificado)
	// y retorna la firma codificada en Base64.
	Sign(message []byte) (string, error)
	// KeyVersion identifica la clave usada (se publica como HashControl en la QR y en el SAF-T).
	KeyVersion() string
}
