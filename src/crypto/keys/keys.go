package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
)

/*
The node identity is an ephemeral elliptic-curve keypair, generated at startup
and never persisted. We use btcsuite's golang implementation of secp256k1, the
same curve used by Bitcoin and Ethereum.
*/

// GenerateECDSAKey creates a new ecdsa.PrivateKey on the curve returned by
// Curve().
func GenerateECDSAKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(Curve(), rand.Reader)
}

// FromECDSAPub exports a public key into its uncompressed binary form.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(Curve(), pub.X, pub.Y)
}

// PublicKeyHex returns the 0x-prefixed hex representation of a public key.
func PublicKeyHex(pub *ecdsa.PublicKey) string {
	return fmt.Sprintf("0x%X", FromECDSAPub(pub))
}
