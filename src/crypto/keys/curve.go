package keys

import (
	"crypto/elliptic"

	"github.com/btcsuite/btcd/btcec"
)

// Curve returns the elliptic.Curve used for node identities. We use btcsuite's
// golang implementation of secp256k1.
func Curve() elliptic.Curve {
	return btcec.S256() //secp256k1
}
