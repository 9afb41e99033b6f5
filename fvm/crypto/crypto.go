package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/onflow/vm-runtime/model/vm"
)

var ErrInvalidPublicKey = errors.New("invalid public key")

type SignatureVerifier interface {
	Verify(
		signature []byte,
		message []byte,
		publicKey []byte,
	) (bool, error)
}

// DefaultSignatureVerifier verifies DER encoded ECDSA secp256k1 signatures
// over the sha3-256 hash of the message.
type DefaultSignatureVerifier struct{}

var _ SignatureVerifier = DefaultSignatureVerifier{}

func NewDefaultSignatureVerifier() DefaultSignatureVerifier {
	return DefaultSignatureVerifier{}
}

func (DefaultSignatureVerifier) Verify(
	signature []byte,
	message []byte,
	publicKey []byte,
) (bool, error) {
	key, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidPublicKey, err.Error())
	}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("failed to parse signature: %w", err)
	}

	hash := sha3.Sum256(message)
	return sig.Verify(hash[:], key), nil
}

// AuthKey derives the authentication key stored in an account from a public
// key.
func AuthKey(publicKey []byte) [vm.AuthKeyLength]byte {
	return sha3.Sum256(publicKey)
}

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// GeneratePrivateKey creates a random key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromSeed derives a key deterministically from seed.
func PrivateKeyFromSeed(seed []byte) *PrivateKey {
	scalar := sha3.Sum256(seed)
	key, _ := btcec.PrivKeyFromBytes(scalar[:])
	return &PrivateKey{key: key}
}

// PublicKey returns the compressed public key.
func (k *PrivateKey) PublicKey() []byte {
	return k.key.PubKey().SerializeCompressed()
}

// Sign returns the DER encoded signature of the sha3-256 hash of message.
func (k *PrivateKey) Sign(message []byte) []byte {
	hash := sha3.Sum256(message)
	return ecdsa.Sign(k.key, hash[:]).Serialize()
}

// SignTransaction sets the public key and signature of tx.
func (k *PrivateKey) SignTransaction(tx *vm.SignedTransaction) error {
	msg, err := tx.SigningMessage()
	if err != nil {
		return err
	}
	tx.PublicKey = k.PublicKey()
	tx.Signature = k.Sign(msg)
	return nil
}
