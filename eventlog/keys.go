package eventlog

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"rofl/errors"
)

// Keys holds one identity's signing material. Everything outside this
// package treats it as an opaque handle; the private half is never logged.
type Keys struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewKeys generates a fresh identity keypair.
func NewKeys() (Keys, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keys{}, fmt.Errorf("keypair generation: %w", err)
	}
	return Keys{priv: priv, pub: pub}, nil
}

// KeysFromHex restores a keypair from its stored private seed.
func KeysFromHex(privHex string) (Keys, error) {
	seed, err := hex.DecodeString(privHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return Keys{}, fmt.Errorf("%w: bad private key material", errors.ErrValidation)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keys{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func (k Keys) PublicKeyHex() string {
	return hex.EncodeToString(k.pub)
}

func (k Keys) PrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Seed())
}

// Sign fills in the event id and signature. PubKey is overwritten with the
// signer's key so an event can never carry someone else's identity.
func (k Keys) Sign(e *Event) error {
	e.PubKey = k.PublicKeyHex()
	id, err := ComputeID(*e)
	if err != nil {
		return err
	}
	e.ID = id
	idBytes, err := hex.DecodeString(id)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrProtocol, err)
	}
	e.Sig = hex.EncodeToString(ed25519.Sign(k.priv, idBytes))
	return nil
}

// Verify checks that the event id matches its content and the signature
// matches the embedded public key.
func Verify(e Event) error {
	id, err := ComputeID(e)
	if err != nil {
		return err
	}
	if id != e.ID {
		return fmt.Errorf("%w: id mismatch", errors.ErrProtocol)
	}
	pub, err := hex.DecodeString(e.PubKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad pubkey", errors.ErrProtocol)
	}
	idBytes, err := hex.DecodeString(e.ID)
	if err != nil {
		return fmt.Errorf("%w: bad id", errors.ErrProtocol)
	}
	sig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return fmt.Errorf("%w: bad signature encoding", errors.ErrProtocol)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), idBytes, sig) {
		return fmt.Errorf("%w: signature check failed", errors.ErrProtocol)
	}
	return nil
}
