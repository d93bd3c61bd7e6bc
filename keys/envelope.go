package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/schema"
)

// ErrBadSignature reports a verification failure where everything about the
// envelope is well-formed but the signature does not match.
var ErrBadSignature = errors.New("keys: signature verification failed")

// Envelope binds a canonical CBOR payload to a signature over its digest.
// The envelope itself is schema-mapped with integer keys, so it is canonical
// CBOR too and can be stored or content-addressed like any other object.
type Envelope struct {
	Payload   []byte `canbor:"1,keyasint"`
	Algorithm string `canbor:"2,keyasint"`
	PublicKey []byte `canbor:"3,keyasint"`
	Signature []byte `canbor:"4,keyasint"`

	// Hash names the digest algorithm; empty means DefaultHash.
	Hash string `canbor:"5,keyasint,omitempty"`
}

// Encode returns the canonical encoding of the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	return schema.Marshal(e)
}

// DecodeEnvelope strictly decodes an envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := schema.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SignEd25519 signs the digest of a canonical payload.
func SignEd25519(payload []byte, hashAlg string, priv ed25519.PrivateKey) (*Envelope, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}
	digest, err := digestFor(orDefault(hashAlg), payload)
	if err != nil {
		return nil, err
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok || len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keys: malformed ed25519 private key")
	}
	return &Envelope{
		Payload:   payload,
		Algorithm: AlgEd25519,
		PublicKey: append([]byte(nil), pub...),
		Signature: ed25519.Sign(priv, digest),
		Hash:      hashAlg,
	}, nil
}

// SignDilithium3 signs the digest of a canonical payload with a
// post-quantum Dilithium3 key.
func SignDilithium3(payload []byte, hashAlg string, priv *mode3.PrivateKey) (*Envelope, error) {
	if priv == nil {
		return nil, fmt.Errorf("keys: missing private key")
	}
	if err := checkPayload(payload); err != nil {
		return nil, err
	}
	digest, err := digestFor(orDefault(hashAlg), payload)
	if err != nil {
		return nil, err
	}
	pub, ok := priv.Public().(*mode3.PublicKey)
	if !ok {
		return nil, fmt.Errorf("keys: malformed dilithium3 private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest, sig)
	return &Envelope{
		Payload:   payload,
		Algorithm: AlgDilithium3,
		PublicKey: pub.Bytes(),
		Signature: sig,
		Hash:      hashAlg,
	}, nil
}

// SignValueEd25519 canonically encodes v and signs it with the default
// digest.
func SignValueEd25519(v canbor.Value, priv ed25519.PrivateKey) (*Envelope, error) {
	return SignEd25519(canbor.Encode(v), "", priv)
}

// Verify checks the envelope's signature against its payload. The payload
// must still be canonical: a mutated payload fails before any cryptography
// runs.
func (e *Envelope) Verify() error {
	if e == nil {
		return fmt.Errorf("keys: nil envelope")
	}
	if err := checkPayload(e.Payload); err != nil {
		return err
	}
	digest, err := digestFor(orDefault(e.Hash), e.Payload)
	if err != nil {
		return err
	}

	switch e.Algorithm {
	case AlgEd25519:
		if len(e.PublicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("keys: ed25519 public key must be %d bytes, got %d",
				ed25519.PublicKeySize, len(e.PublicKey))
		}
		if !ed25519.Verify(ed25519.PublicKey(e.PublicKey), digest, e.Signature) {
			return ErrBadSignature
		}
		return nil
	case AlgDilithium3:
		var pub mode3.PublicKey
		if err := pub.UnmarshalBinary(e.PublicKey); err != nil {
			return fmt.Errorf("keys: malformed dilithium3 public key: %w", err)
		}
		if !mode3.Verify(&pub, digest, e.Signature) {
			return ErrBadSignature
		}
		return nil
	default:
		return fmt.Errorf("keys: unsupported algorithm %q", e.Algorithm)
	}
}

func checkPayload(payload []byte) error {
	if _, err := canbor.DecodeExact(payload); err != nil {
		return fmt.Errorf("keys: canonical payload required: %w", err)
	}
	return nil
}

func orDefault(hashAlg string) string {
	if hashAlg == "" {
		return DefaultHash
	}
	return hashAlg
}
