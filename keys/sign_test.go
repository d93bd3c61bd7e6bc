package keys

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"io"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/canbor/canbor"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return ed25519.NewKeyFromSeed(seed)
}

func testPayload() []byte {
	return canbor.Encode(canbor.Map{
		{Key: canbor.Text("op"), Val: canbor.Text("transfer")},
		{Key: canbor.Text("amt"), Val: canbor.Uint(100)},
	})
}

func TestSignEd25519_Verifies(t *testing.T) {
	env, err := SignEd25519(testPayload(), HashSHA256, testKey(t))
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	if env.Algorithm != AlgEd25519 {
		t.Fatalf("Algorithm = %q", env.Algorithm)
	}
	if err := env.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestSignEd25519_AllDigests(t *testing.T) {
	for _, h := range []string{HashSHA256, HashSHA512, HashSHA3_256, ""} {
		env, err := SignEd25519(testPayload(), h, testKey(t))
		if err != nil {
			t.Fatalf("SignEd25519(%q): %v", h, err)
		}
		if err := env.Verify(); err != nil {
			t.Fatalf("Verify(%q): %v", h, err)
		}
	}
	if _, err := SignEd25519(testPayload(), "md5", testKey(t)); err == nil {
		t.Fatalf("unsupported digest must fail")
	}
}

func TestSignDilithium3_Verifies(t *testing.T) {
	_, sk, err := GenerateDilithium3Keypair(io.Reader(&deterministicReader{}))
	if err != nil {
		t.Fatalf("GenerateDilithium3Keypair: %v", err)
	}

	env, err := SignDilithium3(testPayload(), HashSHA3_256, sk)
	if err != nil {
		t.Fatalf("SignDilithium3: %v", err)
	}
	if len(env.Signature) != mode3.SignatureSize {
		t.Fatalf("signature size = %d, want %d", len(env.Signature), mode3.SignatureSize)
	}
	if err := env.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, err := SignDilithium3(testPayload(), HashSHA3_256, nil); err == nil {
		t.Fatalf("nil key must fail")
	}
}

func TestSign_RefusesNonCanonicalPayload(t *testing.T) {
	bad := []byte{0x18, 0x00}
	if _, err := SignEd25519(bad, "", testKey(t)); err == nil {
		t.Fatalf("signing non-canonical payload must fail")
	}

	env, err := SignValueEd25519(canbor.Text("x"), testKey(t))
	if err != nil {
		t.Fatalf("SignValueEd25519: %v", err)
	}
	env.Payload = bad
	if err := env.Verify(); err == nil {
		t.Fatalf("verifying non-canonical payload must fail")
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	env, err := SignValueEd25519(canbor.Uint(1), testKey(t))
	if err != nil {
		t.Fatalf("SignValueEd25519: %v", err)
	}

	// Swap the payload for different canonical bytes.
	tampered := *env
	tampered.Payload = canbor.Encode(canbor.Uint(2))
	if err := tampered.Verify(); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered payload: %v, want ErrBadSignature", err)
	}

	// Flip a signature bit.
	flipped := *env
	flipped.Signature = append([]byte(nil), env.Signature...)
	flipped.Signature[0] ^= 1
	if err := flipped.Verify(); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("flipped signature: %v, want ErrBadSignature", err)
	}

	// Unknown algorithm.
	unknown := *env
	unknown.Algorithm = "rot13"
	if err := unknown.Verify(); err == nil {
		t.Fatalf("unknown algorithm must fail")
	}
}

func TestSignValueEd25519_BindsCanonicalBytes(t *testing.T) {
	v := canbor.Map{
		{Key: canbor.Text("a"), Val: canbor.Uint(1)},
		{Key: canbor.Text("b"), Val: canbor.Uint(2)},
	}
	env, err := SignValueEd25519(v, testKey(t))
	if err != nil {
		t.Fatalf("SignValueEd25519: %v", err)
	}
	if !bytes.Equal(env.Payload, canbor.Encode(v)) {
		t.Fatalf("payload is not the canonical encoding")
	}
}
