package keys

import (
	"bytes"
	"testing"

	"xdao.co/canbor/canbor"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := SignValueEd25519(canbor.Text("payload"), testKey(t))
	if err != nil {
		t.Fatalf("SignValueEd25519: %v", err)
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// The envelope itself must be a canonical object.
	if _, derr := canbor.DecodeExact(data); derr != nil {
		t.Fatalf("envelope encoding is not canonical: %v", derr)
	}

	out, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if out.Algorithm != env.Algorithm ||
		!bytes.Equal(out.Payload, env.Payload) ||
		!bytes.Equal(out.PublicKey, env.PublicKey) ||
		!bytes.Equal(out.Signature, env.Signature) ||
		out.Hash != env.Hash {
		t.Fatalf("round trip mutated envelope: %+v vs %+v", out, env)
	}
	if err := out.Verify(); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}
}

func TestEnvelope_EncodingIsDeterministic(t *testing.T) {
	env, err := SignValueEd25519(canbor.Uint(42), testKey(t))
	if err != nil {
		t.Fatalf("SignValueEd25519: %v", err)
	}
	a, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	b, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("envelope encoding differs between calls")
	}
}

func TestEnvelope_DefaultHashElided(t *testing.T) {
	env, err := SignEd25519(canbor.Encode(canbor.Null), "", testKey(t))
	if err != nil {
		t.Fatalf("SignEd25519: %v", err)
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if out.Hash != "" {
		t.Fatalf("Hash = %q, want empty (default elided)", out.Hash)
	}
	if err := out.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
