// Command canbor_vector_gen regenerates the conformance vectors under
// canbor/testdata/conformance/canbor-1 from a fixed table of values.
package main

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"xdao.co/canbor/canbor"
)

type vector struct {
	name string
	val  canbor.Value
}

var vectors = []vector{
	{"uint-zero", canbor.Uint(0)},
	{"uint-1000", canbor.Uint(1000)},
	{"negative-100", canbor.Int(-100)},
	{"bytes", canbor.Bytes{0x01, 0x02, 0x03, 0x04}},
	{"text-ietf", canbor.Text("IETF")},
	{"text-unicode", canbor.Text("水")},
	{"bool-true", canbor.Bool(true)},
	{"null", canbor.Null},
	{"float-half", canbor.Float(1.5)},
	{"float-double", canbor.Float(1.1)},
	{"array-nested", canbor.Array{
		canbor.Uint(1),
		canbor.Array{canbor.Uint(2), canbor.Uint(3)},
		canbor.Array{canbor.Uint(4), canbor.Uint(5)},
	}},
	{"map-nested", canbor.Map{
		{Key: canbor.Text("a"), Val: canbor.Uint(1)},
		{Key: canbor.Text("b"), Val: canbor.Array{canbor.Uint(2), canbor.Uint(3)}},
	}},
	{"tag-bignum", canbor.NewTag(2, canbor.Bytes{0x01, 0, 0, 0, 0, 0, 0, 0, 0})},
	{"map-mixed-keys", canbor.Map{
		{Key: canbor.Uint(0), Val: canbor.Uint(0)},
		{Key: canbor.Int(-1), Val: canbor.Text("a")},
		{Key: canbor.Text("b"), Val: canbor.Uint(2)},
	}},
	{"float-infinity", canbor.Float(math.Inf(1))},
}

func main() {
	dir := filepath.Join("canbor", "testdata", "conformance", "canbor-1")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i, v := range vectors {
		enc := canbor.Encode(v.val)

		// The generator must agree with the strict decoder about its own
		// output before anything is written.
		back, err := canbor.DecodeExact(enc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: re-decode: %v\n", v.name, err)
			os.Exit(1)
		}
		if !canbor.Equal(back, v.val) {
			fmt.Fprintf(os.Stderr, "%s: round trip changed value\n", v.name)
			os.Exit(1)
		}

		base := filepath.Join(dir, fmt.Sprintf("%03d-%s", i+1, v.name))
		if err := os.WriteFile(base+".hex", []byte(hex.EncodeToString(enc)), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(base+".diag", []byte(canbor.Diagnostic(v.val)), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%03d-%s\t%s\n", i+1, v.name, hex.EncodeToString(enc))
	}
}
