package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"xdao.co/canbor/canbor"
	"xdao.co/canbor/cidutil"
	"xdao.co/canbor/keys"
	"xdao.co/canbor/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "validate":
		return cmdValidate(args[1:], out, errOut)
	case "diag":
		return cmdDiag(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "put":
		return cmdPut(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "canbor: canonical CBOR toolbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  canbor validate <file>")
	fmt.Fprintln(w, "  canbor diag <file>")
	fmt.Fprintln(w, "  canbor cid <file>")
	fmt.Fprintln(w, "  canbor put --root <dir> <file>")
	fmt.Fprintln(w, "  canbor get --root <dir> <CID>")
	fmt.Fprintln(w, "  canbor sign --seed-hex <64hex> [--hash sha256|sha512|sha3-256] <file>")
	fmt.Fprintln(w, "  canbor verify <envelope-file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - validate accepts only canonical encodings; anything else exits 1")
	fmt.Fprintln(w, "  - --seed-hex must be a 32-byte (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - put/get use a local content-addressed store under --root")
	fmt.Fprintln(w, "  - sign writes a canonical signature envelope to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - get writes the stored bytes to stdout (no trailing newline)")
}

// readInput reads a file, or stdin when the path is "-".
func readInput(path string, errOut io.Writer) ([]byte, int) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(errOut, "read stdin: %v\n", err)
			return nil, 1
		}
		return b, 0
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", path, err)
		return nil, 1
	}
	return b, 0
}

func cmdValidate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor validate <file>")
		return 2
	}
	b, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	v, err := canbor.DecodeExact(b)
	if err != nil {
		fmt.Fprintf(errOut, "not canonical: %v\n", err)
		return 1
	}
	if !bytes.Equal(canbor.Encode(v), b) {
		fmt.Fprintln(errOut, "not canonical: re-encoding differs from input")
		return 1
	}
	_, _ = fmt.Fprintln(out, "ok")
	return 0
}

func cmdDiag(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("diag", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor diag <file>")
		return 2
	}
	b, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	v, err := canbor.DecodeExact(b)
	if err != nil {
		fmt.Fprintf(errOut, "not canonical: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, canbor.Diagnostic(v))
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor cid <file>")
		return 2
	}
	b, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	id, err := cidutil.CanonicalCID(b)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdPut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var root string
	fs.StringVar(&root, "root", "", "store root directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if root == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor put --root <dir> <file>")
		return 2
	}
	b, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	cas, err := localfs.New(root)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	id, err := cas.Put(b)
	if err != nil {
		fmt.Fprintf(errOut, "put: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var root string
	fs.StringVar(&root, "root", "", "store root directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if root == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor get --root <dir> <CID>")
		return 2
	}
	id, err := cid.Decode(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "invalid cid: %v\n", err)
		return 1
	}
	cas, err := localfs.New(root)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	b, err := cas.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	if _, err := out.Write(b); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var seedHex string
	var hashAlg string
	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed (64 hex chars)")
	fs.StringVar(&hashAlg, "hash", "", "digest algorithm (default sha256)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if seedHex == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor sign --seed-hex <64hex> [--hash <alg>] <file>")
		return 2
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		fmt.Fprintln(errOut, "--seed-hex must be 32 bytes (64 hex chars)")
		return 2
	}
	payload, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	env, err := keys.SignEd25519(payload, hashAlg, ed25519.NewKeyFromSeed(seed))
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	data, err := env.Encode()
	if err != nil {
		fmt.Fprintf(errOut, "encode envelope: %v\n", err)
		return 1
	}
	if _, err := out.Write(data); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: canbor verify <envelope-file>")
		return 2
	}
	b, code := readInput(fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	env, err := keys.DecodeEnvelope(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid envelope: %v\n", err)
		return 1
	}
	if err := env.Verify(); err != nil {
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "ok %s payload-cid=%s\n", env.Algorithm, cidutil.CIDv1DagCBORSHA256(env.Payload))
	return 0
}
