// Command crisp is the Cognitive Packet toolbox: key management, packet
// encode/decode/verify, snippet processing, and access to a blob daemon.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kurtnitsch/crisp/blobstore/grpcblob"
	"github.com/kurtnitsch/crisp/hashutil"
	"github.com/kurtnitsch/crisp/keys"
	"github.com/kurtnitsch/crisp/packet"
	"github.com/kurtnitsch/crisp/process"
	"github.com/kurtnitsch/crisp/skc"
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
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "concept-hash":
		return cmdConceptHash(args[1:], out, errOut)
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "process":
		return cmdProcess(args[1:], out, errOut)
	case "blob":
		return cmdBlob(args[1:], out, errOut)
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
	fmt.Fprintln(w, "crisp: Cognitive Packet CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  crisp key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  crisp key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  crisp concept-hash <definition>")
	fmt.Fprintln(w, "  crisp encode --in <packet.json> (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [-o <frame>]")
	fmt.Fprintln(w, "  crisp decode <frame>")
	fmt.Fprintln(w, "  crisp verify --sender-key <key> <frame>")
	fmt.Fprintln(w, "  crisp process --intents <intents.json> [--concept <definition> ...] [--sender-key <key>] <frame>")
	fmt.Fprintln(w, "  crisp blob put|get|has|list --addr <host:port> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.crisp/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - encode writes the binary frame to stdout unless -o is given")
	fmt.Fprintln(w, "  - decode and process print JSON to stdout")
	fmt.Fprintln(w, "  - process accepts --concept repeatedly to seed a fresh knowledge core")
}

func cmdConceptHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("concept-hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: crisp concept-hash <definition>")
		return 2
	}
	_, _ = fmt.Fprintln(out, hashutil.ConceptHash(fs.Arg(0)).String())
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "crisp key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  crisp key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  crisp key derive --from <name> --role <role> [--force]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var dir string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.crisp/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.StringVar(&dir, "dir", "", "Override the key store directory")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.OpenKeyStore(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	senderKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", senderKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var dir string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. perception, planner)")
	fs.StringVar(&dir, "dir", "", "Override the key store directory")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	ks, err := keys.OpenKeyStore(dir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	senderKey, rolePath, err := ks.DeriveRoleKey(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", senderKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var inPath string
	var outPath string
	var seedHex string
	var signerName string
	var signerRole string
	var keyFile string
	var keyDir string
	var printSenderKey bool

	fs.StringVar(&inPath, "in", "", "Packet description (JSON)")
	fs.StringVar(&outPath, "o", "", "Write the frame here instead of stdout")
	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by name (from 'crisp key init')")
	fs.StringVar(&signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file (hex) created by 'crisp key init/derive'")
	fs.StringVar(&keyDir, "key-dir", "", "Override the key store directory")
	fs.BoolVar(&printSenderKey, "print-sender-key", true, "Print the sender key to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if inPath == "" {
		fmt.Fprintln(errOut, "missing --in")
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}

	ks, err := keys.OpenKeyStore(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}
	signer := keys.Ed25519Signer{Private: ed25519.NewKeyFromSeed(seed)}
	if printSenderKey {
		fmt.Fprintf(errOut, "Sender-Key: %s\n", signer.SenderKey())
	}

	descBytes, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --in: %v\n", err)
		return 1
	}
	var desc packetJSON
	if err := json.Unmarshal(descBytes, &desc); err != nil {
		fmt.Fprintf(errOut, "parse --in: %v\n", err)
		return 2
	}
	p, err := desc.toPacket()
	if err != nil {
		fmt.Fprintf(errOut, "invalid packet description: %v\n", err)
		return 2
	}
	if p.Metadata.TimestampNS == 0 {
		p.Metadata.TimestampNS = uint64(time.Now().UnixNano())
	}

	if err := packet.Sign(p, signer); err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	frame, err := packet.Encode(p)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}

	if outPath == "" {
		_, _ = out.Write(frame)
		return 0
	}
	if err := os.WriteFile(outPath, frame, 0o644); err != nil {
		fmt.Fprintf(errOut, "write -o: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "wrote %d bytes to %s\n", len(frame), outPath)
	return 0
}

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: crisp decode <frame>")
		return 2
	}
	frame, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read frame: %v\n", err)
		return 1
	}
	p, err := packet.Decode(frame)
	if err != nil {
		if p == nil {
			fmt.Fprintf(errOut, "decode: %v\n", err)
			return 1
		}
		// Unrecognized payload type: the frame itself is intact.
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
	desc, err := fromPacket(p)
	if err != nil {
		fmt.Fprintf(errOut, "describe: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(desc); err != nil {
		fmt.Fprintf(errOut, "print: %v\n", err)
		return 1
	}
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var senderKey string
	var hashAlg string
	fs.StringVar(&senderKey, "sender-key", "", "Sender key (e.g. ed25519:<base64>)")
	fs.StringVar(&hashAlg, "hash-alg", "sha256", "Digest algorithm the signature covers")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if senderKey == "" {
		fmt.Fprintln(errOut, "missing --sender-key")
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: crisp verify --sender-key <key> <frame>")
		return 2
	}
	frame, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read frame: %v\n", err)
		return 1
	}
	p, err := packet.Decode(frame)
	if err != nil && p == nil {
		fmt.Fprintf(errOut, "decode: %v\n", err)
		return 1
	}
	verifier, err := keys.VerifierForSenderKey(senderKey, hashAlg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --sender-key: %v\n", err)
		return 2
	}
	if !packet.Verify(p, verifier) {
		fmt.Fprintln(errOut, "signature verification FAILED")
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdProcess(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var intentsPath string
	var concepts stringList
	var senderKey string
	var hashAlg string
	var threshold float64

	fs.StringVar(&intentsPath, "intents", "", "Intent prototypes (JSON)")
	fs.Var(&concepts, "concept", "Concept definition committed to a fresh knowledge core (repeatable, in order)")
	fs.StringVar(&senderKey, "sender-key", "", "Verify the signature against this sender key")
	fs.StringVar(&hashAlg, "hash-alg", "sha256", "Digest algorithm the signature covers")
	fs.Float64Var(&threshold, "threshold", 0.8, "Minimum cosine similarity for a known intent")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if intentsPath == "" {
		fmt.Fprintln(errOut, "missing --intents")
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: crisp process --intents <intents.json> [--concept <definition> ...] <frame>")
		return 2
	}

	classifier, err := loadClassifier(intentsPath, threshold)
	if err != nil {
		fmt.Fprintf(errOut, "load --intents: %v\n", err)
		return 2
	}

	frame, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read frame: %v\n", err)
		return 1
	}
	p, err := packet.Decode(frame)
	if err != nil {
		if p == nil {
			fmt.Fprintf(errOut, "decode: %v\n", err)
			return 1
		}
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}

	verified := false
	if senderKey != "" {
		verifier, verr := keys.VerifierForSenderKey(senderKey, hashAlg)
		if verr != nil {
			fmt.Fprintf(errOut, "invalid --sender-key: %v\n", verr)
			return 2
		}
		verified = packet.Verify(p, verifier)
		if !verified {
			fmt.Fprintln(errOut, "warning: signature verification failed; delta is untrusted")
		}
	}

	store := skc.NewStore()
	defer store.Close()
	for _, def := range concepts {
		id, perr := store.Propose(def)
		if perr != nil {
			fmt.Fprintf(errOut, "propose %q: %v\n", def, perr)
			return 1
		}
		if _, aerr := store.Accept(id); aerr != nil {
			fmt.Fprintf(errOut, "accept %q: %v\n", def, aerr)
			return 1
		}
	}

	opts := process.Options{Classifier: classifier, SignatureVerified: verified}
	if snap, serr := store.Snapshot(p.Header.ContextAnchor); serr == nil {
		opts.Snapshot = snap
	} else {
		fmt.Fprintf(errOut, "warning: context anchor not in local chain; triples will be pending\n")
	}

	delta, err := process.Process(p, opts)
	if err != nil {
		fmt.Fprintf(errOut, "process: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(deltaToJSON(delta)); err != nil {
		fmt.Fprintf(errOut, "print: %v\n", err)
		return 1
	}
	return 0
}

func cmdBlob(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: crisp blob put|get|has|list --addr <host:port> [args]")
		return 2
	}
	sub := args[0]
	fs := flag.NewFlagSet("blob "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var addr string
	var timeout time.Duration
	fs.StringVar(&addr, "addr", "127.0.0.1:7878", "Blob daemon address")
	fs.DurationVar(&timeout, "timeout", 5*time.Second, "Per-RPC timeout")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	client, err := grpcblob.Dial(addr, grpcblob.DialOptions{Timeout: timeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial %s: %v\n", addr, err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	switch sub {
	case "put":
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: crisp blob put --addr <host:port> <file>")
			return 2
		}
		b, rerr := os.ReadFile(fs.Arg(0))
		if rerr != nil {
			fmt.Fprintf(errOut, "read %s: %v\n", fs.Arg(0), rerr)
			return 1
		}
		key, perr := client.PutBytes(b)
		if perr != nil {
			fmt.Fprintf(errOut, "put: %v\n", perr)
			return 1
		}
		_, _ = fmt.Fprintln(out, key)
		return 0
	case "get":
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: crisp blob get --addr <host:port> <key>")
			return 2
		}
		b, gerr := client.Get(fs.Arg(0))
		if gerr != nil {
			fmt.Fprintf(errOut, "get: %v\n", gerr)
			return 1
		}
		_, _ = out.Write(b)
		return 0
	case "has":
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: crisp blob has --addr <host:port> <key>")
			return 2
		}
		_, _ = fmt.Fprintln(out, client.Has(fs.Arg(0)))
		return 0
	case "list":
		keys, lerr := client.List()
		if lerr != nil {
			fmt.Fprintf(errOut, "list: %v\n", lerr)
			return 1
		}
		for _, k := range keys {
			_, _ = fmt.Fprintln(out, k)
		}
		return 0
	default:
		fmt.Fprintf(errOut, "unknown blob subcommand: %s\n", sub)
		return 2
	}
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseHexAgent(s string) ([packet.AgentIDSize]byte, error) {
	var id [packet.AgentIDSize]byte
	if s == "" {
		return id, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != packet.AgentIDSize {
		return id, fmt.Errorf("expected %d bytes, got %d", packet.AgentIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func loadClassifier(path string, threshold float64) (process.Classifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return process.Classifier{}, err
	}
	var raw []struct {
		ID        uint32    `json:"id"`
		Name      string    `json:"name"`
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return process.Classifier{}, err
	}
	c := process.Classifier{Threshold: threshold}
	for _, r := range raw {
		if len(r.Embedding) > packet.IntentDim {
			return process.Classifier{}, fmt.Errorf("prototype %q: embedding longer than %d", r.Name, packet.IntentDim)
		}
		var emb [packet.IntentDim]float32
		copy(emb[:], r.Embedding)
		c.Prototypes = append(c.Prototypes, process.Prototype{ID: r.ID, Name: r.Name, Embedding: emb})
	}
	return c, nil
}

type deltaJSON struct {
	Intent struct {
		ID         uint32  `json:"id,omitempty"`
		Name       string  `json:"name,omitempty"`
		Similarity float64 `json:"similarity"`
		Known      bool    `json:"known"`
	} `json:"intent"`
	Trusted bool         `json:"trusted"`
	Triples []tripleJSON `json:"triples,omitempty"`
}

type tripleJSON struct {
	EntityLocalID uint32     `json:"entity_local_id"`
	PropertyHash  string     `json:"property_hash"`
	Property      string     `json:"property,omitempty"`
	Value         *valueJSON `json:"value,omitempty"`
	Pending       bool       `json:"pending,omitempty"`
}

func deltaToJSON(d *process.Delta) deltaJSON {
	var out deltaJSON
	out.Intent.ID = d.Intent.ID
	out.Intent.Name = d.Intent.Name
	out.Intent.Similarity = d.Intent.Similarity
	out.Intent.Known = d.Intent.Known
	out.Trusted = d.Trusted
	for _, t := range d.Triples {
		tj := tripleJSON{
			EntityLocalID: t.EntityLocalID,
			PropertyHash:  t.PropertyHash.String(),
			Pending:       t.Pending,
		}
		if t.Property != nil {
			tj.Property = t.Property.Definition
		}
		if v := valueToJSON(t.Value); v != nil {
			tj.Value = v
		}
		out.Triples = append(out.Triples, tj)
	}
	return out
}
