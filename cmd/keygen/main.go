// Package main provides a CLI tool for generating Ed25519 keypairs and their
// did:key identifiers for local development. Keys printed here are for
// dev/demo use and must not be reused in production.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"veritas/internal/identity/did"
)

type keyOutput struct {
	DID        string `json:"did"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key,omitempty"`
	Document   any    `json:"document,omitempty"`
}

func main() {
	includePrivate := flag.Bool("private", false, "Include the private key in the output.")
	resolveDoc := flag.Bool("resolve", false, "Include the resolved DID document.")
	seedHex := flag.String("seed", "", "Hex-encoded 32-byte seed. Random if empty.")
	flag.Parse()

	var pub ed25519.PublicKey
	var priv ed25519.PrivateKey
	if *seedHex != "" {
		seed, err := hex.DecodeString(*seedHex)
		if err != nil || len(seed) != ed25519.SeedSize {
			fmt.Fprintln(os.Stderr, "seed must be 32 hex-encoded bytes")
			os.Exit(1)
		}
		priv = ed25519.NewKeyFromSeed(seed)
		pub = priv.Public().(ed25519.PublicKey)
	} else {
		var err error
		pub, priv, err = ed25519.GenerateKey(rand.Reader)
		if err != nil {
			fmt.Fprintln(os.Stderr, "key generation failed:", err)
			os.Exit(1)
		}
	}

	id := did.CreateKey(pub)
	out := keyOutput{
		DID:       id,
		PublicKey: hex.EncodeToString(pub),
	}
	if *includePrivate {
		out.PrivateKey = hex.EncodeToString(priv)
	}
	if *resolveDoc {
		doc, err := did.Resolve(id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "resolution failed:", err)
			os.Exit(1)
		}
		out.Document = doc
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "encoding failed:", err)
		os.Exit(1)
	}
}
