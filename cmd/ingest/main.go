// Command ingest populates a collection from a directory of images.
//
// Usage:
//
//	ingest [flags] <dir>
//
// It reads the same environment (and .env) as the server: VECTOR_STORE, QDRANT_URL,
// DATABASE_URL, EMBEDDING_PROVIDER and friends. Every JPEG and PNG under dir is embedded
// and stored with its bytes as a base64 payload, under an id derived from its content.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
