// Command genkey generates a kiosk API key and the SHA-256 hash the
// server expects in API_KEY_HASH. Hand the key to the kiosk; only the
// hash goes in the server environment.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	key := "pk_" + hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(key))

	fmt.Printf("API_KEY=%s\nAPI_KEY_HASH=%s\n", key, hex.EncodeToString(hash[:]))
}
