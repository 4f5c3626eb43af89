package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// calc_api_hash.go - Utility to calculate the API_KEY_HASH for an
// existing kiosk API key (use cmd/genkey to mint a new pair)
//
// Usage:
//   go run scripts/calc_api_hash.go <api_key>

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run calc_api_hash.go <api_key>")
		os.Exit(1)
	}

	apiKey := os.Args[1]
	hash := sha256.Sum256([]byte(apiKey))
	hashHex := hex.EncodeToString(hash[:])

	fmt.Printf("API Key:      %s\n", apiKey)
	fmt.Printf("API_KEY_HASH: %s\n", hashHex)
}
