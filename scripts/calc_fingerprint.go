package main

import (
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/lookout/internal/fingerprint"
)

// calc_fingerprint.go - Utility to calculate the browser fingerprint stored
// in browser_sessions.json
//
// Usage:
//   go run scripts/calc_fingerprint.go <user_agent> <client_ip>
//
// Example:
//   go run scripts/calc_fingerprint.go "Mozilla/5.0 (X11; Linux x86_64)" 127.0.0.1

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run calc_fingerprint.go <user_agent> <client_ip>")
		fmt.Println("")
		fmt.Println("Example:")
		fmt.Println(`  go run scripts/calc_fingerprint.go "Mozilla/5.0 (X11; Linux x86_64)" 127.0.0.1`)
		os.Exit(1)
	}

	userAgent, address := os.Args[1], os.Args[2]
	fp, err := fingerprint.Compute(userAgent, address)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User-Agent:  %s\n", userAgent)
	fmt.Printf("Address:     %s\n", address)
	fmt.Printf("Fingerprint: %s\n", fp)
}
