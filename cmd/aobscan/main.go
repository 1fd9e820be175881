// Command aobscan scans a file for a wildcard byte pattern and prints each
// match with surrounding hexdump context. Useful for validating signatures
// against a binary before wiring them into hooks.
package main

import (
	"flag"
	"fmt"
	"os"

	"detourkit/hexdump"
	"detourkit/pattern"
)

func main() {
	fileFlag := flag.String("file", "", "File to scan")
	aobFlag := flag.String("aob", "", "Pattern to scan for (e.g. '48 8B ?? C1')")
	allFlag := flag.Bool("all", false, "Report every match instead of just the first")
	contextFlag := flag.Int("context", 16, "Bytes of context to show around each match")
	flag.Parse()

	if *fileFlag == "" || *aobFlag == "" {
		fmt.Println("Error: -file and -aob are required")
		flag.Usage()
		os.Exit(1)
	}

	p, err := pattern.Parse(*aobFlag)
	if err != nil {
		fmt.Printf("Error parsing pattern: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", *fileFlag, err)
		os.Exit(1)
	}

	fmt.Printf("Scanning %s (%d bytes) for: %s\n", *fileFlag, len(data), p.String())

	var matches []int
	if *allFlag {
		matches = pattern.FindAll(data, p)
	} else if at := pattern.Find(data, p); at >= 0 {
		matches = []int{at}
	}

	if len(matches) == 0 {
		fmt.Println("Pattern not found")
		os.Exit(2)
	}

	fmt.Printf("Found %d match(es):\n", len(matches))
	for _, at := range matches {
		fmt.Printf("\nMatch at offset 0x%X:\n", at)
		fmt.Print(dumpContext(data, p, at, *contextFlag))
	}
}

// dumpContext renders the match with up to context bytes on each side,
// highlighted, with the offset column showing file offsets.
func dumpContext(data []byte, p pattern.Pattern, at, context int) string {
	start := at - context
	if start < 0 {
		start = 0
	}
	end := at + p.Len() + context
	if end > len(data) {
		end = len(data)
	}

	options := hexdump.DefaultOptions()
	options.StartOffset = uint64(start)
	options.Highlight = &p
	return hexdump.Dump(data[start:end], options)
}
