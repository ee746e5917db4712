//go:build !linux || !cgo

// The interposition library only builds as a Linux c-shared object.
// This stub keeps `go build ./...` working elsewhere.
package main

import "fmt"

func main() {
	fmt.Println("libptxshim must be built on linux with cgo: " +
		"go build -buildmode=c-shared -o libptxshim.so ./cmd/libptxshim")
}
