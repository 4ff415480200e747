// Package main provides the CLI entrypoint for chatportraits.
package main

func main() {
	Execute()
}
