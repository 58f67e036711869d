// Command boxofficectl lists and moderates the ticketing catalogue from a
// terminal, using the same list and action rules as the admin console.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}
