// Command pagegest parses, chunks and ingests wiki pages and documents
// from the command line.
package main

func main() {
	Execute()
}
