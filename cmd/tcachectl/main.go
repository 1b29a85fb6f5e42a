// Command tcachectl drives a tcache.Pool from the command line for manual
// exploration and quick checks that don't require the Go test harness.
package main

func main() {
	execute()
}
