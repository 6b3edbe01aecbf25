// Command finctl manages exchange rates and runs finance calculations
// against the configured database from the command line.
package main

func main() {
	Execute()
}
