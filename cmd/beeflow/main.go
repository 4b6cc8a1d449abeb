// Command beeflow runs the bundled agents and workflows from the terminal or
// serves them over HTTP.
package main

func main() {
	Execute()
}
