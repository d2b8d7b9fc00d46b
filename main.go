// Command launcher bootstraps an embeddable Python runtime next to itself,
// installs the application's requirements and starts its entry point.
package main

func main() {
	Execute()
}
