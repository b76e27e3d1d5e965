// Command memctl drives memkit allocators from the command line.
package main

func main() {
	execute()
}
