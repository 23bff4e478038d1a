// Command tandem routes free-text tasks to a pool of specialist workers.
package main

func main() {
	Execute()
}
