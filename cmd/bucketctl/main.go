// Command bucketctl is the operator CLI for the bucket list server. It runs
// migrations, seeds categories, prints profile stats and rebuilds the search
// index against the same database the server uses.
package main

func main() {
	Execute()
}
