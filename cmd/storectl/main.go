// Command storectl runs one-off operations against the store rating
// database: schema migration and bootstrapping the first admin.
package main

import "github.com/iliyamo/store-rating/cmd/storectl/commands"

func main() {
	commands.Execute()
}
