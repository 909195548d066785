// Command policyhelper answers questions over a directory of policy documents.
package main

import "github.com/custodia-labs/policyhelper/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
