// The main package for the oscar-crawler executable.
package main

import (
	"github.com/JakeFAU/oscar-cost-crawler/cmd"
)

func main() {
	cmd.Execute()
}
