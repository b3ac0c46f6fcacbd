// Command udicti is the UDICTI developer community CLI.
package main

import (
	"os"

	"github.com/Sirily23/udicti-cli/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
