// Command stashctl is the PromptStash operator CLI: it exports and imports
// a team's prompts directly against the database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
