package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lambda-runtime-local",
		Short: "Drive a function handler through the real runtime pipeline against a local fixture",
		Long:  "A development harness that fakes the control API with a local HTTP server and a fixture file, so a handler can be exercised without deploying it.",
	}

	rootCmd.AddCommand(invokeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
