// Command grayscan decodes 1D barcodes from image files and generates
// synthetic barcode images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "grayscan",
		Short:         "Decode and generate 1D barcodes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(scanCmd(), genCmd())
	return cmd
}
