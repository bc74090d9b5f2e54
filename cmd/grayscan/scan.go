package main

import (
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	// imaging decodes through the image registry; webp is read-only
	// and not registered by imaging itself.
	_ "golang.org/x/image/webp"

	grayscan "github.com/emarkov/grayscan"
	_ "github.com/emarkov/grayscan/oned"
)

func scanCmd() *cobra.Command {
	var (
		formats         []string
		rows            int
		tolerance       float64
		requireChecksum bool
	)
	cmd := &cobra.Command{
		Use:   "scan <image>...",
		Short: "Scan image files for 1D barcodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := grayscan.DecodeOptions{
				ScanRows:        rows,
				Tolerance:       tolerance,
				RequireChecksum: requireChecksum,
			}
			for _, name := range formats {
				f, ok := grayscan.ParseFormat(name)
				if !ok {
					return fmt.Errorf("unknown format %q", name)
				}
				opts.Formats = append(opts.Formats, f)
			}

			failed := false
			for _, path := range args {
				img, err := imaging.Open(path, imaging.AutoOrientation(true))
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					failed = true
					continue
				}
				results, err := grayscan.DecodeAny(grayscan.FromImage(img), &opts)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no barcode found\n", path)
					failed = true
					continue
				}
				for _, sym := range results {
					prefix := ""
					if len(args) > 1 {
						prefix = path + ": "
					}
					suffix := ""
					if !sym.ChecksumOK {
						suffix = " (checksum failed)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s[%s] %s%s\n", prefix, sym.Format, sym.Text, suffix)
				}
			}
			if failed {
				return errors.New("not all files decoded")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "restrict to these formats (repeatable)")
	cmd.Flags().IntVarP(&rows, "rows", "r", 0, "number of scanlines to sample (0 = default)")
	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 0, "per-run width tolerance in module units (0 = default)")
	cmd.Flags().BoolVar(&requireChecksum, "require-checksum", false, "drop symbols whose checksum failed")
	return cmd
}
