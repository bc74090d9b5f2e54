package main

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	grayscan "github.com/emarkov/grayscan"
	"github.com/emarkov/grayscan/oned"
)

func genCmd() *cobra.Command {
	var (
		format string
		output string
		unit   int
		quiet  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "gen <text>",
		Short: "Generate a barcode image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := grayscan.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q", format)
			}

			var (
				modules []bool
				err     error
			)
			switch f {
			case grayscan.FormatEAN13:
				modules, err = oned.EncodeEAN13(args[0])
			case grayscan.FormatUPCA:
				modules, err = oned.EncodeUPCA(args[0])
			case grayscan.FormatCode128:
				modules, err = oned.EncodeCode128(args[0])
			case grayscan.FormatCode39:
				modules, err = oned.EncodeCode39(args[0])
			case grayscan.FormatITF:
				modules, err = oned.EncodeITF(args[0])
			default:
				return fmt.Errorf("cannot encode format %s", f)
			}
			if err != nil {
				return err
			}

			row := oned.RenderRow(modules, unit, quiet)
			img := image.NewGray(image.Rect(0, 0, len(row), height))
			for y := 0; y < height; y++ {
				copy(img.Pix[y*img.Stride:], row)
			}
			return imaging.Save(img, output)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "ean13", "barcode format to encode")
	cmd.Flags().StringVarP(&output, "output", "o", "barcode.png", "output image path")
	cmd.Flags().IntVarP(&unit, "unit", "u", 3, "module width in pixels")
	cmd.Flags().IntVarP(&quiet, "quiet", "q", 12, "quiet zone width in modules")
	cmd.Flags().IntVar(&height, "height", 80, "image height in pixels")
	return cmd
}
