package cmd

import (
	"errors"
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/snapscan/snapscan/internal/export"
	"github.com/snapscan/snapscan/internal/pipeline"
	"github.com/snapscan/snapscan/internal/utils"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf [files...]",
	Short: "Scan document photos into a PDF document",
	Long: `Process one or more document photos and assemble the results into a
single PDF, one page per input, each scan scaled and centered on the page.

Examples:
  snapscan pdf photo.jpg -o scan.pdf
  snapscan pdf page1.jpg page2.jpg page3.jpg -o chapter.pdf --mode scan`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runPDFCommand,
}

func runPDFCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return errors.New("no output file provided (use --output)")
	}

	cfg := GetConfig()
	pcfg, err := pipelineConfigFromFlags(cmd, cfg)
	if err != nil {
		return err
	}
	pl, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}

	pages := make([]image.Image, 0, len(args))
	for _, input := range args {
		if !utils.IsSupportedImage(input) {
			return fmt.Errorf("unsupported input file: %s", input)
		}
		img, _, err := utils.LoadImage(input)
		if err != nil {
			return fmt.Errorf("load %s: %w", input, err)
		}
		res, err := pl.Process(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("process %s: %w", input, err)
		}
		pages = append(pages, res.Image)
	}

	pdfCfg := cfg.PDFOptions()
	if err := export.PDFFile(output, pdfCfg, pages...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages)\n", output, len(pages))
	return nil
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringP("output", "o", "", "output PDF file (required)")
	pdfCmd.Flags().String("mode", "", "enhancement mode (original, grayscale, scan, high-contrast)")
	pdfCmd.Flags().Bool("no-crop", false, "disable boundary detection and cropping")
	pdfCmd.Flags().Bool("no-deskew", false, "disable perspective correction")
}
