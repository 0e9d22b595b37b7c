package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapscan/snapscan/internal/config"
	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/pipeline"
	"github.com/snapscan/snapscan/internal/utils"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Scan document photos into image files",
	Long: `Process one or more document photos: detect the page boundary, correct
the perspective, apply the selected enhancement mode, and write the result
as an image file.

Supported input formats: JPEG, PNG, BMP

Examples:
  snapscan image photo.jpg
  snapscan image photo.jpg -o scan.png --mode high-contrast
  snapscan image *.jpg --mode scan --no-deskew`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runImageCommand,
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" && len(args) > 1 {
		return errors.New("--output requires exactly one input file")
	}
	printJSON, _ := cmd.Flags().GetBool("json")

	cfg := GetConfig()
	pcfg, err := pipelineConfigFromFlags(cmd, cfg)
	if err != nil {
		return err
	}
	pl, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}

	for _, input := range args {
		if !utils.IsSupportedImage(input) {
			return fmt.Errorf("unsupported input file: %s", input)
		}
		out := outputFile
		if out == "" {
			out = derivedOutputPath(input, cfg.Output.Format)
		}
		if err := scanImageFile(cmd, pl, input, out, cfg.Output.JPEGQuality, printJSON); err != nil {
			return err
		}
	}
	return nil
}

// scanImageFile runs the pipeline over one file and writes the result.
func scanImageFile(cmd *cobra.Command, pl *pipeline.Pipeline, input, output string, quality int, printJSON bool) error {
	img, meta, err := utils.LoadImage(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	slog.Debug("image loaded", "path", input, "width", meta.Width, "height", meta.Height)

	res, err := pl.Process(cmd.Context(), img)
	if err != nil {
		return fmt.Errorf("process %s: %w", input, err)
	}
	if err := utils.SaveImage(res.Image, output, quality); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}

	if printJSON {
		b := res.Image.Bounds()
		summary := map[string]any{
			"input":             input,
			"output":            output,
			"boundary_found":    res.BoundaryFound,
			"transform_applied": res.TransformApplied,
			"width":             b.Dx(),
			"height":            b.Dy(),
			"total_time_ms":     res.Timings.Total.Milliseconds(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (boundary=%v, deskewed=%v)\n",
			input, output, res.BoundaryFound, res.TransformApplied)
	}
	return nil
}

// pipelineConfigFromFlags merges the loaded configuration with per-command
// flag overrides.
func pipelineConfigFromFlags(cmd *cobra.Command, cfg *config.Config) (pipeline.Config, error) {
	pcfg, err := cfg.PipelineOptions()
	if err != nil {
		return pipeline.Config{}, err
	}
	if cmd.Flags().Changed("mode") {
		modeName, _ := cmd.Flags().GetString("mode")
		mode, err := enhance.ParseMode(modeName)
		if err != nil {
			return pipeline.Config{}, err
		}
		pcfg.Mode = mode
	}
	if noCrop, _ := cmd.Flags().GetBool("no-crop"); noCrop {
		pcfg.AutoCrop = false
	}
	if noDeskew, _ := cmd.Flags().GetBool("no-deskew"); noDeskew {
		pcfg.Deskew = false
	}
	return pcfg, nil
}

// derivedOutputPath returns "<name>_scan.<format>" next to the input file.
func derivedOutputPath(input, format string) string {
	ext := "." + format
	if format == "" || format == "pdf" {
		ext = ".png"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_scan" + ext
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("output", "o", "", "output file (single input only; default <name>_scan.<format>)")
	imageCmd.Flags().String("mode", "", "enhancement mode (original, grayscale, scan, high-contrast)")
	imageCmd.Flags().Bool("no-crop", false, "disable boundary detection and cropping")
	imageCmd.Flags().Bool("no-deskew", false, "disable perspective correction")
	imageCmd.Flags().Bool("json", false, "print a JSON summary per processed file")
}
