// Package exporter writes audit copies of the vote ledger to TSV files.
package exporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/matdaan/vicore/internal/models"
)

// ExportBlocksTSV writes one line per block: height, tab, compact JSON.
// The output is sorted by height because the input chain is.
func ExportBlocksTSV(ctx context.Context, blocks []models.Block, outputPath string) error {
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create blocks TSV file: %v", err)
	}
	defer outputFile.Close()
	writer := bufio.NewWriter(outputFile)

	var bar *progressbar.ProgressBar
	if len(blocks) > 1 {
		bar = progressbar.NewOptions64(
			int64(len(blocks)),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Exporting blocks..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	for i, block := range blocks {
		if i&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		data, err := json.Marshal(block)
		if err != nil {
			return fmt.Errorf("failed to marshal block %d: %v", block.Index, err)
		}

		if _, err := fmt.Fprintf(writer, "%d\t%s\n", block.Index, data); err != nil {
			return fmt.Errorf("failed to write to blocks TSV file: %v", err)
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				return fmt.Errorf("failed to update progress bar: %w", err)
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush blocks TSV file: %v", err)
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}

	return nil
}
