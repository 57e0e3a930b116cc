package exporter

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/matdaan/vicore/internal/models"
)

// ExportVotesTSV writes one line per recorded ballot: height, election,
// voter digest, candidate digest and cast time in Unix nanoseconds. The
// genesis block carries no ballot and is skipped.
func ExportVotesTSV(ctx context.Context, blocks []models.Block, outputPath string) error {
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create votes TSV file: %v", err)
	}
	defer outputFile.Close()
	writer := bufio.NewWriter(outputFile)

	for i, block := range blocks {
		if i&0xFF == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if block.Data.IsGenesis() {
			continue
		}

		line := fmt.Sprintf("%d\t%s\t%s\t%s\t%d\n",
			block.Index,
			block.Data.ElectionID,
			block.Data.VoterHash,
			block.Data.CandidateHash,
			block.Data.CastAt.UnixNano(),
		)
		if _, err := writer.WriteString(line); err != nil {
			return fmt.Errorf("failed to write to votes TSV file: %v", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush votes TSV file: %v", err)
	}

	return nil
}
