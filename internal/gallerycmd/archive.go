package gallerycmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/memeforge/memeforge/internal/gallery"
	"github.com/memeforge/memeforge/internal/models"
)

// ArchiveRecord is the parquet row shape for gallery archives.
type ArchiveRecord struct {
	ID              string `parquet:"id"`
	Prompt          string `parquet:"prompt"`
	Style           string `parquet:"style,optional"`
	MimeType        string `parquet:"mime_type"`
	ImageData       []byte `parquet:"image_data"`
	FrameDurationMS int32  `parquet:"frame_duration_ms"`
	CreatedAtUnix   int64  `parquet:"created_at_unix"`
}

func toArchive(c models.Creation) ArchiveRecord {
	return ArchiveRecord{
		ID:              c.ID,
		Prompt:          c.Prompt,
		Style:           c.Style,
		MimeType:        c.MimeType,
		ImageData:       c.ImageData,
		FrameDurationMS: int32(c.FrameDurationMS),
		CreatedAtUnix:   c.CreatedAt.Unix(),
	}
}

func fromArchive(r ArchiveRecord) models.Creation {
	return models.Creation{
		ID:              r.ID,
		Prompt:          r.Prompt,
		Style:           r.Style,
		MimeType:        r.MimeType,
		ImageData:       r.ImageData,
		FrameDurationMS: int(r.FrameDurationMS),
		CreatedAt:       time.Unix(r.CreatedAtUnix, 0).UTC(),
	}
}

func NewExportCmd() *cobra.Command {
	var dataDir string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the gallery to a parquet archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := gallery.Open(StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			creations, err := store.List()
			if err != nil {
				return err
			}

			records := make([]ArchiveRecord, 0, len(creations))
			for _, c := range creations {
				records = append(records, toArchive(c))
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create archive: %w", err)
			}
			defer f.Close()

			writer := parquet.NewGenericWriter[ArchiveRecord](f)
			if _, err := writer.Write(records); err != nil {
				return fmt.Errorf("failed to write archive: %w", err)
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("failed to finalize archive: %w", err)
			}

			slog.Info("Gallery exported", "path", outPath, "creations", len(records))
			return nil
		},
	}

	addDataDirFlag(cmd, &dataDir)
	cmd.Flags().StringVarP(&outPath, "out", "o", "creations.parquet", "Archive output path")
	return cmd
}

func NewImportCmd() *cobra.Command {
	var dataDir string
	var inPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import creations from a parquet archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readArchive(inPath)
			if err != nil {
				return err
			}

			store, err := gallery.Open(StorePath(dataDir))
			if err != nil {
				return err
			}
			defer store.Close()

			imported := 0
			for _, r := range records {
				c := fromArchive(r)
				if err := store.Add(&c); err != nil {
					return fmt.Errorf("failed to import creation %s: %w", r.ID, err)
				}
				imported++
			}

			slog.Info("Gallery imported", "path", inPath, "creations", imported)
			return nil
		},
	}

	addDataDirFlag(cmd, &dataDir)
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Archive input path (required)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func readArchive(path string) ([]ArchiveRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ArchiveRecord](pf)
	defer reader.Close()

	var records []ArchiveRecord
	rows := make([]ArchiveRecord, 64) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	return records, nil
}
