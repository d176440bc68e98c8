// =============================================================================
// Tabular Converter - File Manager Utility
// =============================================================================
//
// This module provides the file operations of a conversion run:
//   - Directory management
//   - Input discovery (sorted, non-recursive)
//   - Output naming and replacement
//   - Input archival after a fully successful conversion
//   - Summary and diagnostics logs
//
// All access goes through a billy.Filesystem. The CLI passes an OS filesystem
// rooted at "/" together with absolute paths; tests use an in-memory one.
//
// ARCHIVAL STRATEGY:
//   - Input files (and their declarations) are moved to input_archive_dir
//   - Failed files remain in their original location
//   - Reports are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	fs billy.Filesystem

	// InputDir is scanned for input files.
	InputDir string

	// OutputDir receives the converted files and reports.
	OutputDir string

	// InputArchiveDir receives processed inputs. Empty disables archival.
	InputArchiveDir string
}

// NewFileManager creates a new FileManager over fs.
func NewFileManager(fs billy.Filesystem, inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		fs:              fs,
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// Filesystem returns the underlying filesystem.
func (fm *FileManager) Filesystem() billy.Filesystem {
	return fm.fs
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output and archive directories if they don't
// exist. The input directory must already exist.
//
// RETURNS:
//   - An error if the input directory is missing or a directory cannot be
//     created.
func (fm *FileManager) EnsureDirectories() error {
	info, err := fm.fs.Stat(fm.InputDir)
	if err != nil {
		return fmt.Errorf("failed to access input directory %s: %w", fm.InputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", fm.InputDir)
	}

	for _, dir := range []string{fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := fm.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files of the input directory whose extension
// matches (case-insensitive).
//
// PARAMETERS:
//   - extension: The file extension to match, e.g. ".csv".
//
// RETURNS:
//   - The matching paths, sorted by name.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(extension string) ([]string, error) {
	entries, err := fm.fs.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			continue
		}
		files = append(files, filepath.Join(fm.InputDir, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ACCESS
// =============================================================================

// ReadFile returns the content of a file.
func (fm *FileManager) ReadFile(path string) ([]byte, error) {
	return util.ReadFile(fm.fs, path)
}

// FileExists checks if a file exists.
func (fm *FileManager) FileExists(path string) bool {
	_, err := fm.fs.Stat(path)
	return err == nil
}

// OutputPath returns the output path for an input file: the input's base
// name without extension, plus ext, inside the output directory.
func (fm *FileManager) OutputPath(inputPath, ext string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(fm.OutputDir, base+ext)
}

// RemoveIfExists deletes a file; a missing file is not an error.
func (fm *FileManager) RemoveIfExists(path string) error {
	if err := fm.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove existing file %s: %w", path, err)
	}
	return nil
}

// WriteOutput replaces path with whatever write produces. Any existing file
// is removed first so content is never appended.
func (fm *FileManager) WriteOutput(path string, write func(w io.Writer) error) (err error) {
	if err := fm.RemoveIfExists(path); err != nil {
		return err
	}

	f, err := fm.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return write(f)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a file into the input archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file ("" when archival is disabled).
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.InputArchiveDir == "" {
		return "", nil
	}

	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(filePath))

	if err := fm.fs.MkdirAll(fm.InputArchiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := fm.RemoveIfExists(archivePath); err != nil {
		return "", err
	}

	if err := fm.fs.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := fm.copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := fm.fs.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// copyFile copies a file from src to dst.
func (fm *FileManager) copyFile(src, dst string) error {
	source, err := fm.fs.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	return fm.WriteOutput(dst, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	})
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalRows        int
	TotalDiagnostics int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile    string
	OutputFiles  []string
	ArchivePath  string
	HeaderSource string
	Rows         int
	Diagnostics  int
	ProcessTime  time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

const rule = "================================================================================\n"

// WriteSummaryLog writes a processing summary into the output directory.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	name := fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405"))
	path := filepath.Join(fm.OutputDir, name)

	err := fm.WriteOutput(path, func(out io.Writer) error {
		w := bufio.NewWriter(out)

		fmt.Fprintf(w, "Tabular Converter - Processing Summary\n%s\n", rule)
		fmt.Fprintf(w, "Run Information:\n"+
			"  Run ID:         %s\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n",
			summary.RunID,
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime))
		fmt.Fprintf(w, "Statistics:\n"+
			"  Total Files:        %d\n"+
			"  Successful:         %d\n"+
			"  Failed:             %d\n"+
			"  Total Rows:         %d\n"+
			"  Diagnostics:        %d\n\n",
			summary.TotalFiles,
			summary.SuccessfulFiles,
			summary.FailedFiles,
			summary.TotalRows,
			summary.TotalDiagnostics)

		if len(summary.ProcessedFiles) > 0 {
			fmt.Fprintf(w, "Successful Files:\n%s", rule)
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(w, "  Input:         %s\n", pf.InputFile)
				for _, out := range pf.OutputFiles {
					fmt.Fprintf(w, "  Output:        %s\n", out)
				}
				if pf.ArchivePath != "" {
					fmt.Fprintf(w, "  Archived:      %s\n", pf.ArchivePath)
				}
				fmt.Fprintf(w, "  Header Source: %s\n", pf.HeaderSource)
				fmt.Fprintf(w, "  Rows:          %d\n", pf.Rows)
				fmt.Fprintf(w, "  Diagnostics:   %d\n", pf.Diagnostics)
				fmt.Fprintf(w, "  Process Time:  %s\n\n", pf.ProcessTime)
			}
		}

		if len(summary.FailedFilesList) > 0 {
			fmt.Fprintf(w, "Failed Files:\n%s", rule)
			for _, ff := range summary.FailedFilesList {
				fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
				if ff.ErrorType != "" {
					fmt.Fprintf(w, "  Type:  %s\n", ff.ErrorType)
				}
				fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
			}
		}

		fmt.Fprintf(w, "%sEnd of Summary\n", rule)
		return w.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return path, nil
}

// =============================================================================
// DIAGNOSTICS LOG
// =============================================================================

// WriteDiagnosticsLog writes every diagnostic of a run into the output
// directory. Nothing is written when there are none.
//
// RETURNS:
//   - The path to the log file, or "" if nothing was written.
//   - An error if writing fails.
func (fm *FileManager) WriteDiagnosticsLog(diags []diagnostics.Diagnostic, generated time.Time) (string, error) {
	if len(diags) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("diagnostics_log_%s.txt", generated.Format("20060102_150405"))
	path := filepath.Join(fm.OutputDir, name)

	err := fm.WriteOutput(path, func(out io.Writer) error {
		w := bufio.NewWriter(out)

		fmt.Fprintf(w, "Tabular Converter - Diagnostics Log\n"+
			"Generated: %s\n"+
			"Total Diagnostics: %d\n"+
			"Summary: %s\n%s\n",
			generated.Format("2006-01-02 15:04:05"),
			len(diags),
			diagnostics.FormatSummary(diags),
			rule)

		for i, d := range diags {
			fmt.Fprintf(w, "Diagnostic #%d\n"+
				"  Severity: %s\n"+
				"  Code:     %s\n"+
				"  File:     %s\n"+
				"  Message:  %s\n",
				i+1, d.Severity, d.Code, d.File, d.Message)
			if d.Row > 0 {
				fmt.Fprintf(w, "  Row:      %d\n", d.Row)
			}
			if d.Field != "" {
				fmt.Fprintf(w, "  Field:    %s\n", d.Field)
			}
			if d.Value != "" {
				fmt.Fprintf(w, "  Value:    %s\n", d.Value)
			}
			w.WriteString("\n")
		}

		fmt.Fprintf(w, "%sEnd of Diagnostics Log\n", rule)
		return w.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write diagnostics log: %w", err)
	}

	return path, nil
}
