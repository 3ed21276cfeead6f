package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/services"
)

// MessageTerminator follows every anonymized message in the output
const MessageTerminator = "\r"

// FileContext holds the output handle and cleanup logic for atomic file writing
type FileContext struct {
	OutFile  *os.File
	TempFile string
	success  bool
}

// SetupOutputFile creates <outputFile>.part; it is renamed on success
func SetupOutputFile(outputFile string) (*FileContext, error) {
	tempOutputFile := outputFile + ".part"
	outFile, err := os.Create(tempOutputFile)
	if err != nil {
		return nil, lib.WrapFileError(tempOutputFile, err)
	}
	return &FileContext{OutFile: outFile, TempFile: tempOutputFile}, nil
}

// Finalize closes the output and atomically renames .part to the final filename
// Without markSuccess the partial file is removed instead
func (ctx *FileContext) Finalize(outputFile string, markSuccess bool) error {
	defer func() {
		if !ctx.success {
			_ = os.Remove(ctx.TempFile)
		}
	}()

	if err := ctx.OutFile.Close(); err != nil {
		return lib.WrapFileError(ctx.TempFile, err)
	}
	if !markSuccess {
		return nil
	}

	if err := os.Rename(ctx.TempFile, outputFile); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	ctx.success = true
	return nil
}

// ProgressFunc receives the number of input bytes consumed so far
type ProgressFunc func(offset int64)

// FileResult counts what an anonymization pass consumed
type FileResult struct {
	Messages  int
	BytesRead int64
}

// AnonymizeBatch splits data into messages, anonymizes each and writes it to w
// followed by a carriage return. Progress is reported after every message.
func AnonymizeBatch(data string, tr *anonymize.Transformer, w io.Writer, progress ProgressFunc) (FileResult, error) {
	var result FileResult
	bw := bufio.NewWriter(w)

	splitter := services.NewBatchSplitter(data)
	for raw, ok := splitter.Next(); ok; raw, ok = splitter.Next() {
		msg, err := anonymize.NewMessage(raw)
		if err != nil {
			return result, fmt.Errorf("message %d: %w", result.Messages+1, err)
		}

		out, err := tr.Transform(msg)
		if err != nil {
			return result, fmt.Errorf("message %d: %w", result.Messages+1, err)
		}

		if _, err := bw.WriteString(out + MessageTerminator); err != nil {
			return result, fmt.Errorf("failed to write output: %w", err)
		}

		result.Messages++
		result.BytesRead = int64(splitter.Offset())
		if progress != nil {
			progress(result.BytesRead)
		}
	}

	if err := bw.Flush(); err != nil {
		return result, fmt.Errorf("failed to write output: %w", err)
	}
	result.BytesRead = int64(len(data))
	return result, nil
}

// AnonymizeFile anonymizes inputFile into outputFile, or into stdout when
// outputFile is empty. A failed file output leaves no partial file behind.
func AnonymizeFile(inputFile, outputFile string, tr *anonymize.Transformer, stdout io.Writer, progress ProgressFunc) (FileResult, error) {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return FileResult{}, lib.WrapFileError(inputFile, err)
	}

	if outputFile == "" {
		return AnonymizeBatch(string(data), tr, stdout, progress)
	}

	ctx, err := SetupOutputFile(outputFile)
	if err != nil {
		return FileResult{}, err
	}

	result, runErr := AnonymizeBatch(string(data), tr, ctx.OutFile, progress)
	if err := ctx.Finalize(outputFile, runErr == nil); err != nil && runErr == nil {
		runErr = err
	}
	return result, runErr
}
