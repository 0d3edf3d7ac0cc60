// Package pdf extracts text from PDF files using the pdftotext tool
// from poppler-utils.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates the pdftotext binary is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes external commands. It exists so tests can
// inject a fake pdftotext.
type CommandRunner interface {
	// Run executes the named command and returns its combined stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF files by shelling out to pdftotext.
type Extractor struct {
	runner CommandRunner
}

// New creates a new PDF extractor using the system pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is required for PDF support.\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: sudo apt install poppler-utils\n" +
		"  Fedora: sudo dnf install poppler-utils"
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extensions returns the file extensions this extractor supports.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// CanHandle reports whether the file name has a supported extension.
func (e *Extractor) CanHandle(fileName string) bool {
	return strings.ToLower(filepath.Ext(fileName)) == ".pdf"
}

// ExtractText writes the content to a temporary file and runs pdftotext
// over it, returning the tool's stdout with layout noise cleaned up.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ragchat-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp pdf: %w", err)
	}

	// "-" sends extracted text to stdout.
	output, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}

	return cleanExtractedText(string(output)), nil
}

var (
	horizontalRuns = regexp.MustCompile(`[ \t]{2,}`)
	trailingSpace  = regexp.MustCompile(`[ \t]+\n`)
)

// cleanExtractedText squashes the column padding pdftotext emits in
// layout mode. Newlines are preserved so paragraph structure survives
// for the chunker.
func cleanExtractedText(text string) string {
	text = strings.ReplaceAll(text, "\f", "\n\n")
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = trailingSpace.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
