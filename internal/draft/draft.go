// Package draft models the in-progress return request built by the
// submission wizard before it is sent to the server. A draft is purely
// local: nothing touches the network until Validate passes and the caller
// submits.
package draft

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Wizard steps. Step 2 is only reachable once a barcode is present.
const (
	StepBarcode = 1
	StepMedia   = 2
)

// Kind tags an attachment as image or video, mirroring how the server
// classifies uploaded media by extension.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// videoExtensions matches the server's video extension set; everything
// else is treated as an image.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// KindForPath classifies a file by its extension.
func KindForPath(path string) Kind {
	if videoExtensions[strings.ToLower(filepath.Ext(path))] {
		return KindVideo
	}
	return KindImage
}

// Attachment is one local file queued for upload.
type Attachment struct {
	Path string
	Size int64
	Kind Kind
}

// Name returns the attachment's base file name for display.
func (a Attachment) Name() string { return filepath.Base(a.Path) }

// ValidationError names the draft field that failed and the message shown
// next to it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Draft is the wizard's working state.
type Draft struct {
	Barcode     string
	Attachments []Attachment
	Step        int
}

// New starts an empty draft on the barcode step.
func New() *Draft {
	return &Draft{Step: StepBarcode}
}

// SetScanned records a barcode delivered by the scanner and advances to
// the media step immediately.
func (d *Draft) SetScanned(code string) {
	d.Barcode = strings.TrimSpace(code)
	if d.Barcode != "" {
		d.Step = StepMedia
	}
}

// Next advances from the barcode step after manual entry. It refuses to
// advance without a barcode.
func (d *Draft) Next() error {
	if strings.TrimSpace(d.Barcode) == "" {
		return ValidationError{Field: "barcode", Message: "Barcode is required"}
	}
	d.Barcode = strings.TrimSpace(d.Barcode)
	d.Step = StepMedia
	return nil
}

// Back returns to the barcode step. The barcode and any attachments are
// kept.
func (d *Draft) Back() {
	d.Step = StepBarcode
}

// AddFile stats and attaches a local file. Duplicates of an already
// attached path are rejected.
func (d *Draft) AddFile(path string) error {
	for _, a := range d.Attachments {
		if a.Path == path {
			return ValidationError{Field: "media", Message: "File is already attached"}
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return ValidationError{Field: "media", Message: fmt.Sprintf("Cannot read %s", filepath.Base(path))}
	}
	if info.IsDir() {
		return ValidationError{Field: "media", Message: fmt.Sprintf("%s is a directory", filepath.Base(path))}
	}
	d.Attachments = append(d.Attachments, Attachment{
		Path: path,
		Size: info.Size(),
		Kind: KindForPath(path),
	})
	return nil
}

// RemoveFile drops the attachment at index i; out-of-range indexes are
// ignored.
func (d *Draft) RemoveFile(i int) {
	if i < 0 || i >= len(d.Attachments) {
		return
	}
	d.Attachments = append(d.Attachments[:i], d.Attachments[i+1:]...)
}

// FilePaths returns the attachment paths in the order they were added.
func (d *Draft) FilePaths() []string {
	paths := make([]string, len(d.Attachments))
	for i, a := range d.Attachments {
		paths[i] = a.Path
	}
	return paths
}

// Validate checks the draft is submittable. It returns one error per
// failing field and performs no I/O.
func (d *Draft) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(d.Barcode) == "" {
		errs = append(errs, ValidationError{Field: "barcode", Message: "Barcode is required"})
	}
	if len(d.Attachments) == 0 {
		errs = append(errs, ValidationError{Field: "media", Message: "Attach at least one photo or video"})
	}
	return errs
}
