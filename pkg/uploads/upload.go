// Package uploads validates and tracks the document attachments of an
// application form.
package uploads

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrUnknownSlot     = errors.New("unknown attachment slot")
	ErrEmptyFile       = errors.New("empty file name")
	ErrInvalidSize     = errors.New("invalid file size")
)

// MaxFileSize is the largest accepted attachment: 5 MiB, inclusive.
const MaxFileSize int64 = 5 * 1024 * 1024

// Status lines shown next to an attachment input.
const (
	StatusNotUploaded = "Not uploaded"
	StatusInvalidType = "❌ Invalid file type"
	StatusTooLarge    = "❌ File too large (max 5MB)"
	StatusInvalidSize = "❌ Invalid file size"
)

// DefaultAccept lists the MIME types accepted for application documents.
var DefaultAccept = []string{
	"application/pdf",
	"image/jpeg",
	"image/jpg",
	"image/png",
}

// UploadConfig configures upload behavior.
type UploadConfig struct {
	// Accept is a list of allowed MIME types. "type/*" wildcards match
	// any subtype.
	Accept []string

	// MaxFileSize is the maximum file size in bytes.
	MaxFileSize int64
}

// DefaultUploadConfig returns the application document policy.
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		Accept:      DefaultAccept,
		MaxFileSize: MaxFileSize,
	}
}

// Check validates a file's declared size and type against the config.
// The size limit is inclusive; negative sizes are rejected.
func (c *UploadConfig) Check(size int64, contentType string) error {
	if !c.isAllowedType(contentType) {
		return ErrInvalidFileType
	}
	if size < 0 {
		return ErrInvalidSize
	}
	if size > c.MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func (c *UploadConfig) isAllowedType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" {
		return false
	}

	for _, allowed := range c.Accept {
		if allowed == "*/*" {
			return true
		}
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(contentType, prefix) {
				return true
			}
		}
		if allowed == contentType {
			return true
		}
	}
	return false
}

// Slot is a named attachment input on the form.
type Slot struct {
	// Name is the field key, e.g. "idDocument".
	Name string

	// Label is the display label.
	Label string

	// Required slots must hold an accepted file before the documents
	// step can be left.
	Required bool
}

// Attachment is an accepted file.
type Attachment struct {
	// UUID is a unique identifier for this attachment.
	UUID string `json:"uuid" msgpack:"uuid"`

	// Slot is the slot the file was attached to.
	Slot string `json:"slot" msgpack:"slot"`

	// FileName is the sanitized original file name.
	FileName string `json:"filename" msgpack:"filename"`

	// Size is the file size in bytes.
	Size int64 `json:"size" msgpack:"size"`

	// ContentType is the MIME type.
	ContentType string `json:"content_type" msgpack:"content_type"`

	// AttachedAt is when the file was accepted.
	AttachedAt time.Time `json:"attached_at" msgpack:"attached_at"`
}

// Set holds at most one attachment per slot for a single form.
type Set struct {
	Config *UploadConfig

	slots   []Slot
	entries map[string]*Attachment
	status  map[string]string
	mu      sync.RWMutex
}

// NewSet creates an attachment set for the given slots.
func NewSet(config *UploadConfig, slots ...Slot) *Set {
	if config == nil {
		config = DefaultUploadConfig()
	}
	return &Set{
		Config:  config,
		slots:   slots,
		entries: make(map[string]*Attachment),
		status:  make(map[string]string),
	}
}

// Slots returns the slots in declaration order.
func (s *Set) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *Set) slot(name string) (Slot, bool) {
	for _, sl := range s.slots {
		if sl.Name == name {
			return sl, true
		}
	}
	return Slot{}, false
}

// Attach validates a selected file and stores it in slot. A rejected
// file clears the slot and records the matching status line.
func (s *Set) Attach(slot, filename string, size int64, contentType string) (*Attachment, error) {
	if _, ok := s.slot(slot); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := sanitizeFilename(filename)
	if name == "" {
		delete(s.entries, slot)
		s.status[slot] = StatusNotUploaded
		return nil, ErrEmptyFile
	}

	if err := s.Config.Check(size, contentType); err != nil {
		delete(s.entries, slot)
		s.status[slot] = rejectionStatus(err)
		return nil, err
	}

	entry := &Attachment{
		UUID:        uuid.NewString(),
		Slot:        slot,
		FileName:    name,
		Size:        size,
		ContentType: contentType,
		AttachedAt:  time.Now(),
	}
	s.entries[slot] = entry
	s.status[slot] = AcceptedStatus(name, size)

	result := *entry
	return &result, nil
}

// Clear empties a slot.
func (s *Set) Clear(slot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, slot)
	delete(s.status, slot)
}

// Get retrieves the attachment held by slot.
func (s *Set) Get(slot string) (Attachment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[slot]
	if !ok {
		return Attachment{}, false
	}
	return *entry, true
}

// Has reports whether slot holds an accepted file.
func (s *Set) Has(slot string) bool {
	_, ok := s.Get(slot)
	return ok
}

// Status returns the status line for slot.
func (s *Set) Status(slot string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[slot]; ok {
		return st
	}
	return StatusNotUploaded
}

// Attachments returns the accepted files in slot order.
func (s *Set) Attachments() []Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Attachment
	for _, sl := range s.slots {
		if entry, ok := s.entries[sl.Name]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

// MissingRequired returns the required slots that are still empty.
func (s *Set) MissingRequired() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []Slot
	for _, sl := range s.slots {
		if _, ok := s.entries[sl.Name]; sl.Required && !ok {
			missing = append(missing, sl)
		}
	}
	return missing
}

// Complete reports whether every required slot is filled.
func (s *Set) Complete() bool {
	return len(s.MissingRequired()) == 0
}

// AcceptedStatus formats the status line of an accepted file.
func AcceptedStatus(name string, size int64) string {
	return fmt.Sprintf("✅ %s (%s)", name, FormatSize(size))
}

// FormatSize renders a byte count in MiB with two decimals, e.g. "1.50MB".
func FormatSize(size int64) string {
	return fmt.Sprintf("%.2fMB", float64(size)/1024/1024)
}

func rejectionStatus(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return StatusTooLarge
	case errors.Is(err, ErrInvalidFileType):
		return StatusInvalidType
	case errors.Is(err, ErrInvalidSize):
		return StatusInvalidSize
	default:
		return StatusNotUploaded
	}
}

func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "." || filename == "/" {
		return ""
	}

	filename = strings.Map(func(r rune) rune {
		if r == '\x00' {
			return '_'
		}
		return r
	}, filename)

	// Limit length
	if len(filename) > 255 {
		ext := filepath.Ext(filename)
		filename = filename[:255-len(ext)] + ext
	}

	return filename
}
