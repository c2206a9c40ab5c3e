package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrImageEmpty       = errors.New("firmware image is empty")
	ErrChecksumMismatch = errors.New("firmware checksum mismatch")
	ErrSlotNotOpen      = errors.New("firmware slot not open")
)

// FirmwareSlot is the write target for a streamed image of unknown size.
type FirmwareSlot interface {
	Begin() error
	Write(p []byte) (int, error)
	// Commit verifies what was written and marks it as the next-boot image.
	// A non-empty wantSHA256 (hex) must match the received bytes.
	Commit(wantSHA256 string) error
	// Abort discards a partial image. Safe to call at any time.
	Abort()
}

const (
	partialImageName = "firmware.part"
	// NextImageName is what the boot loader picks up on the next start.
	NextImageName = "firmware.next.bin"
)

// FileSlot stages an image in Dir and renames it into place on commit, so
// the previous next-boot image is untouched until the new one is complete.
type FileSlot struct {
	Dir string

	f    *os.File
	sum  hash.Hash
	size int64
}

func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{Dir: dir}
}

func (s *FileSlot) Begin() error {
	s.Abort()
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, partialImageName), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open partial image: %w", err)
	}
	s.f = f
	s.sum = sha256.New()
	s.size = 0
	return nil
}

func (s *FileSlot) Write(p []byte) (int, error) {
	if s.f == nil {
		return 0, ErrSlotNotOpen
	}
	n, err := s.f.Write(p)
	s.sum.Write(p[:n])
	s.size += int64(n)
	return n, err
}

func (s *FileSlot) Commit(wantSHA256 string) error {
	if s.f == nil {
		return ErrSlotNotOpen
	}
	defer s.Abort()

	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync partial image: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close partial image: %w", err)
	}
	s.f = nil

	if s.size == 0 {
		return ErrImageEmpty
	}
	got := hex.EncodeToString(s.sum.Sum(nil))
	if wantSHA256 != "" && !strings.EqualFold(got, wantSHA256) {
		return fmt.Errorf("%w: got %s", ErrChecksumMismatch, got)
	}
	if err := os.Rename(filepath.Join(s.Dir, partialImageName), filepath.Join(s.Dir, NextImageName)); err != nil {
		return fmt.Errorf("install image: %w", err)
	}
	return nil
}

func (s *FileSlot) Abort() {
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	_ = os.Remove(filepath.Join(s.Dir, partialImageName))
}
