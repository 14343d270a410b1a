package invoice

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const logoFilename = "logo.png"

// Scratch owns the renderer's ephemeral working directory: cached logo,
// copies of generated invoices. A periodic sweep removes files older than
// the configured age.
type Scratch struct {
	dir     string
	logoURL string
	maxAge  time.Duration
	http    *http.Client
}

// NewScratch prepares the scratch directory.
func NewScratch(dir, logoURL string, maxAge time.Duration) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir %s: %w", dir, err)
	}
	return &Scratch{
		dir:     dir,
		logoURL: logoURL,
		maxAge:  maxAge,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// LogoPath returns the local path of the cached logo, fetching it on first
// use. ok is false when no logo is configured or the fetch failed; the
// renderer falls back to a text glyph in that case.
func (s *Scratch) LogoPath() (string, bool) {
	if s.logoURL == "" {
		return "", false
	}
	path := filepath.Join(s.dir, logoFilename)
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	if err := s.fetchLogo(path); err != nil {
		log.Printf("invoice: logo fetch failed, falling back to text glyph: %v", err)
		return "", false
	}
	return path, true
}

func (s *Scratch) fetchLogo(path string) error {
	resp, err := s.http.Get(s.logoURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logo fetch returned HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// SaveCopy writes a generated document into the scratch dir. Best effort;
// the sweep reclaims the space later.
func (s *Scratch) SaveCopy(filename string, data []byte) {
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		log.Printf("invoice: failed to save scratch copy %s: %v", filename, err)
	}
}

// Sweep removes scratch files older than the configured age and returns
// how many were deleted. The cached logo is swept like everything else and
// refetched on demand.
func (s *Scratch) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
