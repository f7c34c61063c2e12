package attachment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"moviecatalog/proj/internal/domain/models"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotAnImage = errors.New("selected file is not an image")
	ErrEmptyFile  = errors.New("selected file is empty")
	ErrTooLarge   = errors.New("selected file is too large")
	ErrClosed     = errors.New("attachment manager is closed")
)

// PreviewHandle is a revocable local copy of the selected image that the UI
// can display before upload.
type PreviewHandle struct {
	ID          string
	Path        string
	ContentType string

	once      sync.Once
	err       error
	onRelease func()
}

// Release removes the preview file. Safe to call more than once.
func (h *PreviewHandle) Release() error {
	h.once.Do(func() {
		if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.err = err
		}
		if h.onRelease != nil {
			h.onRelease()
		}
	})
	return h.err
}

// Manager owns the image selected for one draft. At most one preview handle
// is live at any time.
type Manager struct {
	log      *slog.Logger
	dir      string
	maxBytes int64

	mu      sync.Mutex
	file    *models.Attachment
	preview *PreviewHandle
	closed  bool

	live atomic.Int64
}

func New(log *slog.Logger, dir string, maxBytes int64) *Manager {
	return &Manager{
		log:      log,
		dir:      dir,
		maxBytes: maxBytes,
	}
}

// Select reads the file, checks that it is an image and replaces the current
// selection. The previous preview is released only after the new one exists,
// so a failed selection leaves the old one in place.
func (m *Manager) Select(filename string, r io.Reader) (*PreviewHandle, error) {
	const op = "attachment.Manager.Select"
	log := m.log.With("op", op, "filename", filename)

	data, err := m.read(r)
	if err != nil {
		return nil, err
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		log.Info("rejected non-image file", "mime", mtype.String())
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mtype.String())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	handle, err := m.newPreview(data, mtype)
	if err != nil {
		log.Error("Error creating preview", "errMsg", err.Error())
		return nil, err
	}
	if err := m.releaseLocked(); err != nil {
		log.Warn("failed to release previous preview", "errMsg", err.Error())
	}
	m.file = &models.Attachment{
		Filename:    filepath.Base(filename),
		ContentType: mtype.String(),
		Data:        data,
	}
	m.preview = handle
	log.Debug("preview created", "preview_id", handle.ID, "size", len(data))
	return handle, nil
}

func (m *Manager) read(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	src := r
	if m.maxBytes > 0 {
		src = io.LimitReader(r, m.maxBytes+1)
	}
	if _, err := io.Copy(&buf, src); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyFile
	}
	if m.maxBytes > 0 && int64(buf.Len()) > m.maxBytes {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

func (m *Manager) newPreview(data []byte, mtype *mimetype.MIME) (*PreviewHandle, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	path := filepath.Join(m.dir, id+mtype.Extension())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	m.live.Add(1)
	return &PreviewHandle{
		ID:          id,
		Path:        path,
		ContentType: mtype.String(),
		onRelease:   m.handleReleased,
	}, nil
}

func (m *Manager) handleReleased() {
	m.live.Add(-1)
}

func (m *Manager) releaseLocked() error {
	var err error
	if m.preview != nil {
		err = m.preview.Release()
	}
	m.file = nil
	m.preview = nil
	return err
}

// Clear drops both the file and its preview.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked()
}

// Close releases everything and refuses further selections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.releaseLocked()
}

func (m *Manager) File() (*models.Attachment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file, m.file != nil
}

func (m *Manager) Preview() (*PreviewHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview, m.preview != nil
}

// Live is the number of preview files this manager has not released yet.
func (m *Manager) Live() int {
	return int(m.live.Load())
}
