// Package attach stores images uploaded for photo frames behind opaque handles.
package attach

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// DefaultMaxSize is the largest image accepted by a registry created with size 0.
const DefaultMaxSize = 10 << 20

var (
	ErrNotImage = errors.New("data is not an image")
	ErrTooLarge = errors.New("image too large")
	ErrNotFound = errors.New("image not found")
)

// Handle is an opaque image reference. The zero value means no image.
type Handle string

// Image is a stored image.
type Image struct {
	Handle Handle
	MIME   string
	Data   []byte
}

// Registry holds uploaded images in memory.
type Registry struct {
	mu      sync.RWMutex
	maxSize int
	images  map[Handle]Image
}

// NewRegistry creates a registry that rejects images larger than maxSize bytes.
func NewRegistry(maxSize int) *Registry {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Registry{
		maxSize: maxSize,
		images:  make(map[Handle]Image),
	}
}

// Put validates data as an image and stores a private copy under a new handle.
func (r *Registry) Put(data []byte) (Handle, error) {
	if len(data) > r.maxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), r.maxSize)
	}
	if !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("match file type: %w", err)
	}

	img := Image{
		Handle: Handle(uuid.New().String()),
		MIME:   kind.MIME.Value,
		Data:   append([]byte(nil), data...),
	}

	r.mu.Lock()
	r.images[img.Handle] = img
	r.mu.Unlock()
	return img.Handle, nil
}

// Get returns the image stored under h.
func (r *Registry) Get(h Handle) (Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.images[h]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

// Delete removes the image stored under h.
func (r *Registry) Delete(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[h]; !ok {
		return ErrNotFound
	}
	delete(r.images, h)
	return nil
}

// Len returns the number of stored images.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}
