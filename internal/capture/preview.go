package capture

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Preview holds the most recent camera frame as JPEG for the preview
// stream. Readers never touch the camera themselves.
type Preview struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	changed chan struct{}
}

// NewPreview returns an empty preview.
func NewPreview() *Preview {
	return &Preview{changed: make(chan struct{})}
}

// Publish encodes frame and wakes waiting readers.
func (p *Preview) Publish(frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()
	p.PublishJPEG(buf.GetBytes())
	return nil
}

// PublishJPEG stores an already encoded frame.
func (p *Preview) PublishJPEG(data []byte) {
	p.mu.Lock()
	p.jpeg = append(p.jpeg[:0:0], data...)
	p.seq++
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the current frame and its sequence number. Seq 0 means
// nothing was published yet.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq
}

// Next blocks until a frame newer than after is published or ctx ends.
func (p *Preview) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		p.mu.Lock()
		if p.seq > after {
			data, seq := p.jpeg, p.seq
			p.mu.Unlock()
			return data, seq, nil
		}
		ch := p.changed
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, after, ctx.Err()
		}
	}
}
