package editor

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"storyblocks/internal/domain"
)

// Ingestor turns a local file into a data URL. Validation of format or size
// is the implementation's (host's) business.
type Ingestor interface {
	Ingest(ctx context.Context, path string) (string, error)
}

var ErrNoIngestor = errors.New("editor: no image ingestor configured")

// AttachImage reads path asynchronously and, only once the read succeeds,
// fills the image element id with the payload. A failed read leaves the
// element untouched. Edits to other elements made while the read is pending
// are kept, because completion patches the live buffer by id.
//
// The returned channel yields the outcome once and is then closed.
func (s *Session) AttachImage(ctx context.Context, id, path string) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	err := s.checkImageTargetLocked(id)
	if err == nil {
		s.reads.Add(1)
	}
	s.mu.Unlock()
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		defer s.reads.Done()
		defer close(done)

		url, err := s.opts.Ingestor.Ingest(ctx, path)
		if err != nil {
			s.log.Warn("image read failed", zap.String("element", id), zap.String("path", path), zap.Error(err))
			done <- err
			return
		}
		alt := filepath.Base(path)
		if err := s.Dispatch(SetImage{ID: id, URL: url, Alt: alt}); err != nil {
			s.log.Info("image read finished for a removed element", zap.String("element", id), zap.Error(err))
			done <- err
			return
		}
		done <- nil
	}()
	return done
}

func (s *Session) checkImageTargetLocked(id string) error {
	if s.closing || s.closed {
		return ErrClosed
	}
	if s.opts.Ingestor == nil {
		return ErrNoIngestor
	}
	i := s.indexLocked(id)
	if i < 0 {
		return ErrUnknownElement
	}
	if s.elements[i].Type != domain.ElementImage {
		return ErrNotImage
	}
	return nil
}
