package assets

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubProducer stands in for the real generation backend: it waits a fixed
// delay and returns URLs derived from the scene, the way the prototype
// service faked results while the pipeline was being built.
type StubProducer struct {
	Delay   time.Duration
	BaseURL string
}

// Produce returns canned media for the scene after Delay, honoring
// cancellation.
func (p *StubProducer) Produce(ctx context.Context, req Request) (Result, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	base := strings.TrimSuffix(p.BaseURL, "/")
	if base == "" {
		base = "https://assets.invalid"
	}
	slug := slugify(req.Title)
	return Result{
		Script:       fmt.Sprintf("Generated script for %q.", req.Title),
		Filename:     slug + "_generated.mp4",
		ThumbnailURL: fmt.Sprintf("%s/thumbs/%s.jpg", base, req.NodeID),
		VideoURL:     fmt.Sprintf("%s/videos/%s.mp4", base, req.NodeID),
	}, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "scene"
	}
	return b.String()
}
