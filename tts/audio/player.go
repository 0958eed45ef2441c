// Package audio provides local playback of composed buffers.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/voxify/tts"
	"github.com/dgnsrekt/voxify/tts/compose"
)

// Player plays mono PCM buffers through the system audio device. The oto
// context is created once per sample rate and reused; creating contexts
// repeatedly leaks platform resources.
type Player struct {
	mu         sync.Mutex
	context    *oto.Context
	sampleRate int
}

// NewPlayer creates an idle player. The audio device is opened lazily on
// the first Play call.
func NewPlayer() *Player {
	return &Player{}
}

// Play blocks until the buffer finishes or ctx is canceled.
func (p *Player) Play(ctx context.Context, buf *tts.Buffer) error {
	if buf == nil || len(buf.Samples) == 0 {
		return tts.ErrNoContent
	}

	ctxOto, err := p.contextFor(buf.SampleRate)
	if err != nil {
		return err
	}

	data := compose.Float32ToBytes(buf.Samples)
	player := ctxOto.NewPlayer(bytes.NewReader(data))
	player.Play()
	defer player.Close()

	// Poll rather than sleep for the full duration so cancellation stays
	// responsive.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (p *Player) contextFor(sampleRate int) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.context != nil && p.sampleRate == sampleRate {
		return p.context, nil
	}
	if p.context != nil {
		// oto contexts cannot change sample rate after creation.
		return nil, fmt.Errorf("audio device already open at %dHz, cannot reopen at %dHz",
			p.sampleRate, sampleRate)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	p.context = ctx
	p.sampleRate = sampleRate
	return ctx, nil
}
