// Package audio streams and decodes internet radio.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
)

const (
	sampleRate      = 44100
	fadeInDuration  = 500 * time.Millisecond
	fadeOutDuration = 250 * time.Millisecond
	fadeSteps       = 20
)

// Player plays one stream at a time.
type Player interface {
	Play(url string) error
	Stop()
	SetVolume(percent int)
}

// AudioPlayer decodes MP3 streams and plays them through oto.
type AudioPlayer struct {
	ctx       *oto.Context
	userAgent string
	logger    *slog.Logger

	playMu sync.Mutex // serializes Play

	mu         sync.Mutex
	player     *oto.Player
	stream     *Stream
	volume     float64
	cancelFade chan struct{}
}

// NewPlayer opens the audio device. percent is the initial volume, 0-100.
func NewPlayer(userAgent string, percent int, logger *slog.Logger) (*AudioPlayer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &AudioPlayer{
		ctx:       ctx,
		userAgent: userAgent,
		logger:    logger,
		volume:    percentToGain(percent),
	}, nil
}

// Play stops whatever is playing and starts url.
func (p *AudioPlayer) Play(url string) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()
	p.Stop()

	stream := NewStream(url, p.userAgent, p.logger)
	if err := stream.Start(context.Background()); err != nil {
		return err
	}

	decoded, err := mp3.DecodeWithSampleRate(sampleRate, stream)
	if err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to decode mp3: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = stream
	p.player = p.ctx.NewPlayer(decoded)
	p.player.SetVolume(0)
	p.player.Play()
	p.cancelFade = make(chan struct{})
	go p.fadeIn(p.player, p.volume, p.cancelFade)

	p.logger.Debug("playback started", "url", url)
	return nil
}

func (p *AudioPlayer) fadeIn(player *oto.Player, target float64, cancel <-chan struct{}) {
	step := fadeInDuration / fadeSteps
	for i := 1; i <= fadeSteps; i++ {
		select {
		case <-cancel:
			return
		case <-time.After(step):
			player.SetVolume(target * float64(i) / fadeSteps)
		}
	}
}

// Stop fades out and releases the current stream. It is a no-op when
// nothing is playing.
func (p *AudioPlayer) Stop() {
	p.mu.Lock()
	player, stream := p.player, p.stream
	if p.cancelFade != nil {
		close(p.cancelFade)
		p.cancelFade = nil
	}
	p.player, p.stream = nil, nil
	p.mu.Unlock()

	if player != nil {
		step := fadeOutDuration / fadeSteps
		start := player.Volume()
		for i := fadeSteps - 1; i >= 0; i-- {
			time.Sleep(step)
			player.SetVolume(start * float64(i) / fadeSteps)
		}
		player.Pause()
	}
	if stream != nil {
		_ = stream.Close()
	}
}

// SetVolume sets the volume as a percentage, clamped to 0-100.
func (p *AudioPlayer) SetVolume(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = percentToGain(percent)
	if p.player != nil {
		if p.cancelFade != nil {
			close(p.cancelFade)
			p.cancelFade = nil
		}
		p.player.SetVolume(p.volume)
	}
}

// Stats returns the buffer state of the current stream.
func (p *AudioPlayer) Stats() (StreamStats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return StreamStats{}, false
	}
	return p.stream.Stats(), true
}

func percentToGain(percent int) float64 {
	return float64(min(max(percent, 0), 100)) / 100
}
