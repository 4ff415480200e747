package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// builtinChime is the cache key of the synthesised chime.
const builtinChime = ""

// chimeFormat is the format the built-in chime is rendered in.
var chimeFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// Player handles audio playback.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Whether speaker has been initialized
	initialized bool

	// Sample rate for the speaker
	sampleRate beep.SampleRate

	// Decoded sounds by path; builtinChime holds the synthesised chime.
	cache      map[string]*beep.Buffer
	cacheMutex sync.RWMutex
}

// NewPlayer creates a new audio player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:     logger,
		volume:     1.0,
		sampleRate: chimeFormat.SampleRate,
		cache:      make(map[string]*beep.Buffer),
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = min(max(volume, 0), 1)
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play plays a sound file, or the built-in chime when path is empty.
// Supports WAV, OGG, and MP3 formats.
func (p *Player) Play(path string) error {
	buffer, err := p.buffer(path)
	if err != nil {
		p.logger.Warn("failed to load sound", "path", path, "error", err)
		return err
	}
	return p.playBuffer(buffer)
}

// Preload loads a sound into the cache for faster playback.
func (p *Player) Preload(path string) error {
	_, err := p.buffer(path)
	return err
}

// buffer returns the cached sound for path, loading it on first use.
func (p *Player) buffer(path string) (*beep.Buffer, error) {
	p.cacheMutex.RLock()
	cached, ok := p.cache[path]
	p.cacheMutex.RUnlock()
	if ok {
		return cached, nil
	}

	var buffer *beep.Buffer
	var err error
	if path == builtinChime {
		buffer, err = synthChime()
	} else {
		buffer, err = loadSound(path)
	}
	if err != nil {
		return nil, err
	}

	p.cacheMutex.Lock()
	p.cache[path] = buffer
	p.cacheMutex.Unlock()
	return buffer, nil
}

// loadSound loads and decodes a sound file into a buffer.
func loadSound(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// synthChime renders a short rising two-tone chime.
func synthChime() (*beep.Buffer, error) {
	sr := chimeFormat.SampleRate
	low, err := generators.SineTone(sr, 880)
	if err != nil {
		return nil, fmt.Errorf("chime tone: %w", err)
	}
	high, err := generators.SineTone(sr, 1320)
	if err != nil {
		return nil, fmt.Errorf("chime tone: %w", err)
	}

	quiet := func(s beep.Streamer) beep.Streamer {
		return &effects.Volume{Streamer: s, Base: 2, Volume: -2.5}
	}

	buffer := beep.NewBuffer(chimeFormat)
	buffer.Append(beep.Seq(
		quiet(beep.Take(sr.N(90*time.Millisecond), low)),
		quiet(beep.Take(sr.N(140*time.Millisecond), high)),
	))
	return buffer, nil
}

// ensureInitialized initializes the speaker if not already done.
func (p *Player) ensureInitialized() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// Use a reasonable buffer size for low latency
	bufferSize := p.sampleRate.N(100 * time.Millisecond)
	if err := speaker.Init(p.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", p.sampleRate)
	return nil
}

// playBuffer plays a buffered sound.
func (p *Player) playBuffer(buffer *beep.Buffer) error {
	if err := p.ensureInitialized(); err != nil {
		return err
	}

	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	// Resample if necessary
	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	// Apply volume
	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeToExponent(volume),
			Silent:   volume == 0,
		}
	}

	speaker.Play(streamer)
	return nil
}

// InvalidateCache removes a specific path from the cache.
func (p *Player) InvalidateCache(path string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	delete(p.cache, path)
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*beep.Buffer)
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.mu.Lock()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	p.mu.Unlock()

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// volumeToExponent converts a linear volume (0-1) to the base-2 exponent
// effects.Volume expects: 0.5 is -1, 0.25 is -2.
func volumeToExponent(volume float64) float64 {
	if volume <= 0 {
		return -16 // Effectively silent
	}
	return math.Log2(volume)
}
