package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Profiler tracks bake throughput and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval. It is safe for concurrent use
// so every bake worker can report into the same instance.
type Profiler struct {
	mu             sync.Mutex
	logger         zerolog.Logger
	frameCount     int
	trackCount     int
	totalFrames    int
	totalTracks    int
	started        time.Time
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler writing to logger.
// A non-positive interval defaults to 1 second.
//
// Parameters:
//   - logger: the destination logger
//   - interval: the minimum time between two stat lines
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger zerolog.Logger, interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	now := time.Now()
	return &Profiler{
		logger:         logger.With().Str("component", "profiler").Logger(),
		started:        now,
		lastTime:       now,
		updateInterval: interval,
	}
}

// Tick should be called once per baked track with the number of frames it sampled.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: frames and tracks per second, heap usage, allocation rate, GC count/pause times.
//
// Parameters:
//   - frames: the number of frames baked since the previous tick
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(frames int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount += frames
	p.trackCount++
	p.totalFrames += frames
	p.totalTracks++

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	secs := max(elapsed.Seconds(), 1e-9)
	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / secs

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info().
		Float64("frames_per_sec", float64(p.frameCount)/secs).
		Float64("tracks_per_sec", float64(p.trackCount)/secs).
		Float64("heap_mb", allocMB).
		Float64("alloc_rate_mb", allocRateMB).
		Uint32("gc", gcCount).
		Uint64("gc_last_us", lastPauseUs).
		Uint64("gc_max_us", maxPauseUs).
		Msg("bake throughput")

	p.frameCount = 0
	p.trackCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Summary logs the totals since the profiler was created.
//
// Returns:
//   - int: the total number of frames reported
//   - int: the total number of tracks reported
func (p *Profiler) Summary() (frames, tracks int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info().
		Int("frames", p.totalFrames).
		Int("tracks", p.totalTracks).
		Dur("elapsed", time.Since(p.started)).
		Msg("bake finished")
	return p.totalFrames, p.totalTracks
}
