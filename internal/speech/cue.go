package speech

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/rbright/intervu/internal/audio"
)

type CueKind int

const (
	CueRecordStart CueKind = iota + 1
	CueRecordStop
)

const cueSampleRate = audio.SampleRate

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

var (
	recordStartPCM = synthesizeCue([]toneSpec{
		{frequencyHz: 880, duration: 70 * time.Millisecond, volume: 0.18},
		{frequencyHz: 1175, duration: 70 * time.Millisecond, volume: 0.18},
	})
	recordStopPCM = synthesizeCue([]toneSpec{
		{frequencyHz: 620, duration: 120 * time.Millisecond, volume: 0.18},
	})
)

// CuePlayer plays short synthesized tones around recording.
type CuePlayer struct {
	Enabled bool
	Logger  *slog.Logger

	play func(ctx context.Context, samples []int16, sampleRate int, mediaName string) error
}

// NewCuePlayer returns a player backed by the default pulse sink.
func NewCuePlayer(enabled bool, logger *slog.Logger) *CuePlayer {
	return &CuePlayer{Enabled: enabled, Logger: logger, play: audio.PlayPCM}
}

func (p *CuePlayer) RecordStart(ctx context.Context) { p.emit(ctx, CueRecordStart) }

func (p *CuePlayer) RecordStop(ctx context.Context) { p.emit(ctx, CueRecordStop) }

func (p *CuePlayer) emit(ctx context.Context, kind CueKind) {
	if p == nil || !p.Enabled {
		return
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return
	}
	play := p.play
	if play == nil {
		play = audio.PlayPCM
	}
	if err := play(ctx, samples, cueSampleRate, "intervu cue"); err != nil && p.Logger != nil {
		p.Logger.Debug("cue playback failed", "cue", int(kind), "error", err.Error())
	}
}

func cueSamples(kind CueKind) []int16 {
	switch kind {
	case CueRecordStart:
		return recordStartPCM
	case CueRecordStop:
		return recordStopPCM
	default:
		return nil
	}
}

func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}
	gapSamples := samplesForDuration(22 * time.Millisecond)
	total := 0
	for i, part := range parts {
		total += samplesForDuration(part.duration)
		if i < len(parts)-1 {
			total += gapSamples
		}
	}

	pcm := make([]int16, 0, total)
	for i, part := range parts {
		pcm = append(pcm, synthesizeTone(part)...)
		if i < len(parts)-1 && gapSamples > 0 {
			pcm = append(pcm, make([]int16, gapSamples)...)
		}
	}
	return pcm
}

func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200) // at most 5ms
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range n {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		sample := math.Sin(2 * math.Pi * spec.frequencyHz * t)
		pcm[i] = int16(math.Round(sample * spec.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
