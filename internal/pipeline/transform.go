package pipeline

import (
	"fmt"

	"github.com/smazurov/framepipe/internal/frame"
	"github.com/smazurov/framepipe/internal/imaging"
)

// transformer processes one frame to the requested resolution. The strategy
// is selected once at startup (CPU, or GPU when the probe finds a device);
// the safety monitor can demote GPU to CPU at runtime.
type transformer interface {
	transform(src *frame.Frame, res Resolution, level int) (*frame.Frame, error)
	name() string
}

// cpuTransformer resizes through the imaging collaborator.
type cpuTransformer struct {
	img  imaging.Processor
	pool *frame.Pool
}

func (t *cpuTransformer) name() string { return "cpu/" + t.img.Name() }

func (t *cpuTransformer) transform(src *frame.Frame, res Resolution, level int) (*frame.Frame, error) {
	out, err := t.pool.Get(res.Width, res.Height, src.Channels)
	if err != nil {
		return nil, fmt.Errorf("allocate output frame: %w", err)
	}

	srcView := imaging.View{Data: src.Data, Width: src.Width, Height: src.Height, Channels: src.Channels}
	dstView := imaging.View{Data: out.Data, Width: out.Width, Height: out.Height, Channels: out.Channels}

	if err := t.img.Resize(srcView, dstView, imaging.InterpArea); err != nil {
		t.pool.Put(out)
		return nil, fmt.Errorf("resize: %w", err)
	}

	// Light smoothing pass at the two highest quality levels.
	if level >= smoothingLevel {
		if err := t.img.GaussianBlur(dstView, 0.5); err != nil {
			t.pool.Put(out)
			return nil, fmt.Errorf("smooth: %w", err)
		}
	}

	out.Timestamp = src.Timestamp
	out.ID = src.ID
	out.ScaleLevel = level
	out.QualityScore = qualityScore(level)
	return out, nil
}

// gpuTransformer is the capability-checked GPU strategy. GPU kernels are not
// wired yet, so it currently runs the CPU path; frames keep GPUProcessed
// false until they actually touch the device.
type gpuTransformer struct {
	cpu *cpuTransformer
}

func (t *gpuTransformer) name() string { return "gpu" }

func (t *gpuTransformer) transform(src *frame.Frame, res Resolution, level int) (*frame.Frame, error) {
	return t.cpu.transform(src, res, level)
}
