/*
Package testbed replays scripted gestures against the engine so the viewer
can be exercised without a touch screen.
*/
package testbed

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/input"
)

// Step is one scripted gesture. Example:
//
//	[[gesture]]
//	frame = 10
//	kind = "tap"
//	x = 540.0
//	y = 960.0
type Step struct {
	// Frame number after which the gesture is sent.
	Frame       uint64     `toml:"frame"`
	Kind        string     `toml:"kind"`
	X           float32    `toml:"x"`
	Y           float32    `toml:"y"`
	Degrees     float32    `toml:"degrees"`
	Delta       float32    `toml:"delta"`
	Translation [3]float32 `toml:"translation"`

	kind input.Kind
}

type Script struct {
	Steps []Step `toml:"gesture"`
}

func parseKind(s string) (input.Kind, error) {
	for _, k := range []input.Kind{input.KindTap, input.KindRotate, input.KindScale, input.KindTranslate, input.KindClear} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture kind %q: %w", s, core.ErrInvalidConfig)
}

// ParseScript decodes a script and orders its steps by frame. Steps sharing
// a frame keep their order in the document.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := toml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	for i := range script.Steps {
		kind, err := parseKind(script.Steps[i].Kind)
		if err != nil {
			return nil, fmt.Errorf("gesture %d: %w", i, err)
		}
		script.Steps[i].kind = kind
	}
	slices.SortStableFunc(script.Steps, func(a, b Step) int {
		switch {
		case a.Frame < b.Frame:
			return -1
		case a.Frame > b.Frame:
			return 1
		}
		return 0
	})
	return &script, nil
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

type Player struct {
	script *Script
	next   int
}

func NewPlayer(script *Script) *Player {
	if script == nil {
		script = &Script{}
	}
	return &Player{script: script}
}

/**
 * @brief Sends every step scheduled at or before frame to the sink.
 *
 * @param frame The number of frames drawn so far.
 * @param sink Where gestures go, usually the engine.
 * @return The number of steps sent.
 */
func (p *Player) Advance(frame uint64, sink input.GestureSink) int {
	sent := 0
	for p.next < len(p.script.Steps) && p.script.Steps[p.next].Frame <= frame {
		step := p.script.Steps[p.next]
		p.next++
		if err := send(step, sink); err != nil {
			core.LogWarn("scripted %s at frame %d not queued: %s", step.Kind, step.Frame, err)
			continue
		}
		sent++
	}
	return sent
}

func (p *Player) Done() bool {
	return p.next >= len(p.script.Steps)
}

func send(step Step, sink input.GestureSink) error {
	switch step.kind {
	case input.KindTap:
		return sink.OnTouch(step.X, step.Y)
	case input.KindRotate:
		return sink.OnRotate(step.Degrees)
	case input.KindScale:
		return sink.OnScale(step.Delta)
	case input.KindTranslate:
		return sink.OnTranslate(step.Translation[0], step.Translation[1], step.Translation[2])
	default:
		return sink.OnClear()
	}
}
