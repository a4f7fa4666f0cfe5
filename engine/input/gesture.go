package input

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-ar/engine/containers"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
)

type Kind uint8

const (
	KindTap Kind = iota
	KindRotate
	KindScale
	KindTranslate
	KindClear
)

func (k Kind) String() string {
	switch k {
	case KindTap:
		return "tap"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindTranslate:
		return "translate"
	case KindClear:
		return "clear"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Gesture is one user manipulation captured on the input thread. Only the
// fields matching Kind are meaningful.
type Gesture struct {
	Kind Kind
	// Screen position in pixels for taps.
	X, Y float32
	// Rotation delta in degrees.
	Degrees float32
	// Additive scale delta.
	Delta float32
	// Camera-space translation delta.
	Translation math.Vec3
}

func Tap(x, y float32) Gesture {
	return Gesture{Kind: KindTap, X: x, Y: y}
}

func Rotate(degrees float32) Gesture {
	return Gesture{Kind: KindRotate, Degrees: degrees}
}

func Scale(delta float32) Gesture {
	return Gesture{Kind: KindScale, Delta: delta}
}

func Translate(dx, dy, dz float32) Gesture {
	return Gesture{Kind: KindTranslate, Translation: math.NewVec3(dx, dy, dz)}
}

func Clear() Gesture {
	return Gesture{Kind: KindClear}
}

/**
 * @brief Queue hands gestures from any goroutine to the render thread.
 * Producers call Push; the render thread calls Drain once per frame.
 */
type Queue struct {
	mu      sync.Mutex
	ring    *containers.RingQueue[Gesture]
	dropped uint64
}

func NewQueue(size int) (*Queue, error) {
	if size <= 0 {
		err := fmt.Errorf("gesture queue size must be positive, got %d: %w", size, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	return &Queue{ring: containers.NewRingQueue[Gesture](size)}, nil
}

// Push enqueues g. When the queue is full the gesture is dropped and
// core.ErrQueueFull is returned.
func (q *Queue) Push(g Gesture) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ring.Enqueue(g); err != nil {
		q.dropped++
		return err
	}
	return nil
}

// Drain removes every queued gesture and calls apply on each in arrival
// order. apply runs without the lock held, so it may Push.
func (q *Queue) Drain(apply func(Gesture)) int {
	q.mu.Lock()
	pending := make([]Gesture, 0, q.ring.Len())
	for !q.ring.IsEmpty() {
		g, _ := q.ring.Dequeue()
		pending = append(pending, g)
	}
	q.mu.Unlock()

	for _, g := range pending {
		apply(g)
	}
	return len(pending)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len()
}

// Dropped returns how many gestures were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
