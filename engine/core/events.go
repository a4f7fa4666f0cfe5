package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the host.
	/* Context usage:
	 * width, height := ctx.I32[0], ctx.I32[1]
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// A model finished uploading and is drawable.
	/* Context usage:
	 * name := ctx.Text
	 */
	EVENT_CODE_MODEL_READY SystemEventCode = 0x03

	// Loading or uploading a model failed.
	/* Context usage:
	 * reason := ctx.Text
	 */
	EVENT_CODE_MODEL_FAILED SystemEventCode = 0x04

	// The object was anchored to a plane.
	/* Context usage:
	 * x, y, z := ctx.F32[0], ctx.F32[1], ctx.F32[2]
	 * anchor id := ctx.Text
	 */
	EVENT_CODE_OBJECT_PLACED SystemEventCode = 0x05

	// The placement was cleared.
	EVENT_CODE_OBJECT_CLEARED SystemEventCode = 0x06

	// The engine changed stage.
	/* Context usage:
	 * stage := ctx.U32[0]
	 */
	EVENT_CODE_STAGE_CHANGED SystemEventCode = 0x07

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type EventContext struct {
	I32  [4]int32
	U32  [4]uint32
	F32  [4]float32
	Text string
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

/**
 * @brief Synchronous publish/subscribe keyed by event code. Listeners run on
 * the goroutine that fires the event.
 */
type EventBus struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{registered: make(map[SystemEventCode][]registeredEvent)}
}

/**
 * Register to listen for when events are sent with the provided code. A
 * listener already registered for the code is not registered again.
 * @param code The event code to listen for.
 * @param listener The listener instance, used to identify the registration.
 * @param onEvent The callback to invoke when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (b *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event %d", code)
			return false
		}
	}
	b.registered[code] = append(b.registered[code], registeredEvent{listener: listener, callback: onEvent})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code.
 * @param code The event code to stop listening for.
 * @param listener The listener passed to Register.
 * @returns true if the event is successfully unregistered; otherwise false.
 */
func (b *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @param code The event code to fire.
 * @param sender The sender. Can be nil.
 * @param data The event data.
 * @returns true if handled, otherwise false.
 */
func (b *EventBus) Fire(code SystemEventCode, sender interface{}, data EventContext) bool {
	b.mu.RLock()
	events := b.registered[code]
	b.mu.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, data) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.registered)
	return nil
}
