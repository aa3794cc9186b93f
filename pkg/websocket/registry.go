package websocket

import (
	"encoding/json"
	"reflect"
)

// DataHandler receives the inner data payload of a channel message. Handlers
// are invoked in registration order and never concurrently for a single
// message; a panicking handler is isolated and does not affect the others.
type DataHandler func(data json.RawMessage)

// registry is the single source of truth for desired subscription state: the
// set of parameters per channel and the handlers that want its data. It is
// what gets replayed to the server after every reconnect, so it must survive
// connection churn untouched.
//
// Not safe for concurrent use; the client guards it with its own mutex.
type registry struct {
	// channel -> parameters, insertion-ordered and unique
	params map[string][]string
	// channel -> handlers, registration-ordered, deduplicated by identity
	handlers map[string][]DataHandler
}

func newRegistry() *registry {
	return &registry{
		params:   make(map[string][]string),
		handlers: make(map[string][]DataHandler),
	}
}

// handlerID identifies a handler by the code pointer of its function value,
// mirroring reference-equality deduplication.
func handlerID(h DataHandler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// addHandler appends h to the channel's handler list unless an identical
// handler is already registered. Reports whether the handler was added.
func (r *registry) addHandler(channel string, h DataHandler) bool {
	id := handlerID(h)
	for _, existing := range r.handlers[channel] {
		if handlerID(existing) == id {
			return false
		}
	}
	r.handlers[channel] = append(r.handlers[channel], h)
	return true
}

// removeHandler removes the specific handler from the channel, if present.
func (r *registry) removeHandler(channel string, h DataHandler) bool {
	id := handlerID(h)
	list := r.handlers[channel]
	for i, existing := range list {
		if handlerID(existing) == id {
			r.handlers[channel] = append(list[:i], list[i+1:]...)
			if len(r.handlers[channel]) == 0 {
				delete(r.handlers, channel)
			}
			return true
		}
	}
	return false
}

// clearHandlers drops every handler for the channel.
func (r *registry) clearHandlers(channel string) {
	delete(r.handlers, channel)
}

// handlersFor returns a copy of the channel's handler list so dispatch can
// run without holding the client lock.
func (r *registry) handlersFor(channel string) []DataHandler {
	list := r.handlers[channel]
	if len(list) == 0 {
		return nil
	}
	out := make([]DataHandler, len(list))
	copy(out, list)
	return out
}

// addParams records the given params for the channel and returns the subset
// that was not already registered. Only that delta should go on the wire:
// re-subscribing to an existing parameter is a registry no-op.
func (r *registry) addParams(channel string, params []string) []string {
	existing := r.params[channel]
	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[p] = struct{}{}
	}

	var delta []string
	for _, p := range params {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		existing = append(existing, p)
		delta = append(delta, p)
	}
	r.params[channel] = existing
	return delta
}

// removeParams removes the intersection of params with the channel's
// registered set. It returns the removed subset and how many parameters
// remain; known reports whether the channel was registered at all. A channel
// left with no parameters is deleted from the registry.
func (r *registry) removeParams(channel string, params []string) (removed []string, remaining int, known bool) {
	existing, known := r.params[channel]
	if !known {
		return nil, 0, false
	}

	drop := make(map[string]struct{}, len(params))
	for _, p := range params {
		drop[p] = struct{}{}
	}

	kept := existing[:0]
	for _, p := range existing {
		if _, ok := drop[p]; ok {
			removed = append(removed, p)
		} else {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		delete(r.params, channel)
	} else {
		r.params[channel] = kept
	}
	return removed, len(kept), true
}

// paramsFor returns a copy of the channel's registered parameters.
func (r *registry) paramsFor(channel string) []string {
	list := r.params[channel]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// replayFrames builds one subscribe frame per channel bundling all of its
// current parameters. Sent after every successful auth handshake so the
// server-side subscription state exactly reproduces the registry.
func (r *registry) replayFrames() []opMessage {
	frames := make([]opMessage, 0, len(r.params))
	for channel, params := range r.params {
		if len(params) == 0 {
			continue
		}
		frames = append(frames, newSubscribeMessage(channelArgs(channel, params)))
	}
	return frames
}
