package physics

import (
	"cmp"
	"slices"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// pairKey is an unordered pair of objects, stored with the lowest id first
type pairKey struct {
	a, b ObjectID
}

func makePairKey(a, b ObjectID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

type CollisionEnterEvent struct {
	ObjectA ObjectID
	ObjectB ObjectID
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	ObjectA ObjectID
	ObjectB ObjectID
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	ObjectA ObjectID
	ObjectB ObjectID
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

type SleepEvent struct {
	Object ObjectID
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Object ObjectID
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

type EventListener func(event Event)

// Events turns the pairs touching after each step into enter, stay and exit events
type Events struct {
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	sleepStates map[ObjectID]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		sleepStates:         make(map[ObjectID]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordPair marks a pair as touching during the current frame, duplicates are fine
func (e *Events) recordPair(a, b ObjectID) {
	e.currentActivePairs[makePairKey(a, b)] = true
}

// forget drops the sleep state of a removed object, its pairs exit on the next flush
func (e *Events) forget(id ObjectID) {
	delete(e.sleepStates, id)
}

func sortedKeys(pairs map[pairKey]bool) []pairKey {
	keys := make([]pairKey, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y pairKey) int {
		if c := cmp.Compare(x.a, y.a); c != 0 {
			return c
		}
		return cmp.Compare(x.b, y.b)
	})
	return keys
}

// processCollisionEvents compares the current and previous pairs.
// The broad phase skips pairs of sleeping bodies: such a pair stays active silently
// until one side wakes up.
func (e *Events) processCollisionEvents(sleeping func(ObjectID) bool) {
	for _, pair := range sortedKeys(e.previousActivePairs) {
		if e.currentActivePairs[pair] {
			continue
		}
		if sleeping(pair.a) && sleeping(pair.b) {
			e.currentActivePairs[pair] = true
			continue
		}
		e.buffer = append(e.buffer, CollisionExitEvent{ObjectA: pair.a, ObjectB: pair.b})
	}

	for _, pair := range sortedKeys(e.currentActivePairs) {
		if !e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, CollisionEnterEvent{ObjectA: pair.a, ObjectB: pair.b})
			continue
		}
		if sleeping(pair.a) && sleeping(pair.b) {
			continue
		}
		e.buffer = append(e.buffer, CollisionStayEvent{ObjectA: pair.a, ObjectB: pair.b})
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(entries []*RigidBodyEntry) {
	for _, entry := range entries {
		id, asleep := entry.ObjectID, entry.Body.IsSleeping

		trackedState, exists := e.sleepStates[id]
		if !exists {
			e.sleepStates[id] = asleep
			continue
		}

		if !trackedState && asleep {
			e.buffer = append(e.buffer, SleepEvent{Object: id})
		} else if trackedState && !asleep {
			e.buffer = append(e.buffer, WakeEvent{Object: id})
		}
		e.sleepStates[id] = asleep
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush(sleeping func(ObjectID) bool) {
	e.processCollisionEvents(sleeping)

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
