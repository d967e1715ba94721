// Package notifications delivers pipeline events to external listeners.
//
// Two transports are available: a JSON webhook that receives the recipe
// creation trigger plus pipeline milestones, and an ntfy topic that receives
// short human-readable messages. NewService wires whichever are configured and
// degrades to a no-op when neither is set.
package notifications
