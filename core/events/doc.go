// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - RegistrationEvent: a vehicle was registered or replaced
//   - AssignmentEvent: a request was matched and the vehicle left for the pickup
//   - CompletionEvent: the trip finished and the vehicle is available again
//   - UnmatchedEvent: no vehicle was available for a request
package events
