package prot

import "errors"

var (
	// ErrUnknownProtocolMessage is returned when an inbound message cannot be
	// classified. The message is retained for inspection.
	ErrUnknownProtocolMessage = errors.New("unknown protocol message")

	// ErrProtocolViolation is returned when a message of unexpected type
	// arrives to a conversation. The conversation is failed for good.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrStaleConversation is returned when a conversation is advanced but
	// its connection isn't active.
	ErrStaleConversation = errors.New("stale conversation")
)

// IsProtocolError tells if the error is protocol semantic, i.e. it's
// recorded to the conversation and retrying won't help.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrUnknownProtocolMessage) ||
		errors.Is(err, ErrProtocolViolation)
}
