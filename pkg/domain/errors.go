package domain

import "errors"

// ErrConversationNotFound is returned when a conversation ID cannot be
// found in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrLockedSlotConflict is returned when a write targets a locked slot
// outside the explicit-change path.
var ErrLockedSlotConflict = errors.New("slot is locked")

// ErrSlotNotFilled is returned when locking a slot that has no value.
var ErrSlotNotFilled = errors.New("slot is not filled")

// ErrUnknownSlot is returned when an operation names a slot that does not
// exist in the conversation.
var ErrUnknownSlot = errors.New("unknown slot")

// ErrNotReady is returned when a search is triggered before every
// required slot is locked.
var ErrNotReady = errors.New("conversation is not ready for search")

// ErrUnknownSignal is returned for a system signal outside the reserved
// control-message set.
var ErrUnknownSignal = errors.New("unknown system signal")
