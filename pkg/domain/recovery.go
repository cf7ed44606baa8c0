package domain

import "time"

// RecoveryPoint is a coarse classification of how far a conversation has
// progressed, derived purely from locked slots and received system
// messages. The calling layer uses it to greet a returning user without
// re-deriving the whole state machine.
type RecoveryPoint string

const (
	RecoveryInitial       RecoveryPoint = "initial"
	RecoveryGatheringInfo RecoveryPoint = "gathering_info"
	RecoveryReady         RecoveryPoint = "ready_to_generate"
	RecoveryCompleted     RecoveryPoint = "itinerary_completed"
)

// RecoveryPointOf classifies a state. It is a pure function of the locked
// slot set and the system events, so it is stable across snapshots.
func RecoveryPointOf(s *State, required []SlotName) RecoveryPoint {
	if s == nil {
		return RecoveryInitial
	}
	if s.HasSystemEvent(SystemItineraryGenerated) {
		return RecoveryCompleted
	}
	allLocked := len(required) > 0
	for _, name := range required {
		sl := s.Slot(name)
		if sl == nil || !sl.Locked {
			allLocked = false
			break
		}
	}
	if allLocked {
		return RecoveryReady
	}
	if len(s.LockedSlots()) > 0 {
		return RecoveryGatheringInfo
	}
	return RecoveryInitial
}

// RecoveryInfo describes how a conversation was brought back at session
// start.
type RecoveryInfo struct {
	Recovered      bool          `json:"isRecovered"`
	MissedDuration time.Duration `json:"missedDuration"`
	RecoveryPoint  RecoveryPoint `json:"recoveryPoint"`
	LastAction     string        `json:"lastAction"`
}

// LastAction values reported in RecoveryInfo.
const (
	RecoveryActionNone           = "none"
	RecoveryActionResumed        = "resumed"
	RecoveryActionRestoredBackup = "restored_backup"
	RecoveryActionFailed         = "recovery_failed"
)
