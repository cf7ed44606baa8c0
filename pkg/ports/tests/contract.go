package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voyago/voyago/pkg/domain"
	"github.com/voyago/voyago/pkg/ports"
)

// RunConversationStoreContract is a reusable suite that verifies an
// adapter complies with ports.ConversationStore semantics.
func RunConversationStoreContract(t *testing.T, store ports.ConversationStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "does-not-exist")
		if !errors.Is(err, domain.ErrConversationNotFound) {
			t.Fatalf("expected ErrConversationNotFound, got %v", err)
		}
	})

	t.Run("Save_Load_RoundTrip", func(t *testing.T) {
		state := domain.NewState("contract-rt", domain.DefaultSlotOrder())
		state.AppendMessage(domain.RoleUser, "Paris for 7 days", time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
		dest := state.Slot(domain.SlotDestination)
		dest.Value = domain.TextValue("Paris")
		dest.Filled = true
		state.PendingConfirmation = domain.SlotDestination
		state.ProcessedTurns["tok-1"] = "Paris. Is that correct?"

		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := store.Load(ctx, state.ID)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.ID != state.ID {
			t.Errorf("id mismatch: got %q want %q", got.ID, state.ID)
		}
		if len(got.Messages) != 1 || got.Messages[0].Content != "Paris for 7 days" {
			t.Errorf("message history not preserved: %+v", got.Messages)
		}
		sl := got.Slot(domain.SlotDestination)
		if sl == nil || !sl.Filled || sl.Value.Text != "Paris" {
			t.Errorf("slot not preserved: %+v", sl)
		}
		if got.PendingConfirmation != domain.SlotDestination {
			t.Errorf("pending confirmation not preserved: %q", got.PendingConfirmation)
		}
		if got.ProcessedTurns["tok-1"] != "Paris. Is that correct?" {
			t.Errorf("idempotency ledger not preserved: %+v", got.ProcessedTurns)
		}
	})

	t.Run("Save_Overwrites", func(t *testing.T) {
		state := domain.NewState("contract-ow", domain.DefaultSlotOrder())
		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		state.Phase = domain.PhaseReadyForSearch
		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("second save failed: %v", err)
		}
		got, err := store.Load(ctx, state.ID)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Phase != domain.PhaseReadyForSearch {
			t.Errorf("overwrite lost: phase %q", got.Phase)
		}
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewState("contract-iso", domain.DefaultSlotOrder())
		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := store.Load(ctx, state.ID)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		// Mutating the loaded copy must not leak back into the store.
		got.Slot(domain.SlotDestination).Filled = true
		again, err := store.Load(ctx, state.ID)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if again.Slot(domain.SlotDestination).Filled {
			t.Error("loaded state is not isolated from the store")
		}
	})

	t.Run("List_Contains_Saved", func(t *testing.T) {
		state := domain.NewState("contract-list", domain.DefaultSlotOrder())
		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		found := false
		for _, id := range ids {
			if id == state.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("saved conversation missing from list: %v", ids)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		state := domain.NewState("contract-del", domain.DefaultSlotOrder())
		if err := store.Save(ctx, state.ID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := store.Delete(ctx, state.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		_, err := store.Load(ctx, state.ID)
		if !errors.Is(err, domain.ErrConversationNotFound) {
			t.Errorf("expected ErrConversationNotFound after delete, got %v", err)
		}
		// Deleting again is a no-op, not an error.
		if err := store.Delete(ctx, state.ID); err != nil {
			t.Errorf("second delete errored: %v", err)
		}
	})
}
