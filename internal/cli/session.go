package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	voyago "github.com/voyago/voyago"
)

// ListConversations prints the known conversation IDs, one per line.
func ListConversations(ctx context.Context, engine *voyago.Engine) error {
	ids, err := engine.List(ctx)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("No saved conversations.")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// InspectConversation dumps a conversation's state as indented JSON.
func InspectConversation(ctx context.Context, engine *voyago.Engine, id string) error {
	state, err := engine.State(ctx, id)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", id, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// RemoveConversation deletes a conversation and its backups.
func RemoveConversation(ctx context.Context, engine *voyago.Engine, id string) error {
	if err := engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
