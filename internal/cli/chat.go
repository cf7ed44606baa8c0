package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	voyago "github.com/voyago/voyago"
	"github.com/voyago/voyago/internal/presentation/tui"
	"github.com/voyago/voyago/pkg/domain"
)

// ChatOptions configures the interactive chat session.
type ChatOptions struct {
	ConversationID string
	Plain          bool // disable markdown rendering and the banner
}

// RunChat drives the interactive REPL: resume (with a recovery greeting
// when a snapshot exists), then read-process-print until EOF or an exit
// command. Every message gets a fresh UUID turn token.
func RunChat(ctx context.Context, engine *voyago.Engine, opts ChatOptions) error {
	if opts.ConversationID == "" {
		opts.ConversationID = uuid.NewString()
	}

	render := func(s string) string { return s }
	if !opts.Plain {
		tui.PrintBanner()
		r := tui.NewRenderer()
		render = func(s string) string {
			out, err := r(s)
			if err != nil {
				return s
			}
			return strings.TrimRight(out, "\n") + "\n"
		}
	}

	state, info, err := engine.Resume(ctx, opts.ConversationID)
	if err != nil {
		return fmt.Errorf("resume conversation: %w", err)
	}
	printGreeting(engine, state, info, render)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Println("Your trip is saved. See you next time!")
			return nil
		}

		result, err := engine.ProcessTurn(ctx, opts.ConversationID, uuid.NewString(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Print(render(result.Response))

		if result.ReadyForSearch {
			if strings.Contains(strings.ToLower(line), "plan it") {
				if err := engine.TriggerSearch(ctx, opts.ConversationID); err == nil {
					fmt.Print(render("Searching for itineraries..."))
				}
			}
		}
	}
}

// printGreeting welcomes the user, summarizing recovered progress when
// the conversation was resumed from a snapshot.
func printGreeting(engine *voyago.Engine, state *domain.State, info domain.RecoveryInfo, render func(string) string) {
	if !info.Recovered {
		fmt.Print(render("Hi! I'm your trip planner. Where would you like to go?"))
		return
	}

	var b strings.Builder
	b.WriteString("Welcome back! ")
	if info.MissedDuration > time.Minute {
		b.WriteString(fmt.Sprintf("It's been %s since we last talked. ", info.MissedDuration.Round(time.Minute)))
	}
	switch info.RecoveryPoint {
	case domain.RecoveryCompleted:
		b.WriteString("Your itinerary is ready — ask me anything about it.")
	case domain.RecoveryReady:
		b.WriteString("Your trip details are all confirmed. Say \"plan it\" when you're ready.")
	case domain.RecoveryGatheringInfo:
		locked := state.LockedSlots()
		names := make([]string, len(locked))
		for i, n := range locked {
			names[i] = string(n)
		}
		b.WriteString(fmt.Sprintf("So far I have your %s. Let's keep going.", strings.Join(names, ", ")))
	default:
		b.WriteString("Let's plan your trip. Where would you like to go?")
	}
	fmt.Print(render(b.String()))
}
