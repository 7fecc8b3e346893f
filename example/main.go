package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aigehq/storyflow"
	"github.com/aigehq/storyflow/playback"
	"github.com/aigehq/storyflow/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store storyflow.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Author a small branching story ────────────────────────────────
	flow := &storyflow.Flow{ID: "demo-ad", Title: "Chocolate Week", NextSeq: 1}

	flow, openingID, err := storyflow.AddNode(flow, storyflow.KindScene, 250, 50)
	if err != nil {
		log.Fatalf("add opening: %v", err)
	}
	flow, choiceID, err := storyflow.AddNode(flow, storyflow.KindChoice, 250, 200)
	if err != nil {
		log.Fatalf("add choice: %v", err)
	}
	flow, giftID, err := storyflow.AddNode(flow, storyflow.KindScene, 100, 350)
	if err != nil {
		log.Fatalf("add gift scene: %v", err)
	}
	flow, dateID, err := storyflow.AddNode(flow, storyflow.KindScene, 400, 350)
	if err != nil {
		log.Fatalf("add date scene: %v", err)
	}

	// Opening scene runs straight into the choice point.
	flow, err = storyflow.Connect(flow, openingID, choiceID, storyflow.OptionA)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	// Label the two branches.
	label := func(s string) *string { return &s }
	flow, err = storyflow.UpdateChoiceOption(flow, choiceID, 0,
		storyflow.BranchPatch{Label: label("Give Her a Gift"), NextNodeID: &giftID})
	if err != nil {
		log.Fatalf("branch A: %v", err)
	}
	flow, err = storyflow.UpdateChoiceOption(flow, choiceID, 1,
		storyflow.BranchPatch{Label: label("Host a Date Night"), NextNodeID: &dateID})
	if err != nil {
		log.Fatalf("branch B: %v", err)
	}

	// ── Persist and reload ────────────────────────────────────────────
	if _, err := store.SaveFlow(ctx, flow); err != nil {
		log.Fatalf("save flow: %v", err)
	}
	loaded, err := store.GetFlow(ctx, "demo-ad")
	if err != nil {
		log.Fatalf("get flow: %v", err)
	}
	fmt.Println("flow saved and reloaded:")
	printJSON(loaded)

	// ── Play it through, picking option B at the choice point ─────────
	session, err := playback.NewSession(loaded, openingID)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	for session.State() == playback.StatePlaying {
		fmt.Printf("playing: %s\n", session.Current().Title)
		session.MediaEnded()
		if session.State() == playback.StateAwaitingChoice {
			if session.Current().Kind == storyflow.KindChoice {
				session.Choose(storyflow.OptionB)
			} else {
				session.Choose(storyflow.OptionA)
			}
		}
	}
	fmt.Printf("state: %s, path: %v, progress: %.0f%%\n",
		session.State(), session.Visited(), session.Progress()*100)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteFlow(ctx, "demo-ad"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("flow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
