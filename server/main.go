package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aigehq/storyflow"
	"github.com/aigehq/storyflow/assets"
	"github.com/aigehq/storyflow/playback"
	"github.com/aigehq/storyflow/postgres"
)

func main() {
	cfgPath := os.Getenv("STORYFLOW_CONFIG")
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	delay, err := cfg.AssetDelay()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store storyflow.Store = postgres.New(pool)
	generator := assets.NewService(store, &assets.StubProducer{
		Delay:   delay,
		BaseURL: cfg.Assets.BaseURL,
	})

	app := fiber.New()

	// loadFlow fetches the flow for a handler, writing the 404 itself.
	loadFlow := func(c fiber.Ctx) (*storyflow.Flow, error) {
		f, err := store.GetFlow(c.Context(), c.Params("id"))
		if err != nil {
			return nil, c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if f == nil {
			return nil, c.Status(404).JSON(fiber.Map{"error": "flow not found"})
		}
		return f, nil
	}

	// saveFlow persists a mutated flow and writes the success response.
	saveFlow := func(c fiber.Ctx, f *storyflow.Flow, status int, body any) error {
		if _, err := store.SaveFlow(c.Context(), f); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if body == nil {
			return c.SendStatus(status)
		}
		return c.Status(status).JSON(body)
	}

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Flows (whole graph) ───────────────────────────────────────────
	app.Post("/flows", func(c fiber.Ctx) error {
		var f storyflow.Flow
		if err := c.Bind().JSON(&f); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		result, err := store.SaveFlow(c.Context(), &f)
		if errors.Is(err, storyflow.ErrOutDegreeExceeded) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(result)
	})

	app.Get("/flows/:id", func(c fiber.Ctx) error {
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		return c.JSON(f)
	})

	app.Delete("/flows/:id", func(c fiber.Ctx) error {
		if err := store.DeleteFlow(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/nodes", func(c fiber.Ctx) error {
		var body struct {
			Kind storyflow.NodeKind `json:"kind"`
			X    float64            `json:"x"`
			Y    float64            `json:"y"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		next, nodeID, err := storyflow.AddNode(f, body.Kind, body.X, body.Y)
		if errors.Is(err, storyflow.ErrSceneLimit) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return saveFlow(c, next, 201, fiber.Map{"id": nodeID})
	})

	app.Delete("/flows/:id/nodes/:nodeID", func(c fiber.Ctx) error {
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		next, err := storyflow.DeleteNode(f, c.Params("nodeID"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return saveFlow(c, next, 204, nil)
	})

	app.Patch("/flows/:id/nodes/:nodeID/options/:index", func(c fiber.Ctx) error {
		var body struct {
			Label      *string `json:"label"`
			NextNodeID *string `json:"next_node_id"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		idx, err := parseBranchIndex(c.Params("index"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid branch index"})
		}
		f, lerr := loadFlow(c)
		if f == nil {
			return lerr
		}
		next, err := storyflow.UpdateChoiceOption(f, c.Params("nodeID"), idx,
			storyflow.BranchPatch{Label: body.Label, NextNodeID: body.NextNodeID})
		if errors.Is(err, storyflow.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return saveFlow(c, next, 204, nil)
	})

	app.Put("/flows/:id/nodes/:nodeID/media/:key", func(c fiber.Ctx) error {
		var media *storyflow.MediaOption
		if len(c.Body()) > 0 {
			if err := c.Bind().JSON(&media); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
			}
		}
		f, lerr := loadFlow(c)
		if f == nil {
			return lerr
		}
		next, err := storyflow.UpdateSceneMedia(f, c.Params("nodeID"), c.Params("key"), media)
		if errors.Is(err, storyflow.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return saveFlow(c, next, 204, nil)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/edges", func(c fiber.Ctx) error {
		var body struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Option string `json:"option"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		f, lerr := loadFlow(c)
		if f == nil {
			return lerr
		}
		next, err := storyflow.Connect(f, body.From, body.To, body.Option)
		if errors.Is(err, storyflow.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if errors.Is(err, storyflow.ErrOutDegreeExceeded) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return saveFlow(c, next, 201, fiber.Map{"id": next.Edges[len(next.Edges)-1].ID})
	})

	app.Delete("/flows/:id/edges/:edgeID", func(c fiber.Ctx) error {
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		return saveFlow(c, storyflow.DeleteEdge(f, c.Params("edgeID")), 204, nil)
	})

	// ── Preview hand-off ──────────────────────────────────────────────
	app.Get("/flows/:id/preview", func(c fiber.Ctx) error {
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		return c.JSON(playback.Capture(f, c.Query("start")))
	})

	// ── Scene assets ──────────────────────────────────────────────────
	app.Post("/flows/:id/assets", func(c fiber.Ctx) error {
		f, err := loadFlow(c)
		if f == nil {
			return err
		}
		records, err := generator.Generate(c.Context(), f)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(202).JSON(records)
	})

	app.Get("/flows/:id/assets", func(c fiber.Ctx) error {
		list, err := store.ListAssets(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(list)
	})

	app.Post("/assets/:id/regenerate", func(c fiber.Ctx) error {
		err := generator.Regenerate(c.Context(), c.Params("id"))
		if errors.Is(err, storyflow.ErrAssetNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "asset not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(202)
	})

	log.Fatal(app.Listen(cfg.ListenAddr()))
}

func parseBranchIndex(s string) (int, error) {
	switch s {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, errors.New("branch index must be 0 or 1")
}
