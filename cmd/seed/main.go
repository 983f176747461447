// Command seed populates the consultant collection with generated mock
// profiles for local development and demos.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
	"github.com/StafflyAI/staffly-mvp/pkg/llm"
)

const (
	openAIDims = 1536 // text-embedding-3-small
	ollamaDims = 768  // nomic-embed-text
)

var firstNames = []string{
	"Emma", "Liam", "Olivia", "Noah", "Ava", "Elias", "Sofia", "Lucas",
	"Maja", "Hugo", "Alice", "Oscar", "Wilma", "Adam", "Ella", "Leo",
}

var lastNames = []string{
	"Andersson", "Johansson", "Karlsson", "Nilsson", "Eriksson",
	"Larsson", "Olsson", "Persson", "Svensson", "Gustafsson",
}

var skillPools = map[string][]string{
	"frontend": {"React", "TypeScript", "Next.js", "CSS", "Vue"},
	"backend":  {"Go", "Python", "PostgreSQL", "Kafka", "gRPC"},
	"mobile":   {"Swift", "Kotlin", "React Native", "Flutter"},
	"devops":   {"Kubernetes", "Terraform", "AWS", "CI/CD", "Docker"},
	"data":     {"Python", "Spark", "Airflow", "dbt", "TensorFlow"},
}

var availabilities = []domain.Availability{
	domain.Available, domain.Available, domain.Available, domain.Busy, domain.Unavailable,
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func main() {
	var (
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "consultants", "Qdrant collection name")
		count       = flag.Int("count", 50, "number of consultants to generate")
		ollamaURL   = flag.String("ollama", "", "Ollama base URL for local embeddings (empty uses OpenAI)")
		ollamaModel = flag.String("model", "nomic-embed-text", "Ollama embedding model")
		seed        = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var emb embedder
	dims := openAIDims
	if *ollamaURL != "" {
		emb = llm.NewOllamaEmbedder(*ollamaURL, *ollamaModel)
		dims = ollamaDims
	} else {
		emb = llm.New(llm.DefaultConfig(os.Getenv("OPENAI_API_KEY")))
	}

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.EnsureCollection(ctx, dims); err != nil {
		log.Error("ensure collection failed", "error", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	profiles := make([]domain.ConsultantProfile, *count)
	for i := range profiles {
		profiles[i] = generate(rng)
	}

	// Embed concurrently, then upsert with retry.
	records := fn.ParMap(profiles, 8, func(p domain.ConsultantProfile) fn.Result[semantic.ProfileRecord] {
		vec, err := emb.Embed(ctx, embedText(p))
		if err != nil {
			return fn.Err[semantic.ProfileRecord](fmt.Errorf("embed %s: %w", p.Name, err))
		}
		return fn.Ok(semantic.ProfileRecord{Profile: p, Embedding: vec})
	})

	collected := fn.Collect(records)
	batch, err := collected.Unwrap()
	if err != nil {
		log.Error("embedding failed", "error", err)
		os.Exit(1)
	}

	result := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[int] {
		if err := store.UpsertProfiles(ctx, batch); err != nil {
			return fn.Err[int](err)
		}
		return fn.Ok(len(batch))
	})
	n, err := result.Unwrap()
	if err != nil {
		log.Error("upsert failed", "error", err)
		os.Exit(1)
	}

	log.Info("seeded consultants", "count", n, "collection", *collection)
}

func generate(rng *rand.Rand) domain.ConsultantProfile {
	specialty := pick(rng, keys(skillPools))
	pool := skillPools[specialty]

	n := 2 + rng.Intn(len(pool)-1)
	skills := make([]string, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		skills = append(skills, pool[i])
	}

	first := pick(rng, firstNames)
	last := pick(rng, lastNames)
	years := 2 + rng.Intn(15)

	return domain.ConsultantProfile{
		ID:           uuid.NewString(),
		Name:         first + " " + last,
		Email:        strings.ToLower(first + "." + last + "@example.com"),
		Skills:       skills,
		Availability: pick(rng, availabilities),
		Experience:   fmt.Sprintf("%d years of %s development", years, specialty),
		Education:    "MSc Computer Science",
	}
}

func embedText(p domain.ConsultantProfile) string {
	return fmt.Sprintf("%s\nSkills: %s\nExperience: %s", p.Name, strings.Join(p.Skills, ", "), p.Experience)
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
