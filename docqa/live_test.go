package docqa

import (
	"context"
	"os"
	"testing"

	embopenai "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/openai"
)

// Live tests hit a real OpenAI-compatible endpoint. They are skipped unless
// APPTAGENT_RUN_LIVE_TESTS=1 and OPENAI_API_KEY are set.

func initLiveEnv(t *testing.T) (apiKey, baseURL string) {
	t.Helper()
	if os.Getenv("APPTAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set APPTAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
	}
	apiKey = os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is empty")
	}
	return apiKey, os.Getenv("OPENAI_BASE_URL")
}

func liveModelName(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func TestLiveModelAnswerer(t *testing.T) {
	apiKey, baseURL := initLiveEnv(t)
	ctx := context.Background()

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   liveModelName("OPENAI_MODEL", "gpt-4o-mini"),
	})
	if err != nil {
		t.Fatalf("init chat model: %v", err)
	}

	x := NewIndex()
	err = x.Add(ctx, Document{
		Name:    "faq.md",
		Content: "Our business hours are 9am to 5pm, Monday through Friday. We are closed on weekends.",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ans, err := NewModelAnswerer(chatModel, x).Answer(ctx, "When are you open?", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	t.Logf("live answer: %s", ans.Text)
	if ans.Text == "" {
		t.Error("empty answer")
	}
	if len(ans.Sources) == 0 {
		t.Error("answer should carry its sources")
	}
}

func TestLiveDenseIndex(t *testing.T) {
	apiKey, baseURL := initLiveEnv(t)
	ctx := context.Background()

	embedder, err := embopenai.NewEmbedder(ctx, &embopenai.EmbeddingConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   liveModelName("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
	})
	if err != nil {
		t.Fatalf("init embedder: %v", err)
	}

	x := NewIndex(WithEmbedder(embedder))
	err = x.Add(ctx,
		Document{Name: "faq.md", Content: "Our business hours are 9am to 5pm, Monday through Friday."},
		Document{Name: "billing.txt", Content: "Refunds are processed within 5 business days."},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := x.Retrieve(ctx, "when is the office open?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("dense retrieval returned nothing")
	}
	t.Logf("top excerpt: %s (%.3f)", got[0].Document, got[0].Score)
}
