package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"mission-engine/internal/domain"
	"mission-engine/internal/infra/memory"
	"mission-engine/internal/manifest"
	"mission-engine/internal/obfuscate"
)

func TestSyncCreatesDefaultRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressionStore()
	quiz := newTestQuiz(t, store, 3, 30)

	if err := quiz.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !quiz.Synced() {
		t.Fatal("mission must be ready after sync")
	}

	rec, err := store.FindOne(ctx, "u1", "general-knowledge")
	if err != nil {
		t.Fatalf("expected defaults persisted: %v", err)
	}
	if rec.Points != 0 || rec.State != domain.StateGame {
		t.Fatalf("unexpected initial record %+v", rec)
	}
	if quiz.PointsRequired() != 30 {
		t.Fatalf("manifest threshold not adopted: %v", quiz.PointsRequired())
	}
}

func TestSyncAdoptsExistingTerminalRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressionStore()
	created := time.Now().Add(-time.Hour).Truncate(time.Second)
	seed := domain.Progression{
		UserID:    "u1",
		MissionID: "general-knowledge",
		Points:    35,
		State:     domain.StateSucceed,
		CreatedAt: created,
	}
	if err := store.Upsert(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	quiz := newTestQuiz(t, store, 3, 30)
	if err := quiz.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Stored state is visible immediately, no Close required.
	if quiz.State() != domain.StateSucceed {
		t.Fatalf("expected succeed, got %s", quiz.State())
	}
	if quiz.UserPoints() != 35 {
		t.Fatalf("expected stored points 35, got %v", quiz.UserPoints())
	}
	if !quiz.CreatedAt().Equal(created) {
		t.Fatalf("createdAt must come from the record: %v", quiz.CreatedAt())
	}
}

func TestSyncFailsWithoutManifest(t *testing.T) {
	store := memory.NewProgressionStore()
	core := NewMission("u1", "unknown-mission", store,
		memory.NewStaticManifestLoader(nil), nil)
	codec := testCodec(t)
	quiz := NewQuizMission(core, codec)

	if err := quiz.Sync(context.Background()); !errors.Is(err, domain.ErrManifestNotFound) {
		t.Fatalf("expected manifest error, got %v", err)
	}
	if quiz.Synced() {
		t.Fatal("mission must not be ready after failed sync")
	}
}

func TestSyncPropagatesStoreError(t *testing.T) {
	quiz := newTestQuiz(t, &failingStore{}, 3, 30)
	if err := quiz.Sync(context.Background()); err == nil {
		t.Fatal("expected store error to fail sync")
	}
}

func TestUserPointsGatedByCompletion(t *testing.T) {
	store := memory.NewProgressionStore()
	quiz := newTestQuiz(t, store, 3, 30)
	if err := quiz.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if done := quiz.RecordPoints(10); done {
		t.Fatal("10 of 30 points must not complete the mission")
	}
	if quiz.UserPoints() != 0 {
		t.Fatalf("incomplete mission must report 0, got %v", quiz.UserPoints())
	}

	if done := quiz.RecordPoints(20); !done {
		t.Fatal("30 of 30 points must complete the mission")
	}
	if quiz.UserPoints() != 30 {
		t.Fatalf("completed mission must report points, got %v", quiz.UserPoints())
	}
}

func TestCloseResolvesState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressionStore()

	quiz := newTestQuiz(t, store, 3, 30)
	if err := quiz.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := quiz.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if quiz.State() != domain.StateFailed {
		t.Fatalf("below threshold must fail, got %s", quiz.State())
	}

	quiz.RecordPoints(30)
	if err := quiz.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if quiz.State() != domain.StateSucceed {
		t.Fatalf("at threshold must succeed, got %s", quiz.State())
	}

	rec, err := store.FindOne(ctx, "u1", "general-knowledge")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.State != domain.StateSucceed {
		t.Fatalf("close must persist, got %+v", rec)
	}
}

func TestOpenResetsEverything(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressionStore()
	quiz := newTestQuiz(t, store, 2, 10)
	if err := quiz.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Play the quiz to a terminal state.
	answerAll(t, quiz, 0)
	if !quiz.State().Terminal() {
		t.Fatalf("expected terminal state, got %s", quiz.State())
	}

	if err := quiz.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if quiz.State() != domain.StateGame || quiz.Points() != 0 {
		t.Fatalf("open must reset, got state=%s points=%v", quiz.State(), quiz.Points())
	}
	if quiz.QuestionsLeft() != quiz.QuestionsNumber() {
		t.Fatalf("open must restock the bank, left=%d", quiz.QuestionsLeft())
	}
	if quiz.CountQuestionSuccess() != 0 {
		t.Fatal("open must clear previously-asked records")
	}

	// The whole bank is selectable again after reopening.
	seen := issueAll(t, quiz)
	if len(seen) != quiz.QuestionsNumber() {
		t.Fatalf("expected full bank after open, got %d ids", len(seen))
	}

	rec, err := store.FindOne(ctx, "u1", "general-knowledge")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.State != domain.StateGame || rec.Points != 0 {
		t.Fatalf("open must persist the reset, got %+v", rec)
	}
}

func TestUpdatePropagatesStoreError(t *testing.T) {
	quiz := newTestQuiz(t, memory.NewProgressionStore(), 1, 10)
	if err := quiz.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	quiz.Mission.store = &failingStore{}

	if err := quiz.Update(context.Background()); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestIsCompletedWithoutVariantPanics(t *testing.T) {
	core := NewMission("u1", "m1", memory.NewProgressionStore(),
		memory.NewStaticManifestLoader(nil), nil)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from unbound IsCompleted")
		}
	}()
	core.IsCompleted()
}

type failingStore struct{}

func (failingStore) FindOne(context.Context, string, string) (domain.Progression, error) {
	return domain.Progression{}, errors.New("store down")
}

func (failingStore) Upsert(context.Context, domain.Progression) error {
	return errors.New("store down")
}

func testCodec(t *testing.T) *obfuscate.Codec {
	t.Helper()
	codec, err := obfuscate.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

// newTestQuiz builds a quiz whose question i has the single solution
// "answer-<i>" so tests can answer correctly on purpose.
func newTestQuiz(t *testing.T, store ProgressionStore, questions int, pointsRequired float64) *QuizMission {
	t.Helper()
	loader := memory.NewStaticManifestLoader(map[string]manifest.Manifest{
		"general-knowledge": {
			Title:          "General knowledge",
			Template:       "quiz.html.tmpl",
			PointsRequired: pointsRequired,
			DurationMs:     -1,
		},
	})
	core := NewMission("u1", "general-knowledge", store, loader, nil)
	quiz := NewQuizMission(core, testCodec(t))
	quiz.seedRandom(42)
	for i := 0; i < questions; i++ {
		quiz.AddQuestion(staticQuestion(i))
	}
	return quiz
}
