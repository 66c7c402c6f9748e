package services

import (
	"context"
	"errors"
	"testing"

	"hackspeech/internal/detection"
	"hackspeech/internal/events"
	"hackspeech/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDetectionService(t *testing.T, store *memStore, gen detection.TextGenerator) (DetectionService, *eventRecorder) {
	t.Helper()
	progression, _ := newTestProgression(t, store)
	bus, rec := newRecordingBus(t)
	svc := NewDetectionService(
		detection.NewClassifier(detection.NewLockedRand(7)),
		detection.NewReformulator(gen, 0, zap.NewNop()),
		memDetections{store},
		progression,
		bus,
		zap.NewNop(),
	)
	return svc, rec
}

func TestAnalyze_RejectsBlankText(t *testing.T) {
	store := newMemStore(fixedClock())
	svc, _ := newTestDetectionService(t, store, nil)

	_, err := svc.Analyze(context.Background(), 1, &AnalyzeRequest{Text: "   "})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, msgTextRequired, GetServiceError(err).Message)
	assert.Empty(t, store.detections)
}

func TestAnalyze_FlaggedTextIsRecordedAndRewarded(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Lina")
	svc, rec := newTestDetectionService(t, store, nil)

	resp, err := svc.Analyze(context.Background(), user.ID, &AnalyzeRequest{Text: "Tu es un IDIOT"})
	require.NoError(t, err)

	assert.True(t, resp.IsHateSpeech)
	require.NotNil(t, resp.Category)
	assert.Equal(t, models.CategoryGeneralInsult, *resp.Category)
	assert.GreaterOrEqual(t, resp.Confidence, 0.7)
	assert.NotZero(t, resp.DetectionID)
	assert.Equal(t, 15, resp.PointsEarned)

	assert.Len(t, store.detections, 1)
	assert.Equal(t, 15, store.user(user.ID).Points)
	assert.Equal(t, 1, rec.count(events.TypeDetectionRecorded))
}

func TestAnalyze_CleanText(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Yanis")
	svc, _ := newTestDetectionService(t, store, nil)

	resp, err := svc.Analyze(context.Background(), user.ID, &AnalyzeRequest{Text: "Bonne journée à tous"})
	require.NoError(t, err)

	assert.False(t, resp.IsHateSpeech)
	assert.Nil(t, resp.Category)
	assert.Equal(t, 0.05, resp.Confidence)
	assert.Equal(t, "Aucun discours haineux détecté", resp.Explanation)
	assert.Equal(t, 1, store.user(user.ID).TotalAnalyzed)
}

func TestAnalyze_FailedRecordIsSafeToRetry(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Lina")
	svc, rec := newTestDetectionService(t, store, nil)
	ctx := context.Background()

	store.failCreate = errors.New("db blip")
	_, err := svc.Analyze(ctx, user.ID, &AnalyzeRequest{Text: "tu es un idiot"})
	require.Error(t, err)
	assert.Empty(t, store.detections)
	assert.Zero(t, rec.count(events.TypeDetectionRecorded))

	resp, err := svc.Analyze(ctx, user.ID, &AnalyzeRequest{Text: "tu es un idiot"})
	require.NoError(t, err)
	assert.Equal(t, 15, resp.PointsEarned)

	got := store.user(user.ID)
	assert.Len(t, store.detections, 1)
	assert.Equal(t, 1, got.TotalAnalyzed)
	assert.Equal(t, 15, got.Points)
}

func TestAnalyze_FollowUpFailureKeepsVerdict(t *testing.T) {
	store := newMemStore(fixedClock())
	store.badges = []*models.Badge{{ID: 1, Name: "Premier pas", RequiredValue: 1, Category: models.BadgeCategoryDetection}}
	user := store.addUser("Yanis")
	svc, _ := newTestDetectionService(t, store, nil)
	ctx := context.Background()

	store.failCatalog = errors.New("db blip")
	resp, err := svc.Analyze(ctx, user.ID, &AnalyzeRequest{Text: "tu es un idiot"})
	require.NoError(t, err)
	assert.NotZero(t, resp.DetectionID)
	assert.Equal(t, 15, resp.PointsEarned)
	assert.Empty(t, resp.NewBadges)
	assert.Len(t, store.detections, 1)
	assert.Equal(t, 1, store.user(user.ID).TotalAnalyzed)

	// badges catch up on the next activity
	resp, err = svc.Analyze(ctx, user.ID, &AnalyzeRequest{Text: "bonjour"})
	require.NoError(t, err)
	require.Len(t, resp.NewBadges, 1)
	assert.Equal(t, "Premier pas", resp.NewBadges[0].Name)
}

func TestReformulate_LocalFallbackWithoutGenerator(t *testing.T) {
	store := newMemStore(fixedClock())
	svc, _ := newTestDetectionService(t, store, &stubGenerator{configured: false})

	out, err := svc.Reformulate(context.Background(), 1, &ReformulateRequest{Text: "tu es un idiot"})
	require.NoError(t, err)
	assert.Equal(t, "tu es un personne avec qui je suis en désaccord", out.Text)
	assert.Equal(t, detection.SourceLocal, out.Source)
}

func TestReformulate_GeneratorFailureFallsBack(t *testing.T) {
	store := newMemStore(fixedClock())
	gen := &stubGenerator{configured: true, err: errors.New("timeout")}
	svc, _ := newTestDetectionService(t, store, gen)

	out, err := svc.Reformulate(context.Background(), 1, &ReformulateRequest{Text: "Bonjour"})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, detection.SourceLocal, out.Source)
	assert.Contains(t, out.Text, "Version positive")
}

func TestReformulate_AttachesToDetectionOnce(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Sami")
	gen := &stubGenerator{configured: true, out: "  Je ne suis pas d'accord avec toi.  "}
	svc, rec := newTestDetectionService(t, store, gen)
	ctx := context.Background()

	det := recordDetection(t, store, user.ID, true)

	out, err := svc.Reformulate(ctx, user.ID, &ReformulateRequest{Text: "tu es nul", DetectionID: &det.ID})
	require.NoError(t, err)
	assert.Equal(t, "Je ne suis pas d'accord avec toi.", out.Text)
	assert.Equal(t, detection.SourceLLM, out.Source)

	_, err = svc.Reformulate(ctx, user.ID, &ReformulateRequest{Text: "tu es nul", DetectionID: &det.ID})
	require.NoError(t, err)

	stored, err := memDetections{store}.GetByID(ctx, user.ID, det.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReformulatedText)
	assert.Equal(t, "Je ne suis pas d'accord avec toi.", *stored.ReformulatedText)
	assert.Equal(t, 1, store.user(user.ID).TotalTransformed)
	assert.Equal(t, 1, rec.count(events.TypeDetectionReformed))
}

func TestReformulate_UnknownDetection(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Nour")
	svc, _ := newTestDetectionService(t, store, nil)

	missing := int64(404)
	_, err := svc.Reformulate(context.Background(), user.ID, &ReformulateRequest{Text: "idiot", DetectionID: &missing})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestHistory_ClampsLimit(t *testing.T) {
	store := newMemStore(fixedClock())
	user := store.addUser("Ines")
	svc, _ := newTestDetectionService(t, store, nil)

	for i := 0; i < 60; i++ {
		recordDetection(t, store, user.ID, false)
	}

	list, err := svc.History(context.Background(), user.ID, 500)
	require.NoError(t, err)
	assert.Len(t, list, 50)
	assert.Greater(t, list[0].ID, list[1].ID, "newest first")

	empty, err := svc.History(context.Background(), 999, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
