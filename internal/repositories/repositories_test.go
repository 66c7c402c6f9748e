package repositories

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"hackspeech/internal/database"
	"hackspeech/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*database.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return database.NewManagerFromDB(db, nil, zap.NewNop()), mock
}

var userRowColumns = []string{
	"id", "public_id", "link_code", "email", "name", "password_hash", "avatar",
	"google_id", "auth_provider", "points", "level", "total_analyzed", "total_transformed",
	"settings", "created_at", "updated_at",
}

func userRow(id int64, name string, points int) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "5f0c8c1e-4a1b-4c1e-9d7a-0a1b2c3d4e5f", "3D4E5F", "lea@example.com", name,
		nil, nil, nil, models.AuthProviderEmail, points, 1, 0, 0,
		[]byte(`{"language":"English"}`), now, now,
	}
}

func q(s string) string { return regexp.QuoteMeta(s) }

// ===============================
// USERS
// ===============================

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	returning := []string{"id", "points", "level", "total_analyzed", "total_transformed", "created_at", "updated_at"}

	t.Run("assigns link code from public id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("INSERT INTO users")).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "lea@example.com", "Léa", nil, nil, nil, "email", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(returning).AddRow(7, 0, 1, 0, 0, time.Now(), time.Now()))

		user := &models.User{Email: "lea@example.com", Name: "Léa", Settings: models.DefaultSettings()}
		require.NoError(t, repo.Create(ctx, user))

		assert.Equal(t, int64(7), user.ID)
		assert.Len(t, user.LinkCode, 6)
		assert.Equal(t, models.LinkCodeFromPublicID(user.PublicID), user.LinkCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.Create(ctx, &models.User{Email: "lea@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("link code collision retries", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_link_code_key"})
		mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnRows(sqlmock.NewRows(returning).AddRow(8, 0, 1, 0, 0, time.Now(), time.Now()))

		user := &models.User{Email: "sam@example.com"}
		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, int64(8), user.ID)
		assert.Equal(t, models.DefaultUserName, user.Name)
	})
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM users WHERE id = $1")).WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.GetByID(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("link code is upper-cased", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM users WHERE link_code = $1")).WithArgs("3D4E5F").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(3, "Léa", 45)...))

		user, err := repo.GetByLinkCode(ctx, " 3d4e5f ")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 45, user.Points)
		assert.Equal(t, "English", user.Settings.Language)
		assert.Equal(t, models.DetectionModeReformulate, user.Settings.DetectionMode, "missing keys keep defaults")
	})

	t.Run("email is normalized", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM users WHERE email = $1")).WithArgs("lea@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		_, err := repo.GetByEmail(ctx, "  Lea@Example.COM ")
		require.NoError(t, err)
	})
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("only given fields", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		name := "Sam"
		mock.ExpectQuery(q("UPDATE users SET name = $2, updated_at = NOW()")).
			WithArgs(int64(3), "Sam").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(3, "Sam", 0)...))

		user, err := repo.UpdateProfile(ctx, 3, ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Sam", user.Name)
	})

	t.Run("no fields reads the user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(q("FROM users WHERE id = $1")).WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(3, "Sam", 0)...))

		user, err := repo.UpdateProfile(ctx, 3, ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
	})
}

func TestUserRepository_Leaderboard(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())

	mock.ExpectQuery(q("ORDER BY points DESC, id ASC")).WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar", "points", "level"}).
			AddRow(4, "Nora", nil, 300, 3).
			AddRow(2, "Léa", "https://cdn/a.png", 120, 1))

	entries, err := repo.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	require.NotNil(t, entries[1].Avatar)
	assert.Equal(t, "https://cdn/a.png", *entries[1].Avatar)
}

// ===============================
// DETECTIONS
// ===============================

func TestDetectionRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("record and credit commit together", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO detections")).
			WithArgs(int64(1), "bonjour", false, 0.05, nil, "Aucun discours haineux détecté").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
		mock.ExpectExec(q("INSERT INTO progress_events")).WithArgs(int64(1), "detection", int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("points = points + $2")).WithArgs(int64(1), 0, 1, 0).
			WillReturnRows(sqlmock.NewRows([]string{"points", "level"}).AddRow(0, 1))
		mock.ExpectCommit()

		d := &models.Detection{UserID: 1, OriginalText: "bonjour", Confidence: 0.05, Explanation: "Aucun discours haineux détecté"}
		result, err := repo.Create(ctx, d, models.ProgressDelta{Analyzed: 1})
		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, int64(11), d.ID)
		assert.Equal(t, now, d.CreatedAt)
	})

	t.Run("failed credit leaves no ledger row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO detections")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, time.Now()))
		mock.ExpectExec(q("INSERT INTO progress_events")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("points = points + $2")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		d := &models.Detection{UserID: 1, OriginalText: "tu es un idiot", IsHateSpeech: true}
		_, err := repo.Create(ctx, d, models.ProgressDelta{Points: 15, Analyzed: 1})
		require.Error(t, err)
		assert.Zero(t, d.ID)
	})
}

func TestDetectionRepository_Reads(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "user_id", "original_text", "is_hate_speech", "confidence", "category", "explanation", "reformulated_text", "created_at"}

	t.Run("list maps nullable columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())

		mock.ExpectQuery(q("ORDER BY created_at DESC, id DESC")).WithArgs(int64(1), 50).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(2, 1, "sale idiot", true, []byte("0.91"), "racism", "x", "reformulé", time.Now()).
				AddRow(1, 1, "bonjour", false, []byte("0.05"), nil, "y", nil, time.Now()))

		list, err := repo.ListByUser(ctx, 1, 500)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.NotNil(t, list[0].Category)
		assert.Equal(t, models.CategoryRacism, *list[0].Category)
		assert.Equal(t, 0.91, list[0].Confidence)
		require.NotNil(t, list[0].ReformulatedText)
		assert.Nil(t, list[1].Category)
		assert.Nil(t, list[1].ReformulatedText)
	})

	t.Run("count hate only", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(q("AND created_at >= $2 AND is_hate_speech")).WithArgs(int64(1), since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		n, err := repo.CountSince(ctx, 1, since, models.DetectionFilter{HateOnly: true})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("category breakdown", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())

		mock.ExpectQuery(q("GROUP BY category")).WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
				AddRow("general_insult", 4).AddRow("sexism", 1))

		stats, err := repo.CategoryBreakdown(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []models.CategoryCount{
			{Category: models.CategoryGeneralInsult, Count: 4},
			{Category: models.CategorySexism, Count: 1},
		}, stats)
	})

	t.Run("weekly buckets by weekday", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDetectionRepository(db, zap.NewNop())

		mock.ExpectQuery(q("EXTRACT(DOW FROM created_at AT TIME ZONE 'UTC')")).
			WillReturnRows(sqlmock.NewRows([]string{"weekday", "count"}).AddRow(0, 2).AddRow(5, 7))

		week, err := repo.WeeklyCounts(ctx, 1, time.Now().AddDate(0, 0, -7))
		require.NoError(t, err)
		assert.Equal(t, [7]int{2, 0, 0, 0, 0, 7, 0}, week)
	})
}

func TestDetectionRepository_AttachReformulation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDetectionRepository(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectExec(q("reformulated_text IS NULL")).WithArgs(int64(5), int64(1), "texte").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("reformulated_text IS NULL")).WithArgs(int64(5), int64(1), "autre").
		WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := repo.AttachReformulation(ctx, 1, 5, "texte")
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.AttachReformulation(ctx, 1, 5, "autre")
	require.NoError(t, err)
	assert.False(t, written, "reformulated text is written once")
}

// ===============================
// PROGRESSION
// ===============================

func TestProgressRepository_ApplyEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh event applies delta", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProgressRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO progress_events")).WithArgs(int64(1), "detection", int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("points = points + $2")).WithArgs(int64(1), 15, 1, 0).
			WillReturnRows(sqlmock.NewRows([]string{"points", "level"}).AddRow(15, 1))
		mock.ExpectCommit()

		result, err := repo.ApplyEvent(ctx, 1, models.ProgressSourceDetection, 9, models.ProgressDelta{Points: 15, Analyzed: 1})
		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, 15, result.Points)
	})

	t.Run("replayed event changes nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProgressRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO progress_events")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(q("SELECT points, level FROM users")).WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"points", "level"}).AddRow(15, 1))
		mock.ExpectCommit()

		result, err := repo.ApplyEvent(ctx, 1, models.ProgressSourceDetection, 9, models.ProgressDelta{Points: 15, Analyzed: 1})
		require.NoError(t, err)
		assert.False(t, result.Applied)
		assert.Equal(t, 15, result.Points)
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProgressRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec(q("INSERT INTO progress_events")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("points = points + $2")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err := repo.ApplyEvent(ctx, 1, models.ProgressSourceDetection, 9, models.ProgressDelta{Analyzed: 1})
		assert.Error(t, err)
	})
}

func TestProgressRepository_CompleteChallenge(t *testing.T) {
	ctx := context.Background()
	challenge := &models.Challenge{ID: 3, Target: 5, Reward: 100}

	t.Run("below target or already completed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProgressRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(q("UPDATE user_challenges SET completed = TRUE")).WithArgs(int64(1), int64(3), 5).
			WillReturnRows(sqlmock.NewRows([]string{"completed_at"}))
		mock.ExpectCommit()

		completion, err := repo.CompleteChallenge(ctx, 1, challenge)
		require.NoError(t, err)
		assert.Nil(t, completion)
	})

	t.Run("first crossing grants reward", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProgressRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(q("UPDATE user_challenges SET completed = TRUE")).
			WillReturnRows(sqlmock.NewRows([]string{"completed_at"}).AddRow(time.Now()))
		mock.ExpectExec(q("INSERT INTO progress_events")).WithArgs(int64(1), "challenge", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("points = points + $2")).WithArgs(int64(1), 100, 0, 0).
			WillReturnRows(sqlmock.NewRows([]string{"points", "level"}).AddRow(175, 2))
		mock.ExpectCommit()

		completion, err := repo.CompleteChallenge(ctx, 1, challenge)
		require.NoError(t, err)
		require.NotNil(t, completion)
		assert.True(t, completion.Progress.Applied)
		assert.Equal(t, 175, completion.Progress.Points)
	})
}

func TestChallengeRepository_UpsertProgress(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChallengeRepository(db, zap.NewNop())

	mock.ExpectQuery(q("GREATEST(user_challenges.progress, EXCLUDED.progress)")).
		WithArgs(int64(1), int64(3), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "challenge_id", "progress", "completed", "completed_at", "created_at"}).
			AddRow(1, 1, 3, 4, false, nil, time.Now()))

	uc, err := repo.UpsertProgress(context.Background(), 1, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, uc.Progress, "stored progress is never lowered")
	assert.Nil(t, uc.CompletedAt)
}

func TestChallengeRepository_GetActiveNone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChallengeRepository(db, zap.NewNop())

	mock.ExpectQuery(q("WHERE is_active AND start_date <= $1 AND end_date >= $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, err := repo.GetActive(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestBadgeRepository_Unlock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBadgeRepository(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectExec(q("ON CONFLICT (user_id, badge_id) DO NOTHING")).WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q("ON CONFLICT (user_id, badge_id) DO NOTHING")).WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	fresh, err := repo.Unlock(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = repo.Unlock(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, fresh)
}

// ===============================
// GUARDIAN & CHAT
// ===============================

func TestGuardianRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGuardianRepository(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectExec(q("INSERT INTO guardian_links")).WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT EXISTS")).WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q("JOIN users u ON u.id = gl.child_id")).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(userRow(2, "Léa", 30)...))

	require.NoError(t, repo.Link(ctx, 1, 2), "linking twice is not an error")

	linked, err := repo.IsLinked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, linked)

	children, err := repo.ListChildren(ctx, 1)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Léa", children[0].Name)
}

func TestChatRepository_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepository(db, zap.NewNop())
	t0 := time.Now()

	mock.ExpectQuery(q(") recent")).WithArgs(int64(1), 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "text", "is_user", "created_at"}).
			AddRow(1, 1, "salut", true, t0).
			AddRow(2, 1, "Salam !", false, t0.Add(time.Second)))

	messages, err := repo.ListRecent(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsUser)
	assert.False(t, messages[1].IsUser)
}
