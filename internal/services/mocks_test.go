package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore backs every repository interface with maps so services can be
// exercised end to end without a database.
type memStore struct {
	mu  sync.Mutex
	now func() time.Time

	users      map[int64]*models.User
	nextUser   int64
	detections []*models.Detection
	nextDet    int64
	progress   map[string]bool

	challenges     []*models.Challenge
	userChallenges map[[2]int64]*models.UserChallenge

	badges     []*models.Badge
	userBadges map[[2]int64]time.Time

	links map[int64][]int64

	chats    []*models.ChatMessage
	nextChat int64

	unlockCalls int

	// injected failures, each consumed by the next matching call
	failCreate  error
	failCatalog error
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:            now,
		users:          map[int64]*models.User{},
		progress:       map[string]bool{},
		userChallenges: map[[2]int64]*models.UserChallenge{},
		userBadges:     map[[2]int64]time.Time{},
		links:          map[int64][]int64{},
	}
}

func (s *memStore) collection() *repositories.Collection {
	return &repositories.Collection{
		User:      memUsers{s},
		Detection: memDetections{s},
		Progress:  memProgress{s},
		Challenge: memChallenges{s},
		Badge:     memBadges{s},
		Guardian:  memGuardian{s},
		Chat:      memChat{s},
	}
}

func (s *memStore) addUser(name string) *models.User {
	u := &models.User{Email: strings.ToLower(name) + "@example.com", Name: name, AuthProvider: models.AuthProviderEmail, Settings: models.DefaultSettings()}
	if err := (memUsers{s}).Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (s *memStore) user(id int64) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

// ===============================
// USERS
// ===============================

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	r.s.nextUser++
	u.ID = r.s.nextUser
	u.PublicID = fmt.Sprintf("00000000-0000-0000-0000-%012x", 0xabc000+u.ID)
	u.LinkCode = models.LinkCodeFromPublicID(u.PublicID)
	u.Level = 1
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r memUsers) find(match func(*models.User) bool) *models.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return copyUser(u)
		}
	}
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (r memUsers) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID }), nil
}

func (r memUsers) GetByLinkCode(ctx context.Context, code string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.LinkCode, code) }), nil
}

func (r memUsers) UpdateProfile(ctx context.Context, id int64, update repositories.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Avatar != nil {
		u.Avatar = update.Avatar
	}
	if update.Settings != nil {
		u.Settings = *update.Settings
	}
	return copyUser(u), nil
}

func (r memUsers) MergeGoogleProfile(ctx context.Context, id int64, googleID, name string, avatar *string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	if u.GoogleID == nil && googleID != "" {
		u.GoogleID = &googleID
		u.AuthProvider = models.AuthProviderGoogle
	}
	if u.Name == models.DefaultUserName && name != "" {
		u.Name = name
	}
	if avatar != nil {
		u.Avatar = avatar
	}
	return copyUser(u), nil
}

func (r memUsers) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].ID < all[j].ID
	})
	var out []models.LeaderboardEntry
	for i, u := range all {
		if i == limit {
			break
		}
		out = append(out, models.LeaderboardEntry{Rank: i + 1, ID: u.ID, Name: u.Name, Avatar: u.Avatar, Points: u.Points, Level: u.Level})
	}
	return out, nil
}

// ===============================
// DETECTIONS
// ===============================

type memDetections struct{ s *memStore }

// Create mirrors the repository transaction: the row and its credit land
// together or not at all.
func (r memDetections) Create(ctx context.Context, d *models.Detection, delta models.ProgressDelta) (*models.ProgressResult, error) {
	r.s.mu.Lock()
	if err := r.s.failCreate; err != nil {
		r.s.failCreate = nil
		r.s.mu.Unlock()
		return nil, err
	}
	r.s.mu.Unlock()

	r.add(d)
	return memProgress{r.s}.ApplyEvent(ctx, d.UserID, models.ProgressSourceDetection, d.ID, delta)
}

// add appends to the ledger without touching progress.
func (r memDetections) add(d *models.Detection) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextDet++
	d.ID = r.s.nextDet
	d.CreatedAt = r.s.now()
	c := *d
	r.s.detections = append(r.s.detections, &c)
}

func (r memDetections) GetByID(ctx context.Context, userID, id int64) (*models.Detection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.detections {
		if d.ID == id && d.UserID == userID {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (r memDetections) since(userID int64, since time.Time) []*models.Detection {
	var out []*models.Detection
	for i := len(r.s.detections) - 1; i >= 0; i-- {
		d := r.s.detections[i]
		if d.UserID == userID && !d.CreatedAt.Before(since) {
			out = append(out, d)
		}
	}
	return out
}

func (r memDetections) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Detection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.since(userID, time.Time{})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memDetections) CountSince(ctx context.Context, userID int64, since time.Time, filter models.DetectionFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, d := range r.since(userID, since) {
		if !filter.HateOnly || d.IsHateSpeech {
			n++
		}
	}
	return n, nil
}

func (r memDetections) CategoryBreakdown(ctx context.Context, userID int64) ([]models.CategoryCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[models.Category]int{}
	for _, d := range r.since(userID, time.Time{}) {
		if d.Category != nil {
			counts[*d.Category]++
		}
	}
	var out []models.CategoryCount
	for c, n := range counts {
		out = append(out, models.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (r memDetections) WeeklyCounts(ctx context.Context, userID int64, since time.Time) ([7]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out [7]int
	for _, d := range r.since(userID, since) {
		out[d.CreatedAt.UTC().Weekday()]++
	}
	return out, nil
}

func (r memDetections) RecentSince(ctx context.Context, userID int64, since time.Time, limit int) ([]*models.Detection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.since(userID, since)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memDetections) ActiveDays(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, d := range r.since(userID, since) {
		day := truncateDay(d.CreatedAt)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (r memDetections) AttachReformulation(ctx context.Context, userID, id int64, text string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.detections {
		if d.ID == id && d.UserID == userID && d.ReformulatedText == nil {
			d.ReformulatedText = &text
			return true, nil
		}
	}
	return false, nil
}

// ===============================
// PROGRESS & CHALLENGES
// ===============================

type memProgress struct{ s *memStore }

func (r memProgress) ApplyEvent(ctx context.Context, userID int64, source string, sourceID int64, delta models.ProgressDelta) (*models.ProgressResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[userID]
	key := fmt.Sprintf("%d:%s:%d", userID, source, sourceID)
	if r.s.progress[key] {
		return &models.ProgressResult{Applied: false, Points: u.Points, Level: u.Level}, nil
	}
	r.s.progress[key] = true
	u.Points += delta.Points
	u.TotalAnalyzed += delta.Analyzed
	u.TotalTransformed += delta.Transformed
	return &models.ProgressResult{Applied: true, Points: u.Points, Level: u.Level}, nil
}

func (r memProgress) CompleteChallenge(ctx context.Context, userID int64, c *models.Challenge) (*models.ChallengeCompletion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	uc := r.s.userChallenges[[2]int64{userID, c.ID}]
	if uc == nil || uc.Completed || uc.Progress < c.Target {
		return nil, nil
	}
	now := r.s.now()
	uc.Completed = true
	uc.CompletedAt = &now

	key := fmt.Sprintf("%d:%s:%d", userID, models.ProgressSourceChallenge, c.ID)
	r.s.progress[key] = true
	u := r.s.users[userID]
	u.Points += c.Reward
	return &models.ChallengeCompletion{Challenge: c, Progress: models.ProgressResult{Applied: true, Points: u.Points, Level: u.Level}}, nil
}

type memChallenges struct{ s *memStore }

func (r memChallenges) GetActive(ctx context.Context, at time.Time) (*models.Challenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.challenges {
		if c.IsActive && !c.StartDate.After(at) && !c.EndDate.Before(at) {
			return c, nil
		}
	}
	return nil, nil
}

func (r memChallenges) Create(ctx context.Context, c *models.Challenge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = int64(len(r.s.challenges) + 1)
	r.s.challenges = append(r.s.challenges, c)
	return nil
}

func (r memChallenges) GetUserChallenge(ctx context.Context, userID, challengeID int64) (*models.UserChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	uc := r.s.userChallenges[[2]int64{userID, challengeID}]
	if uc == nil {
		return nil, nil
	}
	c := *uc
	return &c, nil
}

func (r memChallenges) UpsertProgress(ctx context.Context, userID, challengeID int64, progress int) (*models.UserChallenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]int64{userID, challengeID}
	uc := r.s.userChallenges[key]
	if uc == nil {
		uc = &models.UserChallenge{ID: int64(len(r.s.userChallenges) + 1), UserID: userID, ChallengeID: challengeID}
		r.s.userChallenges[key] = uc
	}
	uc.Progress = max(uc.Progress, progress)
	c := *uc
	return &c, nil
}

// ===============================
// BADGES, GUARDIAN, CHAT
// ===============================

type memBadges struct{ s *memStore }

func (r memBadges) ListCatalog(ctx context.Context) ([]*models.Badge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failCatalog; err != nil {
		r.s.failCatalog = nil
		return nil, err
	}
	out := append([]*models.Badge(nil), r.s.badges...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r memBadges) ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.UserBadge
	for key, at := range r.s.userBadges {
		if key[0] == userID {
			out = append(out, &models.UserBadge{UserID: userID, BadgeID: key[1], UnlockedAt: at})
		}
	}
	return out, nil
}

func (r memBadges) UnlockedNames(ctx context.Context, userID int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, b := range r.s.badges {
		if _, ok := r.s.userBadges[[2]int64{userID, b.ID}]; ok {
			out = append(out, b.Name)
		}
	}
	return out, nil
}

func (r memBadges) Unlock(ctx context.Context, userID, badgeID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.unlockCalls++
	key := [2]int64{userID, badgeID}
	if _, ok := r.s.userBadges[key]; ok {
		return false, nil
	}
	r.s.userBadges[key] = r.s.now()
	return true, nil
}

type memGuardian struct{ s *memStore }

func (r memGuardian) Link(ctx context.Context, guardianID, childID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.links[guardianID] {
		if id == childID {
			return nil
		}
	}
	r.s.links[guardianID] = append(r.s.links[guardianID], childID)
	return nil
}

func (r memGuardian) IsLinked(ctx context.Context, guardianID, childID int64) (bool, error) {
	ids, _ := r.ChildIDs(ctx, guardianID)
	for _, id := range ids {
		if id == childID {
			return true, nil
		}
	}
	return false, nil
}

func (r memGuardian) ListChildren(ctx context.Context, guardianID int64) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, id := range r.s.links[guardianID] {
		out = append(out, copyUser(r.s.users[id]))
	}
	return out, nil
}

func (r memGuardian) ChildIDs(ctx context.Context, guardianID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]int64(nil), r.s.links[guardianID]...), nil
}

func (r memGuardian) CountChildren(ctx context.Context, guardianID int64) (int, error) {
	ids, _ := r.ChildIDs(ctx, guardianID)
	return len(ids), nil
}

type memChat struct{ s *memStore }

func (r memChat) Create(ctx context.Context, m *models.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextChat++
	m.ID = r.s.nextChat
	m.CreatedAt = r.s.now()
	c := *m
	r.s.chats = append(r.s.chats, &c)
	return nil
}

func (r memChat) ListRecent(ctx context.Context, userID int64, limit int) ([]*models.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var mine []*models.ChatMessage
	for _, m := range r.s.chats {
		if m.UserID == userID {
			mine = append(mine, m)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

func (r memChat) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*models.ChatMessage
	var deleted int64
	for _, m := range r.s.chats {
		if m.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.s.chats = kept
	return deleted, nil
}

// ===============================
// COLLABORATORS
// ===============================

// eventRecorder subscribes to every event on a real bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingBus(t *testing.T) (events.EventBus, *eventRecorder) {
	t.Helper()
	bus := events.NewEventBus(events.DefaultEventBusConfig(), zap.NewNop())
	rec := &eventRecorder{}
	require.NoError(t, bus.Subscribe("*", events.NewEventHandlerFunc("recorder", func(ctx context.Context, e events.Event) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.events = append(rec.events, e)
		return nil
	})))
	return bus, rec
}

func (r *eventRecorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.GetEventType() == eventType {
			n++
		}
	}
	return n
}

type stubGenerator struct {
	configured bool
	out        string
	err        error
	calls      int
	lastSystem string
}

func (g *stubGenerator) Configured() bool { return g.configured }

func (g *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	g.calls++
	g.lastSystem = system
	return g.out, g.err
}

type stubPresence map[int64]bool

func (p stubPresence) IsOnline(userID int64) bool { return p[userID] }

func newTestLoader() *cache.Loader {
	return cache.NewLoader(cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop()), zap.NewNop())
}

// fixedClock returns a clock pinned to a Wednesday at noon UTC.
func fixedClock() func() time.Time {
	t := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
