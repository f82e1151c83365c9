package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

func newBotScoreService(t *testing.T) (BotScoreService, repos.AccountRepo, repos.PostRepo, *gorm.DB) {
	t.Helper()
	gormDB := newTestDB(t)
	log := testLogger()
	accountRepo := repos.NewAccountRepo(gormDB, log)
	postRepo := repos.NewPostRepo(gormDB, log)
	botScoreRepo := repos.NewBotScoreRepo(gormDB, log)
	svc := NewBotScoreService(gormDB, log, accountRepo, postRepo, botScoreRepo)
	return svc, accountRepo, postRepo, gormDB
}

func timePtr(t time.Time) *time.Time { return &t }

func TestAnalyzeAccountFlagsObviousBot(t *testing.T) {
	svc, accountRepo, postRepo, gormDB := newBotScoreService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	account := &types.Account{
		ID:        "did:plc:bot",
		Username:  "spambot1234",
		Platform:  "bluesky",
		CreatedAt: timePtr(now.Add(-3 * 24 * time.Hour)),
		PostCount: 300,
	}
	if _, err := accountRepo.Upsert(ctx, nil, []*types.Account{account}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	// A blast of identical posts, five minutes apart around the clock, with
	// no engagement at all.
	var posts []*types.Post
	for i := 0; i < 288; i++ {
		posts = append(posts, &types.Post{
			ID:        fmt.Sprintf("spam-%d", i),
			AccountID: account.ID,
			Platform:  "bluesky",
			Content:   "click this link now before it gets taken down",
			CreatedAt: now.Add(-time.Duration(i*5) * time.Minute),
		})
	}
	if _, err := postRepo.Create(ctx, nil, posts); err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	score, err := svc.AnalyzeAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("AnalyzeAccount: %v", err)
	}
	if !score.Flagged {
		t.Errorf("obvious bot not flagged, score %v", score.TotalScore)
	}
	// new 2 + frequency 3 + repetitive 2.5 + engagement 1.5 + username 1 +
	// profile 1 + temporal 1 + unverified 1.5
	if math.Abs(score.TotalScore-13.5) > 1e-9 {
		t.Errorf("total score = %v, want 13.5", score.TotalScore)
	}

	var signals map[string]float64
	if err := json.Unmarshal(score.Signals, &signals); err != nil {
		t.Fatalf("unmarshal signals: %v", err)
	}
	if len(signals) != 8 {
		t.Errorf("signals = %d, want 8", len(signals))
	}
	if signals["high_frequency"] != 3.0 {
		t.Errorf("high_frequency = %v, want 3.0", signals["high_frequency"])
	}

	var flags []*types.BotFlag
	if err := gormDB.Where("account_id = ?", account.ID).Find(&flags).Error; err != nil {
		t.Fatalf("load flags: %v", err)
	}
	if len(flags) != 8 {
		t.Errorf("flags = %d, want 8 (every signal >= 1)", len(flags))
	}

	updated, err := accountRepo.GetByIDs(ctx, nil, []string{account.ID})
	if err != nil || len(updated) != 1 {
		t.Fatalf("reload account: %v", err)
	}
	if updated[0].LastAnalyzed == nil {
		t.Error("last_analyzed not set after analysis")
	}
}

func TestAnalyzeAccountCleanHuman(t *testing.T) {
	svc, accountRepo, postRepo, _ := newBotScoreService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	metadata, _ := json.Marshal(map[string]any{
		"description": "potter, hiker, occasional poster",
		"avatar":      "https://cdn.example/avatar.jpg",
		"verified":    true,
	})
	account := &types.Account{
		ID:        "did:plc:human",
		Username:  "clayandtrails",
		Platform:  "bluesky",
		CreatedAt: timePtr(now.Add(-2 * 365 * 24 * time.Hour)),
		PostCount: 40,
		Metadata:  datatypes.JSON(metadata),
	}
	if _, err := accountRepo.Upsert(ctx, nil, []*types.Account{account}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	engagement, _ := json.Marshal(map[string]any{"likes": 12, "replies": 3})
	posts := []*types.Post{
		{ID: "h1", AccountID: account.ID, Platform: "bluesky", Content: "glazed a new batch of mugs today", CreatedAt: now.Add(-50 * time.Hour), Engagement: datatypes.JSON(engagement)},
		{ID: "h2", AccountID: account.ID, Platform: "bluesky", Content: "trail conditions were perfect this morning", CreatedAt: now.Add(-20 * time.Hour), Engagement: datatypes.JSON(engagement)},
	}
	if _, err := postRepo.Create(ctx, nil, posts); err != nil {
		t.Fatalf("seed posts: %v", err)
	}

	score, err := svc.AnalyzeAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("AnalyzeAccount: %v", err)
	}
	if score.Flagged {
		t.Errorf("clean account flagged with score %v", score.TotalScore)
	}
	if score.TotalScore != 0 {
		t.Errorf("total score = %v, want 0", score.TotalScore)
	}
}

func TestCheckGenericUsername(t *testing.T) {
	tests := []struct {
		username string
		want     float64
	}{
		{"spambot1234", 1.0},
		{"crypto_alerts42", 1.0},
		{"newsbot", 1.0},
		{"user12345", 1.0},
		{"ab1234567", 1.0},
		{"x", 0.5},
		{"an_extremely_long_username_indeed_yes", 0.5},
		{"clayandtrails", 0},
		{"jane_doe", 0},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			account := &types.Account{Username: tt.username}
			if got := checkGenericUsername(account); got != tt.want {
				t.Errorf("checkGenericUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestCheckTemporalPattern(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	roundTheClock := make([]*types.Post, 24)
	for h := range roundTheClock {
		roundTheClock[h] = &types.Post{CreatedAt: base.Add(time.Duration(h) * time.Hour)}
	}

	officeHours := make([]*types.Post, 24)
	for i := range officeHours {
		officeHours[i] = &types.Post{CreatedAt: base.Add(time.Duration(9+i%8) * time.Hour)}
	}

	if got := checkTemporalPattern(roundTheClock); got != 1.0 {
		t.Errorf("24/7 pattern = %v, want 1.0", got)
	}
	if got := checkTemporalPattern(officeHours); got != 0 {
		t.Errorf("office-hours pattern = %v, want 0", got)
	}
	if got := checkTemporalPattern(roundTheClock[:10]); got != 0 {
		t.Errorf("too few posts = %v, want 0", got)
	}
}

func TestCheckUnverifiedAccountHackerNews(t *testing.T) {
	tests := []struct {
		karma float64
		want  float64
	}{
		{5000, 0},
		{500, 0.3},
		{50, 0.7},
		{2, 1.5},
	}
	for _, tt := range tests {
		metadata, _ := json.Marshal(map[string]any{"karma": tt.karma})
		account := &types.Account{
			Platform: "hackernews",
			Metadata: datatypes.JSON(metadata),
		}
		if got := checkUnverifiedAccount(account, time.Now()); got != tt.want {
			t.Errorf("karma %v: got %v, want %v", tt.karma, got, tt.want)
		}
	}
}
