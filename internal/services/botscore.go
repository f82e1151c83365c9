package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/types"
	"github.com/murmurwatch/murmur-backend/internal/utils"
)

// BotScoreService scores accounts on heuristic bot signals. Eight signals
// contribute to a total; accounts at or above the threshold are flagged and
// each signal scoring >= 1 leaves a flag row as an audit trail.
type BotScoreService interface {
	AnalyzeAccount(ctx context.Context, accountID string) (*types.BotScore, error)
	AnalyzeStaleAccounts(ctx context.Context, platform string, limit int) (int, error)
	GetScores(ctx context.Context, accountIDs []string) ([]*types.BotScore, error)
	GetFlagged(ctx context.Context, limit int) ([]*types.BotScore, error)
}

type botScoreService struct {
	db           *gorm.DB
	log          *logger.Logger
	accountRepo  repos.AccountRepo
	postRepo     repos.PostRepo
	botScoreRepo repos.BotScoreRepo

	threshold      float64
	newAccountDays int
}

func NewBotScoreService(
	db *gorm.DB,
	log *logger.Logger,
	accountRepo repos.AccountRepo,
	postRepo repos.PostRepo,
	botScoreRepo repos.BotScoreRepo,
) BotScoreService {
	serviceLog := log.With("service", "BotScoreService")
	return &botScoreService{
		db:             db,
		log:            serviceLog,
		accountRepo:    accountRepo,
		postRepo:       postRepo,
		botScoreRepo:   botScoreRepo,
		threshold:      utils.GetEnvAsFloat("BOT_DETECTION_THRESHOLD", 7.0, log),
		newAccountDays: utils.GetEnvAsInt("NEW_ACCOUNT_DAYS", 30, log),
	}
}

func (bs *botScoreService) AnalyzeAccount(ctx context.Context, accountID string) (*types.BotScore, error) {
	accounts, err := bs.accountRepo.GetByIDs(ctx, nil, []string{accountID})
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("account %s not found", accountID)
	}
	account := accounts[0]

	posts, err := bs.postRepo.GetRecentByAccount(ctx, nil, accountID, time.Time{}, 500)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	now := time.Now().UTC()
	signals := map[string]float64{
		"new_account":        bs.checkNewAccount(account, now),
		"high_frequency":     checkHighFrequency(posts, now),
		"repetitive_content": checkRepetitiveContent(posts),
		"low_engagement":     checkLowEngagement(account, posts),
		"generic_username":   checkGenericUsername(account),
		"incomplete_profile": checkIncompleteProfile(account),
		"temporal_pattern":   checkTemporalPattern(posts),
		"unverified_account": checkUnverifiedAccount(account, now),
	}

	total := 0.0
	for _, v := range signals {
		total += v
	}
	flagged := total >= bs.threshold

	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return nil, fmt.Errorf("marshal signals: %w", err)
	}
	score := &types.BotScore{
		AccountID:   accountID,
		TotalScore:  total,
		Signals:     datatypes.JSON(signalsJSON),
		Flagged:     flagged,
		Threshold:   bs.threshold,
		LastUpdated: now,
	}

	var flags []*types.BotFlag
	for _, name := range sortedSignalNames(signals) {
		if signals[name] < 1.0 {
			continue
		}
		flags = append(flags, &types.BotFlag{
			AccountID:       accountID,
			FlagType:        name,
			ConfidenceScore: signals[name],
			Reason:          fmt.Sprintf("signal %s scored %.2f", name, signals[name]),
			Timestamp:       now,
		})
	}

	if err := bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := bs.botScoreRepo.Upsert(ctx, tx, []*types.BotScore{score}); err != nil {
			return fmt.Errorf("upsert score: %w", err)
		}
		if _, err := bs.botScoreRepo.CreateFlags(ctx, tx, flags); err != nil {
			return fmt.Errorf("create flags: %w", err)
		}
		if err := bs.accountRepo.MarkAnalyzed(ctx, tx, []string{accountID}, now); err != nil {
			return fmt.Errorf("mark analyzed: %w", err)
		}
		return nil
	}); err != nil {
		bs.log.Error("Failed to store bot score", "account_id", accountID, "error", err)
		return nil, err
	}

	bs.log.Info("Analyzed account", "account_id", accountID, "score", total, "flagged", flagged)
	return score, nil
}

// AnalyzeStaleAccounts scores accounts not analyzed in the last day, oldest
// first, and returns how many were processed.
func (bs *botScoreService) AnalyzeStaleAccounts(ctx context.Context, platform string, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	accounts, err := bs.accountRepo.GetStaleForAnalysis(ctx, nil, platform, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("load stale accounts: %w", err)
	}

	analyzed := 0
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return analyzed, err
		}
		if _, err := bs.AnalyzeAccount(ctx, account.ID); err != nil {
			bs.log.Error("Account analysis failed, continuing", "account_id", account.ID, "error", err)
			continue
		}
		analyzed++
	}
	return analyzed, nil
}

func (bs *botScoreService) GetScores(ctx context.Context, accountIDs []string) ([]*types.BotScore, error) {
	return bs.botScoreRepo.GetByAccountIDs(ctx, nil, accountIDs)
}

func (bs *botScoreService) GetFlagged(ctx context.Context, limit int) ([]*types.BotScore, error) {
	return bs.botScoreRepo.GetFlagged(ctx, nil, limit)
}

func sortedSignalNames(signals map[string]float64) []string {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkNewAccount scores account age: under a week is strongly suspicious,
// under the configured new-account horizon mildly so. Range 0-2.
func (bs *botScoreService) checkNewAccount(account *types.Account, now time.Time) float64 {
	if account.CreatedAt == nil {
		return 0
	}
	ageDays := int(now.Sub(*account.CreatedAt).Hours() / 24)
	switch {
	case ageDays < 7:
		return 2.0
	case ageDays < bs.newAccountDays:
		return 1.0
	}
	return 0
}

// checkHighFrequency scores the posting rate over the last 24 hours. Range 0-3.
func checkHighFrequency(posts []*types.Post, now time.Time) float64 {
	if len(posts) == 0 {
		return 0
	}
	recent := 0
	for _, p := range posts {
		if now.Sub(p.CreatedAt) < 24*time.Hour {
			recent++
		}
	}
	perHour := float64(recent) / 24.0
	switch {
	case perHour > 10:
		return 3.0
	case perHour > 5:
		return 2.0
	case perHour > 2:
		return 1.0
	}
	return 0
}

var contentWordPattern = regexp.MustCompile(`\w+`)

// checkRepetitiveContent scores duplicate and near-duplicate posting over the
// last 100 posts. Exact duplicates are counted directly; near-duplicates via
// word-set Jaccard similarity against the next ten posts. Range 0-2.5.
func checkRepetitiveContent(posts []*types.Post) float64 {
	if len(posts) < 5 {
		return 0
	}

	sorted := make([]*types.Post, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > 100 {
		sorted = sorted[:100]
	}

	contents := make([]string, len(sorted))
	distinct := make(map[string]bool, len(sorted))
	for i, p := range sorted {
		contents[i] = strings.TrimSpace(strings.ToLower(p.Content))
		distinct[contents[i]] = true
	}
	duplicateRatio := float64(len(contents)-len(distinct)) / float64(len(contents))

	wordSets := make([]map[string]bool, len(contents))
	for i, content := range contents {
		set := make(map[string]bool)
		for _, w := range contentWordPattern.FindAllString(content, -1) {
			set[w] = true
		}
		wordSets[i] = set
	}
	var simSum float64
	simCount := 0
	for i := range wordSets {
		for j := i + 1; j < len(wordSets) && j < i+10; j++ {
			inter := 0
			for w := range wordSets[i] {
				if wordSets[j][w] {
					inter++
				}
			}
			union := len(wordSets[i]) + len(wordSets[j]) - inter
			if union > 0 {
				simSum += float64(inter) / float64(union)
				simCount++
			}
		}
	}
	avgSimilarity := 0.0
	if simCount > 0 {
		avgSimilarity = simSum / float64(simCount)
	}

	switch {
	case duplicateRatio > 0.3 || avgSimilarity > 0.7:
		return 2.5
	case duplicateRatio > 0.1 || avgSimilarity > 0.5:
		return 1.5
	case duplicateRatio > 0.05 || avgSimilarity > 0.3:
		return 0.5
	}
	return 0
}

// checkLowEngagement scores prolific accounts nobody interacts with. Range 0-1.5.
func checkLowEngagement(account *types.Account, posts []*types.Post) float64 {
	if len(posts) < 10 {
		return 0
	}
	total := 0.0
	for _, p := range posts {
		total += engagementTotal(p, "likes", "reposts", "replies", "score", "comments")
	}
	avg := total / float64(len(posts))
	switch {
	case account.PostCount > 100 && avg < 1:
		return 1.5
	case account.PostCount > 50 && avg < 2:
		return 1.0
	case account.PostCount > 20 && avg < 3:
		return 0.5
	}
	return 0
}

var botUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z]+\d{4,}$`),
	regexp.MustCompile(`^[a-z]+_[a-z]+\d+$`),
	regexp.MustCompile(`^\w+bot\w*$`),
	regexp.MustCompile(`^user\d+$`),
	regexp.MustCompile(`^[a-z]{1,3}\d{6,}$`),
}

// checkGenericUsername scores machine-generated looking usernames. Range 0-1.
func checkGenericUsername(account *types.Account) float64 {
	username := strings.ToLower(account.Username)
	for _, pattern := range botUsernamePatterns {
		if pattern.MatchString(username) {
			return 1.0
		}
	}
	if len(username) < 3 || len(username) > 30 {
		return 0.5
	}
	return 0
}

// checkIncompleteProfile scores missing profile fields, platform by platform.
// Range 0-1.
func checkIncompleteProfile(account *types.Account) float64 {
	metadata := accountMetadata(account)
	switch account.Platform {
	case "bluesky":
		hasDescription := metadataString(metadata, "description") != ""
		hasAvatar := metadataString(metadata, "avatar") != ""
		if !hasDescription && !hasAvatar {
			return 1.0
		}
		if !hasDescription || !hasAvatar {
			return 0.5
		}
	case "hackernews":
		hasAbout := metadataString(metadata, "about") != ""
		karma := metadataNumber(metadata, "karma")
		if !hasAbout && karma < 10 {
			return 1.0
		}
		if !hasAbout || karma < 5 {
			return 0.5
		}
	}
	return 0
}

// checkTemporalPattern scores round-the-clock posting. Humans sleep; an
// account active in more than 20 distinct hours of the day is suspicious.
// Range 0-1.
func checkTemporalPattern(posts []*types.Post) float64 {
	if len(posts) < 20 {
		return 0
	}
	hours := make(map[int]bool)
	for _, p := range posts {
		hours[p.CreatedAt.Hour()] = true
	}
	switch {
	case len(hours) > 20:
		return 1.0
	case len(hours) > 16:
		return 0.5
	}
	return 0
}

// checkUnverifiedAccount scores missing platform trust signals: Bluesky
// verification, Hacker News karma. Range 0-1.5.
func checkUnverifiedAccount(account *types.Account, now time.Time) float64 {
	metadata := accountMetadata(account)
	switch account.Platform {
	case "bluesky":
		if verified, _ := metadata["verified"].(bool); verified {
			return 0
		}
		if account.CreatedAt != nil {
			ageDays := int(now.Sub(*account.CreatedAt).Hours() / 24)
			if ageDays < 7 {
				return 1.5
			}
			if ageDays < 30 {
				return 1.0
			}
		}
		return 0.5
	case "hackernews":
		karma := metadataNumber(metadata, "karma")
		switch {
		case karma >= 1000:
			return 0
		case karma >= 100:
			return 0.3
		case karma >= 10:
			return 0.7
		}
		return 1.5
	}
	return 0
}

func accountMetadata(account *types.Account) map[string]any {
	if len(account.Metadata) == 0 {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(account.Metadata, &metadata); err != nil {
		return nil
	}
	return metadata
}

func metadataString(metadata map[string]any, key string) string {
	s, _ := metadata[key].(string)
	return s
}

func metadataNumber(metadata map[string]any, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func engagementTotal(post *types.Post, keys ...string) float64 {
	if len(post.Engagement) == 0 {
		return 0
	}
	var engagement map[string]any
	if err := json.Unmarshal(post.Engagement, &engagement); err != nil {
		return 0
	}
	total := 0.0
	for _, key := range keys {
		total += metadataNumber(engagement, key)
	}
	return total
}
