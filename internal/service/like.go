package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"like-bot/internal/repository"
)

const likeAPITimeout = 10 * time.Second

// LikeOutcome classifies what the external like API reported.
type LikeOutcome int

const (
	// LikeSuccess means likes were delivered to the account.
	LikeSuccess LikeOutcome = iota
	// LikeMaxReached means the account already hit the API's like cap today.
	LikeMaxReached
	// LikeFailure covers transport errors, decode errors and unknown statuses.
	LikeFailure
)

// LikeResult is the normalized outcome of one like invocation.
type LikeResult struct {
	Outcome     LikeOutcome
	AccountID   string
	Nickname    string
	LikesBefore int
	LikesAdded  int
	LikesAfter  int
	ProcessedAt time.Time
	Err         error
}

// Message renders the result as the user-facing reply text.
func (r LikeResult) Message() string {
	switch r.Outcome {
	case LikeSuccess:
		return fmt.Sprintf(
			"✅ *Request Processed Successfully*\n\n"+
				"👤 *Player:* %s\n"+
				"🆔 *UID:* `%s`\n"+
				"👍 *Likes Before:* %d\n"+
				"✨ *Likes Added:* %d\n"+
				"🇮🇳 *Total Likes Now:* %d\n"+
				"⏰ *Processed At:* %s",
			r.Nickname, r.AccountID, r.LikesBefore, r.LikesAdded, r.LikesAfter,
			r.ProcessedAt.UTC().Format("2006-01-02 15:04:05"),
		)
	case LikeMaxReached:
		return "❌ Max likes reached for your UID, please provide another UID"
	default:
		if r.Err != nil {
			return fmt.Sprintf("❌ *API Error: Unable to process like*\n\n🆔 *UID:* `%s`\n📛 Error: %s", r.AccountID, r.Err)
		}
		return "❌ *API Error: Unable to process like*"
	}
}

type likeAPIResponse struct {
	Status         int    `json:"status"`
	PlayerNickname string `json:"PlayerNickname"`
	LikesBefore    int    `json:"LikesbeforeCommand"`
	LikesAfter     int    `json:"LikesafterCommand"`
	LikesGiven     int    `json:"LikesGivenByAPI"`
}

// LikeService calls the external like API and normalizes its response.
type LikeService struct {
	urlTemplate string
	client      *http.Client
	profiles    *repository.ProfileRepository
	now         func() time.Time
}

// NewLikeService builds a client for the given URL template. The template
// must contain {region} and {uid} placeholders.
func NewLikeService(urlTemplate string, profiles *repository.ProfileRepository) *LikeService {
	return &LikeService{
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: likeAPITimeout},
		profiles:    profiles,
		now:         time.Now,
	}
}

// Invoke performs the like action for (region, accountID) on behalf of the
// given user. Failures are folded into the result; there is no retry. Only a
// successful delivery updates the profile's last-used timestamp.
func (s *LikeService) Invoke(ctx context.Context, telegramID int64, region, accountID string) LikeResult {
	result := LikeResult{Outcome: LikeFailure, AccountID: accountID, ProcessedAt: s.now()}

	url := strings.NewReplacer("{region}", region, "{uid}", accountID).Replace(s.urlTemplate)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = fmt.Errorf("build request: %w", err)
		return result
	}

	resp, err := s.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	var decoded likeAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		result.Err = fmt.Errorf("decode response: %w", err)
		return result
	}

	switch decoded.Status {
	case 1:
		result.Outcome = LikeSuccess
		result.Nickname = decoded.PlayerNickname
		if result.Nickname == "" {
			result.Nickname = "Unknown"
		}
		result.LikesBefore = decoded.LikesBefore
		result.LikesAdded = decoded.LikesGiven
		result.LikesAfter = decoded.LikesAfter
		if err := s.profiles.TouchLastUsed(ctx, telegramID, s.now()); err != nil {
			log.Printf("touch last used for %d: %v", telegramID, err)
		}
	case 2:
		result.Outcome = LikeMaxReached
	default:
		result.Err = fmt.Errorf("unexpected status %d", decoded.Status)
	}
	return result
}
