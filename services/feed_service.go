package services

import (
	"context"
	"log/slog"
	"sort"

	"rofl/domain"
	"rofl/repositories"
)

// FeedEntry pairs a chat with its most recent message.
type FeedEntry struct {
	ChatID  string
	Message domain.Message
}

type IFeedService interface {
	FeedFor(ctx context.Context, userID string) ([]FeedEntry, error)
}

// FeedService produces a finite snapshot of the user's most recently
// active chats; it is not a live subscription.
type FeedService struct {
	users repositories.IUserRepository
	chats repositories.IChatGateway
	log   *slog.Logger
}

func NewFeedService(users repositories.IUserRepository, chats repositories.IChatGateway, log *slog.Logger) *FeedService {
	return &FeedService{users: users, chats: chats, log: log}
}

// FeedFor merges the latest message of every joined chat, newest first.
// Chats without messages are skipped, and one broken chat never fails the
// whole feed.
func (s *FeedService) FeedFor(ctx context.Context, userID string) ([]FeedEntry, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var feed []FeedEntry
	for _, chatID := range user.JoinedChats {
		chat, err := s.chats.Load(ctx, chatID)
		if err != nil {
			s.log.Warn("skipping unloadable chat in feed",
				"user_id", userID, "chat_id", chatID, "error", err)
			continue
		}
		last, ok := chat.LatestMessage()
		if !ok {
			continue
		}
		feed = append(feed, FeedEntry{ChatID: chat.ID, Message: last})
	}

	// Recency descending; chat id ascending keeps equal timestamps stable.
	sort.Slice(feed, func(i, j int) bool {
		if feed[i].Message.SentAt.Equal(feed[j].Message.SentAt) {
			return feed[i].ChatID < feed[j].ChatID
		}
		return feed[i].Message.SentAt.After(feed[j].Message.SentAt)
	})
	return feed, nil
}
