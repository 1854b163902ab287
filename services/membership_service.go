package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rofl/domain"
	"rofl/errors"
	"rofl/moderation"
	"rofl/repositories"
)

type IMembershipService interface {
	CreateChat(ctx context.Context, userID, name, description, imageURL string) (domain.Chat, error)
	Join(ctx context.Context, userID, chatID string) error
	Leave(ctx context.Context, userID, chatID string) error
	Post(ctx context.Context, userID, chatID, content string) (domain.Message, error)
	History(ctx context.Context, chatID string) (domain.Chat, error)
}

// MembershipService sequences cross-aggregate operations. User and chat
// persist independently, so within one call the user-side commit is issued
// before the chat-side commit, and the chat side stays authoritative for
// membership whenever the two disagree.
type MembershipService struct {
	users      repositories.IUserRepository
	chats      repositories.IChatGateway
	censor     *moderation.Moderator
	maxContent int
	log        *slog.Logger
}

func NewMembershipService(
	users repositories.IUserRepository,
	chats repositories.IChatGateway,
	censor *moderation.Moderator,
	maxContent int,
	log *slog.Logger,
) *MembershipService {
	return &MembershipService{
		users:      users,
		chats:      chats,
		censor:     censor,
		maxContent: maxContent,
		log:        log,
	}
}

// CreateChat creates the chat and enrolls the creator as its first member.
func (s *MembershipService) CreateChat(ctx context.Context, userID, name, description, imageURL string) (domain.Chat, error) {
	creator, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.Chat{}, err
	}
	chat, err := s.chats.Create(ctx, creator, name, description, imageURL)
	if err != nil {
		return domain.Chat{}, err
	}
	if err := s.Join(ctx, userID, chat.ID); err != nil {
		return domain.Chat{}, err
	}
	chat.Members = append(chat.Members, userID)
	s.log.Info("chat created", "chat_id", chat.ID, "creator_id", userID)
	return chat, nil
}

func (s *MembershipService) Join(ctx context.Context, userID, chatID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	chat, err := s.chats.Load(ctx, chatID)
	if err != nil {
		return err
	}

	// In-memory mutations first: both sides reject before anything is
	// persisted, and the request-scoped aggregates are discarded on failure.
	if err := user.JoinChat(chatID); err != nil {
		return err
	}
	if err := chat.AddMember(userID); err != nil {
		return err
	}

	if err := s.users.AddJoinedChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.chats.AddMember(ctx, chatID, userID); err != nil {
		// The user side already committed. The next replay-backed read
		// re-derives membership from the chat's own history, so the chat
		// side stays the source of truth; the caller still sees a failure.
		s.log.Warn("chat-side membership commit failed after user-side commit",
			"user_id", userID, "chat_id", chatID, "error", err)
		return fmt.Errorf("%w: chat-side membership commit: %v", errors.ErrPersistence, err)
	}
	return nil
}

func (s *MembershipService) Leave(ctx context.Context, userID, chatID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	chat, err := s.chats.Load(ctx, chatID)
	if err != nil {
		return err
	}

	if err := user.LeaveChat(chatID); err != nil {
		return err
	}
	if err := chat.RemoveMember(userID); err != nil {
		return err
	}

	if err := s.users.RemoveJoinedChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.chats.RemoveMember(ctx, chatID, userID); err != nil {
		s.log.Warn("chat-side membership commit failed after user-side commit",
			"user_id", userID, "chat_id", chatID, "error", err)
		return fmt.Errorf("%w: chat-side membership commit: %v", errors.ErrPersistence, err)
	}
	return nil
}

// Post validates membership against the chat's member set, not the user's
// joined list, so the authoritative side decides.
func (s *MembershipService) Post(ctx context.Context, userID, chatID, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: empty message", errors.ErrValidation)
	}
	if s.maxContent > 0 && len(content) > s.maxContent {
		return domain.Message{}, fmt.Errorf("%w: message exceeds %d bytes", errors.ErrValidation, s.maxContent)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.Message{}, err
	}
	chat, err := s.chats.Load(ctx, chatID)
	if err != nil {
		return domain.Message{}, err
	}

	msg, err := chat.PostMessage(userID, s.censor.Censor(content), time.Now().UTC())
	if err != nil {
		return domain.Message{}, err
	}
	return s.chats.AppendMessage(ctx, user, msg)
}

func (s *MembershipService) History(ctx context.Context, chatID string) (domain.Chat, error) {
	return s.chats.Load(ctx, chatID)
}
