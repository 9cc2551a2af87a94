package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guestbook-api/internal/metrics"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/repository"
	"github.com/guestbook-api/internal/validation"
	"github.com/guestbook-api/pkg/apperrors"
	"github.com/rs/zerolog"
)

const notifyTimeout = 30 * time.Second

// guestbookService is the concrete implementation of GuestbookService.
// Every operation is one load -> mutate -> save unit under mu.
type guestbookService struct {
	repo        repository.MessageRepository
	notifier    Notifier
	maxMessages int
	log         zerolog.Logger
	now         func() time.Time

	mu sync.RWMutex
	wg sync.WaitGroup
}

func newGuestbookService(repo repository.MessageRepository, notifier Notifier, maxMessages int, log zerolog.Logger) *guestbookService {
	if maxMessages <= 0 {
		maxMessages = models.DefaultMaxMessages
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &guestbookService{
		repo:        repo,
		notifier:    notifier,
		maxMessages: maxMessages,
		log:         log.With().Str("service", "guestbook").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *guestbookService) ListMessages(ctx context.Context) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, err := s.load(ctx)
	observe("list_messages", err)
	return messages, err
}

func (s *guestbookService) Stats(ctx context.Context) (*models.GuestbookStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, err := s.load(ctx)
	if err != nil {
		observe("stats", err)
		return nil, err
	}

	stats := &models.GuestbookStats{Messages: len(messages)}
	for _, m := range messages {
		stats.Likes += m.Likes.Len()
		stats.Replies += len(m.Replies)
		for _, r := range m.Replies {
			stats.Likes += r.Likes.Len()
		}
	}
	observe("stats", nil)
	return stats, nil
}

func (s *guestbookService) AddMessage(ctx context.Context, content string, author models.UserRef) (msg *models.Message, err error) {
	defer func() { observe("add_message", err) }()

	content, err = validation.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	if err = validation.ValidateAuthor(author); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	msg = &models.Message{
		ID:        id,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
		Replies:   []*models.Reply{},
	}

	messages = append([]*models.Message{msg}, messages...)
	if len(messages) > s.maxMessages {
		dropped := len(messages) - s.maxMessages
		messages = messages[:s.maxMessages]
		s.log.Info().Int("dropped", dropped).Int("cap", s.maxMessages).Msg("Guestbook cap reached, oldest messages dropped")
	}

	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Info().Str("message_id", msg.ID).Str("author_id", author.ID).Msg("Message added")
	s.notify(models.Entry{
		MessageID: msg.ID,
		Content:   msg.Content,
		Author:    msg.Author,
		CreatedAt: msg.CreatedAt,
	})
	return msg, nil
}

func (s *guestbookService) AddReply(ctx context.Context, messageID, content string, author models.UserRef) (reply *models.Reply, err error) {
	defer func() { observe("add_reply", err) }()

	content, err = validation.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	if err = validation.ValidateAuthor(author); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	msg := findMessage(messages, messageID)
	if msg == nil {
		return nil, errMessageNotFound(messageID)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	reply = &models.Reply{
		ID:        id,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
	}
	msg.Replies = append(msg.Replies, reply)

	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Info().Str("message_id", messageID).Str("reply_id", reply.ID).Str("author_id", author.ID).Msg("Reply added")
	s.notify(models.Entry{
		MessageID: messageID,
		ReplyID:   reply.ID,
		Content:   reply.Content,
		Author:    reply.Author,
		CreatedAt: reply.CreatedAt,
	})
	return reply, nil
}

func (s *guestbookService) ToggleLike(ctx context.Context, messageID string, user models.UserRef) (msg *models.Message, err error) {
	defer func() { observe("toggle_like", err) }()

	if err = validation.ValidateAuthor(user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	msg = findMessage(messages, messageID)
	if msg == nil {
		return nil, errMessageNotFound(messageID)
	}

	liked := msg.Likes.Toggle(user)
	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Debug().Str("message_id", messageID).Str("user_id", user.ID).Bool("liked", liked).Msg("Message like toggled")
	return msg, nil
}

func (s *guestbookService) ToggleReplyLike(ctx context.Context, messageID, replyID string, user models.UserRef) (reply *models.Reply, err error) {
	defer func() { observe("toggle_reply_like", err) }()

	if err = validation.ValidateAuthor(user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	_, reply, err = findReply(messages, messageID, replyID)
	if err != nil {
		return nil, err
	}

	liked := reply.Likes.Toggle(user)
	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Debug().Str("message_id", messageID).Str("reply_id", replyID).Str("user_id", user.ID).Bool("liked", liked).Msg("Reply like toggled")
	return reply, nil
}

func (s *guestbookService) HasUserLiked(ctx context.Context, messageID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	msg := findMessage(messages, messageID)
	if msg == nil {
		return false, nil
	}
	return msg.Likes.Has(userID), nil
}

func (s *guestbookService) HasUserLikedReply(ctx context.Context, messageID, replyID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	_, reply, err := findReply(messages, messageID, replyID)
	if err != nil {
		return false, nil
	}
	return reply.Likes.Has(userID), nil
}

func (s *guestbookService) EditMessage(ctx context.Context, messageID, userID, content string) (msg *models.Message, err error) {
	defer func() { observe("edit_message", err) }()

	content, err = validation.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	msg = findMessage(messages, messageID)
	if msg == nil {
		return nil, errMessageNotFound(messageID)
	}
	if msg.Author.ID != userID {
		return nil, apperrors.Forbidden("only the author can edit this message")
	}

	msg.Content = content
	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Info().Str("message_id", messageID).Msg("Message edited")
	return msg, nil
}

func (s *guestbookService) DeleteMessage(ctx context.Context, messageID, userID string) (err error) {
	defer func() { observe("delete_message", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i, m := range messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errMessageNotFound(messageID)
	}
	if messages[idx].Author.ID != userID {
		return apperrors.Forbidden("only the author can delete this message")
	}

	replies := len(messages[idx].Replies)
	messages = append(messages[:idx], messages[idx+1:]...)
	if err = s.save(ctx, messages); err != nil {
		return err
	}

	s.log.Info().Str("message_id", messageID).Int("replies_removed", replies).Msg("Message deleted")
	return nil
}

func (s *guestbookService) EditReply(ctx context.Context, messageID, replyID, userID, content string) (reply *models.Reply, err error) {
	defer func() { observe("edit_reply", err) }()

	content, err = validation.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	_, reply, err = findReply(messages, messageID, replyID)
	if err != nil {
		return nil, err
	}
	if reply.Author.ID != userID {
		return nil, apperrors.Forbidden("only the author can edit this reply")
	}

	reply.Content = content
	if err = s.save(ctx, messages); err != nil {
		return nil, err
	}

	s.log.Info().Str("message_id", messageID).Str("reply_id", replyID).Msg("Reply edited")
	return reply, nil
}

func (s *guestbookService) DeleteReply(ctx context.Context, messageID, replyID, userID string) (err error) {
	defer func() { observe("delete_reply", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.load(ctx)
	if err != nil {
		return err
	}
	msg, reply, err := findReply(messages, messageID, replyID)
	if err != nil {
		return err
	}
	if reply.Author.ID != userID {
		return apperrors.Forbidden("only the author can delete this reply")
	}

	idx, _ := msg.FindReply(replyID)
	msg.RemoveReply(idx)
	if err = s.save(ctx, messages); err != nil {
		return err
	}

	s.log.Info().Str("message_id", messageID).Str("reply_id", replyID).Msg("Reply deleted")
	return nil
}

// Close waits for in-flight notifications
func (s *guestbookService) Close() {
	s.wg.Wait()
}

func (s *guestbookService) load(ctx context.Context) ([]*models.Message, error) {
	messages, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load guestbook")
		return nil, apperrors.Internal("failed to load guestbook", err)
	}
	return messages, nil
}

func (s *guestbookService) save(ctx context.Context, messages []*models.Message) error {
	if err := s.repo.Save(ctx, messages); err != nil {
		s.log.Error().Err(err).Msg("Failed to save guestbook")
		return apperrors.Internal("failed to save guestbook", err)
	}
	return nil
}

// notify runs the notifier off the request path; failures are only logged.
func (s *guestbookService) notify(entry models.Entry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Interface("panic", r).Str("message_id", entry.MessageID).Msg("Notifier panicked - recovered")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyNewEntry(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("message_id", entry.MessageID).Msg("Failed to send new entry notification")
		}
	}()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", apperrors.Internal("failed to generate id", err)
	}
	return id.String(), nil
}

func findMessage(messages []*models.Message, id string) *models.Message {
	for _, m := range messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func findReply(messages []*models.Message, messageID, replyID string) (*models.Message, *models.Reply, error) {
	msg := findMessage(messages, messageID)
	if msg == nil {
		return nil, nil, errMessageNotFound(messageID)
	}
	_, reply := msg.FindReply(replyID)
	if reply == nil {
		return nil, nil, apperrors.NotFound("reply not found: " + replyID)
	}
	return msg, reply, nil
}

func errMessageNotFound(id string) error {
	return apperrors.NotFound("message not found: " + id)
}

func observe(operation string, err error) {
	metrics.Operations.WithLabelValues(operation, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch apperrors.CodeOf(err) {
	case "":
		return metrics.ResultOK
	case apperrors.CodeNotFound:
		return metrics.ResultNotFound
	case apperrors.CodePermissionDenied:
		return metrics.ResultForbidden
	case apperrors.CodeInvalidArgument:
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
