package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/cclient/license-server-go/internal/errors"
	"github.com/cclient/license-server-go/internal/model"
	"github.com/cclient/license-server-go/internal/repository"
)

const broadcastListLimit = 50

// MessageService is a small user-to-user drop box plus admin broadcasts,
// delivered to clients on their next poll.
type MessageService struct {
	msgRepo repository.MessageRepository
	now     func() int64
}

func NewMessageService(msgRepo repository.MessageRepository) *MessageService {
	return &MessageService{
		msgRepo: msgRepo,
		now:     nowMillis,
	}
}

func (s *MessageService) Send(ctx context.Context, from, to, content string) (*model.Message, error) {
	if from == "" {
		return nil, apperrors.MissingRequired("from")
	}
	if to == "" {
		return nil, apperrors.MissingRequired("to")
	}
	if content == "" {
		return nil, apperrors.MissingRequired("content")
	}

	msg, err := s.msgRepo.Create(ctx, from, to, content, s.now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	log.Debug().Str("from", from).Str("to", to).Msg("message stored")
	return msg, nil
}

func (s *MessageService) ListFor(ctx context.Context, user string) ([]model.Message, error) {
	if user == "" {
		return nil, apperrors.MissingRequired("user")
	}

	msgs, err := s.msgRepo.FindByRecipient(ctx, user)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return msgs, nil
}

func (s *MessageService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.MissingRequired("key")
	}

	ok, err := s.msgRepo.Delete(ctx, id)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if !ok {
		return apperrors.NotFound("Message")
	}
	return nil
}

func (s *MessageService) Broadcasts(ctx context.Context) ([]model.Broadcast, error) {
	bs, err := s.msgRepo.ListBroadcasts(ctx, broadcastListLimit)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bs, nil
}

func (s *MessageService) CreateBroadcast(ctx context.Context, content, createdBy string) (*model.Broadcast, error) {
	if content == "" {
		return nil, apperrors.MissingRequired("content")
	}

	b, err := s.msgRepo.CreateBroadcast(ctx, content, createdBy, s.now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	log.Info().Str("createdBy", createdBy).Msg("broadcast created")
	return b, nil
}
