package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/domain"
)

// Service fans notifications out to every configured channel
type Service struct {
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		discord: discord,
	}
}

func (s *Service) SendStatusChange(ctx context.Context, change domain.StatusChange) error {
	if s.discord != nil {
		if err := s.discord.SendStatusChange(ctx, change); err != nil {
			return err
		}
	}
	return nil
}
