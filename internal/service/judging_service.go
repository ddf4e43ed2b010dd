package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hackhub-dev/judging-api/internal/dto"
	"github.com/hackhub-dev/judging-api/internal/models"
	"github.com/hackhub-dev/judging-api/internal/repository"
)

// ErrJudgingNotFound indicates the judging was not located.
var ErrJudgingNotFound = errors.New("judging not found")

// ErrJudgingExists indicates the user already has a judging assignment.
var ErrJudgingExists = errors.New("judging already exists for user")

// ErrJudgingIncomplete indicates a judging cannot be submitted while entries
// still need review or remain flagged.
var ErrJudgingIncomplete = errors.New("judging has unresolved entries")

// JudgingService manages the reviewer's judging assignment itself.
type JudgingService interface {
	Create(ctx context.Context, userID uint) (dto.JudgingResponse, error)
	Get(ctx context.Context, judgingID uint) (dto.JudgingResponse, error)
	Submit(ctx context.Context, judgingID uint) (dto.JudgingResponse, error)
}

type judgingService struct {
	judgings repository.JudgingRepository
	entries  repository.JudgingEntryRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewJudgingService constructs the judging service.
func NewJudgingService(judgings repository.JudgingRepository, entries repository.JudgingEntryRepository, logger zerolog.Logger) JudgingService {
	return &judgingService{
		judgings: judgings,
		entries:  entries,
		logger:   logger.With().Str("component", "judging_service").Logger(),
		now:      time.Now,
	}
}

func (s *judgingService) Create(ctx context.Context, userID uint) (dto.JudgingResponse, error) {
	if userID == 0 {
		return dto.JudgingResponse{}, fmt.Errorf("user id is required")
	}

	if _, err := s.judgings.GetByUserID(ctx, userID); err == nil {
		return dto.JudgingResponse{}, ErrJudgingExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.JudgingResponse{}, fmt.Errorf("lookup judging: %w", err)
	}

	judging := models.Judging{UserID: userID}
	if err := s.judgings.Create(ctx, &judging); err != nil {
		return dto.JudgingResponse{}, fmt.Errorf("create judging: %w", err)
	}

	s.logger.Info().Uint("judging_id", judging.ID).Uint("user_id", userID).Msg("judging created")

	return dto.NewJudgingResponse(judging), nil
}

func (s *judgingService) Get(ctx context.Context, judgingID uint) (dto.JudgingResponse, error) {
	judging, err := s.judgings.GetByID(ctx, judgingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JudgingResponse{}, ErrJudgingNotFound
		}
		return dto.JudgingResponse{}, fmt.Errorf("load judging: %w", err)
	}

	return dto.NewJudgingResponse(judging), nil
}

// Submit marks the judging as submitted. It fails while any entry is still
// in needs_review or flagged state.
func (s *judgingService) Submit(ctx context.Context, judgingID uint) (dto.JudgingResponse, error) {
	judging, err := s.judgings.GetByID(ctx, judgingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JudgingResponse{}, ErrJudgingNotFound
		}
		return dto.JudgingResponse{}, fmt.Errorf("load judging: %w", err)
	}

	counts, err := s.entries.CountByStatus(ctx, judgingID)
	if err != nil {
		return dto.JudgingResponse{}, fmt.Errorf("count entries: %w", err)
	}

	if counts.NeedsReview > 0 || counts.Flagged > 0 {
		return dto.JudgingResponse{}, ErrJudgingIncomplete
	}

	if judging.IsSubmitted {
		return dto.NewJudgingResponse(judging), nil
	}

	judging.IsSubmitted = true
	if err := s.judgings.Update(ctx, &judging); err != nil {
		return dto.JudgingResponse{}, fmt.Errorf("update judging: %w", err)
	}

	return dto.NewJudgingResponse(judging), nil
}
