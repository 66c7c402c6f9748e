// file: internal/services/detection_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"hackspeech/internal/detection"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/monitoring"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

const (
	msgTextRequired      = "Texte requis"
	msgDetectionNotFound = "Détection non trouvée"

	historyDefaultLimit = 50
)

// detectionService implements DetectionService
type detectionService struct {
	classifier   *detection.Classifier
	reformulator *detection.Reformulator
	detections   repositories.DetectionRepository
	progression  ProgressionService
	events       events.EventBus
	logger       *zap.Logger
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	classifier *detection.Classifier,
	reformulator *detection.Reformulator,
	detections repositories.DetectionRepository,
	progression ProgressionService,
	eventBus events.EventBus,
	logger *zap.Logger,
) DetectionService {
	return &detectionService{
		classifier:   classifier,
		reformulator: reformulator,
		detections:   detections,
		progression:  progression,
		events:       eventBus,
		logger:       logger,
	}
}

// Analyze classifies the text, then records it together with its progression.
func (s *detectionService) Analyze(ctx context.Context, userID int64, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, NewValidationError(msgTextRequired, nil)
	}

	verdict := s.classifier.Classify(req.Text)

	det := &models.Detection{
		UserID:       userID,
		OriginalText: req.Text,
		IsHateSpeech: verdict.IsHateSpeech,
		Confidence:   verdict.Confidence,
		Category:     verdict.Category,
		Explanation:  verdict.Explanation,
	}
	outcome, err := s.progression.OnDetection(ctx, userID, det)
	if err != nil {
		return nil, fmt.Errorf("failed to record detection: %w", err)
	}

	category := ""
	if det.Category != nil {
		category = string(*det.Category)
	}
	monitoring.ObserveDetection(category)

	s.events.Publish(ctx, events.NewDetectionRecordedEvent(det))

	response := &AnalyzeResponse{
		IsHateSpeech: verdict.IsHateSpeech,
		Confidence:   verdict.Confidence,
		Category:     verdict.Category,
		Explanation:  verdict.Explanation,
		DetectionID:  det.ID,
		PointsEarned: outcome.PointsEarned,
		NewBadges:    outcome.NewBadges,
	}

	s.logger.Debug("Text analyzed",
		zap.Int64("user_id", userID),
		zap.Int64("detection_id", det.ID),
		zap.Bool("hate_speech", verdict.IsHateSpeech),
		zap.String("category", category),
	)

	return response, nil
}

// Reformulate rewrites the text. With a detection id the result is attached
// to that detection and counted as one transformed message.
func (s *detectionService) Reformulate(ctx context.Context, userID int64, req *ReformulateRequest) (*detection.Reformulation, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, NewValidationError(msgTextRequired, nil)
	}

	var det *models.Detection
	if req.DetectionID != nil {
		found, err := s.detections.GetByID(ctx, userID, *req.DetectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load detection: %w", err)
		}
		if found == nil {
			return nil, NewNotFoundError(msgDetectionNotFound)
		}
		det = found
	}

	result := s.reformulator.Reformulate(ctx, req.Text)
	monitoring.ReformulationsTotal.WithLabelValues(result.Source).Inc()

	if det == nil {
		return &result, nil
	}

	written, err := s.detections.AttachReformulation(ctx, userID, det.ID, result.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to attach reformulation: %w", err)
	}
	if written {
		s.events.Publish(ctx, events.NewDetectionReformulatedEvent(userID, det.ID, result.Source))
	}

	if _, err := s.progression.OnReformulation(ctx, userID, det.ID); err != nil {
		return nil, fmt.Errorf("failed to apply reformulation progress: %w", err)
	}

	return &result, nil
}

func (s *detectionService) History(ctx context.Context, userID int64, limit int) ([]*models.Detection, error) {
	if limit <= 0 || limit > historyDefaultLimit {
		limit = historyDefaultLimit
	}

	detections, err := s.detections.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	if detections == nil {
		detections = []*models.Detection{}
	}
	return detections, nil
}
