package service

import (
	"context"
	"strings"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/logger"
)

type ReviewService struct {
	reviews ReviewRepository
	log     *logger.Logger
}

func NewReviewService(reviews ReviewRepository, log *logger.Logger) *ReviewService {
	if log == nil {
		log = logger.Nop()
	}
	return &ReviewService{reviews: reviews, log: log.WithComponent("reviews")}
}

// Submit stores the review and returns the target's recomputed rating.
// The customer need not have ordered from the target.
func (s *ReviewService) Submit(ctx context.Context, rv *domain.Review) (float64, error) {
	rv.Comment = strings.TrimSpace(rv.Comment)
	if err := rv.Validate(); err != nil {
		return 0, err
	}
	rating, err := s.reviews.CreateReview(ctx, rv)
	if err != nil {
		return 0, err
	}
	s.log.Info("review submitted", "kind", rv.Kind, "target_id", rv.TargetID, "rating", rating)
	return rating, nil
}

func (s *ReviewService) Update(ctx context.Context, rv *domain.Review) (float64, error) {
	rv.Comment = strings.TrimSpace(rv.Comment)
	if err := rv.Validate(); err != nil {
		return 0, err
	}
	rating, err := s.reviews.UpdateReview(ctx, rv)
	if err != nil {
		return 0, err
	}
	s.log.Info("review updated", "kind", rv.Kind, "review_id", rv.ID, "rating", rating)
	return rating, nil
}

func (s *ReviewService) Delete(ctx context.Context, kind domain.ReviewKind, id, customerID int64) (float64, error) {
	rating, err := s.reviews.DeleteReview(ctx, kind, id, customerID)
	if err != nil {
		return 0, err
	}
	s.log.Info("review deleted", "kind", kind, "review_id", id, "rating", rating)
	return rating, nil
}

func (s *ReviewService) ListForTarget(ctx context.Context, kind domain.ReviewKind, targetID int64) ([]domain.Review, error) {
	return s.reviews.ListReviews(ctx, kind, domain.ReviewFilter{TargetID: &targetID})
}

func (s *ReviewService) ListByCustomer(ctx context.Context, kind domain.ReviewKind, customerID int64) ([]domain.Review, error) {
	return s.reviews.ListReviews(ctx, kind, domain.ReviewFilter{CustomerID: &customerID})
}

var _ ReviewServiceInterface = (*ReviewService)(nil)
