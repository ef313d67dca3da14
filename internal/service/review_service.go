package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

type ReviewRequest struct {
	ProductID     uint64 `json:"productId"`
	ReviewMessage string `json:"reviewMessage"`
	ReviewValue   int    `json:"reviewValue"`
}

// ReviewService gates review submission on a qualifying purchase and runs
// admin moderation.
type ReviewService struct {
	store Store
}

func NewReviewService(store Store) *ReviewService { return &ReviewService{store: store} }

// AddReview stores a pending review.  The caller must hold a confirmed or
// delivered order containing the product and must not have reviewed it
// before.
func (s *ReviewService) AddReview(ctx context.Context, who Identity, req ReviewRequest) (model.ProductReview, error) {
	if !who.Authenticated() {
		return model.ProductReview{}, ErrNotAuthenticated
	}
	if req.ProductID == 0 {
		return model.ProductReview{}, ValidationError("productId is required")
	}
	if req.ReviewValue < 1 || req.ReviewValue > 5 {
		return model.ProductReview{}, ValidationError("reviewValue must be between 1 and 5")
	}

	ok, err := s.store.Orders().HasPurchased(ctx, who.ID, req.ProductID, model.PurchasedStatuses)
	if err != nil {
		return model.ProductReview{}, err
	}
	if !ok {
		return model.ProductReview{}, ErrPurchaseRequired
	}
	exists, err := s.store.Reviews().Exists(ctx, who.ID, req.ProductID)
	if err != nil {
		return model.ProductReview{}, err
	}
	if exists {
		return model.ProductReview{}, ErrDuplicateReview
	}

	rv := model.ProductReview{
		ProductID:     req.ProductID,
		UserID:        who.ID,
		UserName:      who.UserName,
		ReviewMessage: strings.TrimSpace(req.ReviewMessage),
		ReviewValue:   req.ReviewValue,
		Status:        model.ReviewPending,
	}
	if err := s.store.Reviews().Create(ctx, &rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.ProductReview{}, ErrDuplicateReview
		}
		return model.ProductReview{}, err
	}
	return rv, nil
}

// GetReviews returns the approved reviews of a product.
func (s *ReviewService) GetReviews(ctx context.Context, productID uint64) ([]model.ProductReview, error) {
	if productID == 0 {
		return nil, ValidationError("productId is required")
	}
	return s.store.Reviews().List(ctx, model.ReviewFilter{ProductID: productID, Status: model.ReviewApproved})
}

func (s *ReviewService) ListAll(ctx context.Context, f model.ReviewFilter) ([]model.ProductReview, error) {
	switch f.Status {
	case "", model.ReviewPending, model.ReviewApproved, model.ReviewRejected:
	default:
		return nil, ValidationError("unknown review status %q", f.Status)
	}
	return s.store.Reviews().List(ctx, f)
}

// SetStatus approves or rejects a review.
func (s *ReviewService) SetStatus(ctx context.Context, id uint64, status string) (model.ProductReview, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return model.ProductReview{}, ValidationError("status must be approved or rejected")
	}
	if err := s.store.Reviews().SetStatus(ctx, id, status); err != nil {
		return model.ProductReview{}, reviewErr(err)
	}
	rv, err := s.store.Reviews().Get(ctx, id)
	return rv, reviewErr(err)
}

func (s *ReviewService) SetReply(ctx context.Context, id uint64, reply string) (model.ProductReview, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return model.ProductReview{}, ValidationError("reply is required")
	}
	if err := s.store.Reviews().SetReply(ctx, id, reply); err != nil {
		return model.ProductReview{}, reviewErr(err)
	}
	rv, err := s.store.Reviews().Get(ctx, id)
	return rv, reviewErr(err)
}

// Delete removes a review and returns it so callers know which product's
// listing changed.
func (s *ReviewService) Delete(ctx context.Context, id uint64) (model.ProductReview, error) {
	rv, err := s.store.Reviews().Get(ctx, id)
	if err != nil {
		return model.ProductReview{}, reviewErr(err)
	}
	if err := s.store.Reviews().Delete(ctx, id); err != nil {
		return model.ProductReview{}, reviewErr(err)
	}
	return rv, nil
}

func reviewErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReviewNotFound
	}
	return err
}
