package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mrperfect/storefront/internal/model"
)

func TestReviewGateScenario(t *testing.T) {
	st, o := bookedOrder(t)
	orders := NewOrderService(st, nil)
	reviews := NewReviewService(st)
	ctx := context.Background()
	req := ReviewRequest{ProductID: 1, ReviewMessage: "Great fit", ReviewValue: 5}

	if _, err := reviews.AddReview(ctx, shopper, req); !errors.Is(err, ErrPurchaseRequired) {
		t.Fatalf("pending order must not unlock reviews: %v", err)
	}

	if _, err := orders.ConfirmOrder(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	rv, err := reviews.AddReview(ctx, shopper, req)
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if rv.Status != model.ReviewPending || rv.UserName != shopper.UserName || rv.ReviewValue != 5 {
		t.Fatalf("review = %+v", rv)
	}
	if _, err := reviews.AddReview(ctx, shopper, req); !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("second review: %v", err)
	}

	stranger := Identity{ID: 77, UserName: "ravi"}
	if _, err := reviews.AddReview(ctx, stranger, req); !errors.Is(err, ErrPurchaseRequired) {
		t.Fatalf("stranger: %v", err)
	}
}

func TestReviewDeliveredOrderQualifies(t *testing.T) {
	st, o := bookedOrder(t)
	orders := NewOrderService(st, nil)
	ctx := context.Background()
	if _, err := orders.ConfirmOrder(ctx, o.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := orders.UpdateStatus(ctx, o.ID, model.OrderDelivered); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReviewService(st).AddReview(ctx, shopper, ReviewRequest{ProductID: 1, ReviewValue: 4}); err != nil {
		t.Fatalf("delivered order should qualify: %v", err)
	}
}

func TestReviewValidation(t *testing.T) {
	svc := NewReviewService(newMemStore())
	ctx := context.Background()
	cases := []struct {
		name string
		who  Identity
		req  ReviewRequest
		want error
	}{
		{"anonymous", Identity{}, ReviewRequest{ProductID: 1, ReviewValue: 3}, ErrNotAuthenticated},
		{"no product", shopper, ReviewRequest{ReviewValue: 3}, ErrValidation},
		{"no rating", shopper, ReviewRequest{ProductID: 1}, ErrValidation},
		{"rating too high", shopper, ReviewRequest{ProductID: 1, ReviewValue: 6}, ErrValidation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := svc.AddReview(ctx, c.who, c.req); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestGetReviewsOnlyApproved(t *testing.T) {
	st := newMemStore()
	for i, status := range []string{model.ReviewPending, model.ReviewApproved, model.ReviewRejected} {
		id := uint64(i + 1)
		st.reviews[id] = model.ProductReview{ID: id, ProductID: 1, UserID: id, Status: status, ReviewValue: 4}
	}
	st.reviews[9] = model.ProductReview{ID: 9, ProductID: 2, UserID: 9, Status: model.ReviewApproved}
	svc := NewReviewService(st)

	got, err := svc.GetReviews(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != model.ReviewApproved || got[0].ProductID != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestReviewModeration(t *testing.T) {
	st := newMemStore()
	st.reviews[1] = model.ProductReview{ID: 1, ProductID: 1, UserID: 10, Status: model.ReviewPending}
	svc := NewReviewService(st)
	ctx := context.Background()

	rv, err := svc.SetStatus(ctx, 1, "approved")
	if err != nil || rv.Status != model.ReviewApproved {
		t.Fatalf("approve: %v %q", err, rv.Status)
	}
	if _, err := svc.SetStatus(ctx, 1, "pending"); !errors.Is(err, ErrValidation) {
		t.Fatalf("pending is not a moderation outcome: %v", err)
	}
	rv, err = svc.SetReply(ctx, 1, " Thanks! ")
	if err != nil || rv.AdminReply == nil || *rv.AdminReply != "Thanks!" {
		t.Fatalf("reply: %v %+v", err, rv.AdminReply)
	}
	if _, err := svc.SetReply(ctx, 1, "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty reply: %v", err)
	}
	for name, call := range map[string]func() error{
		"status": func() error { _, err := svc.SetStatus(ctx, 99, "rejected"); return err },
		"reply":  func() error { _, err := svc.SetReply(ctx, 99, "hi"); return err },
		"delete": func() error { _, err := svc.Delete(ctx, 99); return err },
	} {
		if err := call(); !errors.Is(err, ErrReviewNotFound) {
			t.Errorf("%s on unknown review: %v", name, err)
		}
	}
	if rv, err := svc.Delete(ctx, 1); err != nil || rv.ProductID != 1 {
		t.Fatalf("delete: %v product=%d", err, rv.ProductID)
	}
	all, err := svc.ListAll(ctx, model.ReviewFilter{})
	if err != nil || len(all) != 0 {
		t.Fatalf("ListAll = %v, %v", all, err)
	}
	if _, err := svc.ListAll(ctx, model.ReviewFilter{Status: "spam"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad filter: %v", err)
	}
}
