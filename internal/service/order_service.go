package service

import (
	"context"
	"fmt"
	"time"

	"mini-shop/internal/config"
	"mini-shop/internal/model"
	"mini-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	stockRepo   repository.StockRepository
	couponRepo  repository.CouponRepository
	addressRepo repository.AddressRepository
	cart        CartService
	scheduler   CancellationScheduler
	events      EventPublisher
	orderCfg    config.OrderConfig
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. Cart, scheduler and events
// are best-effort collaborators; any of them may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	stockRepo repository.StockRepository,
	couponRepo repository.CouponRepository,
	addressRepo repository.AddressRepository,
	cart CartService,
	scheduler CancellationScheduler,
	events EventPublisher,
	orderCfg config.OrderConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		couponRepo:  couponRepo,
		addressRepo: addressRepo,
		cart:        cart,
		scheduler:   scheduler,
		events:      events,
		orderCfg:    orderCfg,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Place validates, prices and atomically creates an order. The whole of
// steps address-touch through final-total runs in one transaction; any
// failure inside aborts everything, including ledger counters already
// touched. Cart removal and cancellation scheduling happen after commit and
// never roll the order back.
func (s *orderService) Place(ctx context.Context, userID string, req *model.PlaceOrderRequest) (*model.OrderResponse, error) {
	if err := s.validatePlaceRequest(userID, req); err != nil {
		return nil, err
	}

	addr, err := s.addressRepo.GetByID(ctx, req.AddressID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address: %w", err)
	}
	if addr == nil || addr.UserID != userID {
		return nil, model.ErrAddressNotFound
	}

	// Preliminary coupon check. The amount rule is deferred until the
	// total is known.
	var coupon *model.CouponCode
	if req.CouponCode != nil && *req.CouponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, *req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve coupon: %w", err)
		}
		if coupon == nil {
			return nil, model.ErrCouponNotFound
		}
		if err = coupon.CheckEligible(time.Now(), nil); err != nil {
			s.logger.Warn().
				Str("coupon_code", coupon.Code).
				Err(err).
				Msg("coupon not eligible")
			return nil, err
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.addressRepo.TouchLastUsed(ctx, tx, addr.ID); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	now := time.Now()
	order := &model.Order{
		ID:           uuid.New(),
		UserID:       userID,
		Address:      addr.Snapshot(),
		Remark:       req.Remark,
		TotalCents:   0,
		ShipStatus:   model.ShipStatusPending,
		RefundStatus: model.RefundStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Snapshot each SKU's price into a line item and reserve its stock.
	// The conditional decrement is the serialization point: the loser of a
	// last-unit race gets a plain insufficient-stock error.
	var total model.Cents
	items := make([]model.OrderItem, len(req.Items))
	for i, reqItem := range req.Items {
		var sku *model.Sku
		sku, err = s.stockRepo.GetSku(ctx, tx, reqItem.SkuID)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		if sku == nil {
			err = model.ErrSkuNotFound
			return nil, err
		}

		items[i] = model.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			SkuID:      sku.ID,
			ProductID:  sku.ProductID,
			Title:      sku.Title,
			PriceCents: sku.PriceCents,
			Quantity:   reqItem.Quantity,
		}
		total += sku.PriceCents * model.Cents(reqItem.Quantity)

		var ok bool
		ok, err = s.stockRepo.ConditionalDecrement(ctx, tx, sku.ID, reqItem.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		if !ok {
			s.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("sku_id", sku.ID).
				Int("quantity", reqItem.Quantity).
				Msg("insufficient stock")
			err = model.ErrInsufficientStock
			return nil, err
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Re-validate the coupon now that the total is known, apply the
	// discount and consume one quota slot. A quota lost to a concurrent
	// placement aborts the whole transaction, undoing the stock decrements
	// above.
	var couponID *uuid.UUID
	if coupon != nil {
		total, err = s.applyCoupon(ctx, tx, coupon, total)
		if err != nil {
			return nil, err
		}
		couponID = &coupon.ID
	}

	if err = s.orderRepo.SetTotal(ctx, tx, order.ID, total, couponID); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	order.TotalCents = total
	order.CouponID = couponID

	s.afterPlacement(order, items)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID).
		Int("item_count", len(items)).
		Str("total", total.String()).
		Msg("order placed")

	return &model.OrderResponse{Order: order, Items: items}, nil
}

// applyCoupon re-checks eligibility against the computed total, computes
// the discounted total and consumes one quota slot inside the placement
// transaction. Whether the minimum-amount rule sees the pre-discount or
// post-discount total is a configured policy.
func (s *orderService) applyCoupon(ctx context.Context, tx pgx.Tx, coupon *model.CouponCode, total model.Cents) (model.Cents, error) {
	now := time.Now()

	adjusted := coupon.AdjustedPrice(total)
	checked := total
	if s.orderCfg.MinAmountPolicy == config.MinAmountPostDiscount {
		checked = adjusted
	}
	if err := coupon.CheckEligible(now, &checked); err != nil {
		s.logger.Warn().
			Str("coupon_code", coupon.Code).
			Str("order_amount", checked.String()).
			Err(err).
			Msg("coupon not eligible for order amount")
		return 0, err
	}

	ok, err := s.couponRepo.ConditionalIncrement(ctx, tx, coupon.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to place order: %w", err)
	}
	if !ok {
		s.logger.Warn().Str("coupon_code", coupon.Code).Msg("coupon quota exhausted")
		return 0, model.ErrCouponExhausted
	}

	return adjusted, nil
}

// afterPlacement runs the post-commit, best-effort side effects: cart
// removal, event publishing and cancellation scheduling. None of them can
// undo the committed order.
func (s *orderService) afterPlacement(order *model.Order, items []model.OrderItem) {
	skuIDs := make([]string, len(items))
	for i, item := range items {
		skuIDs[i] = item.SkuID
	}

	if s.cart != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.cart.RemoveItems(ctx, order.UserID, skuIDs); err != nil {
				s.logger.Warn().
					Err(err).
					Str("order_id", order.ID.String()).
					Msg("failed to remove purchased items from cart")
			}
		}()
	}

	if s.events != nil {
		s.events.OrderPlaced(context.Background(), order, items)
	}

	if s.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.scheduler.Schedule(ctx, order.ID, s.orderCfg.TTL); err != nil {
			// The order stands; stuck pending orders are caught by an
			// external supervisory sweep.
			s.logger.Warn().
				Err(err).
				Str("order_id", order.ID.String()).
				Msg("failed to schedule deferred cancellation")
		}
	}
}

// GetByID retrieves an order by its ID with all items.
func (s *orderService) GetByID(ctx context.Context, userID string, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	return &model.OrderResponse{Order: order, Items: items}, nil
}

// MarkPaid records payment completion. The underlying update only applies
// while the order is unpaid and not closed, so a payment racing the
// cancellation task resolves to exactly one winner.
func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	ok, err := s.orderRepo.MarkPaid(ctx, orderID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if ok {
		s.logger.Info().Str("order_id", orderID.String()).Msg("order paid")
		return nil
	}

	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	switch {
	case order == nil:
		return model.ErrOrderNotFound
	case order.Closed:
		return model.ErrOrderClosed
	default:
		return model.ErrAlreadyPaid
	}
}

// MarkReceived confirms receipt of a delivered order.
func (s *orderService) MarkReceived(ctx context.Context, userID string, orderID uuid.UUID) (*model.Order, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order received: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	if order.ShipStatus != model.ShipStatusDelivered {
		return nil, model.ErrNotDelivered
	}

	ok, err := s.orderRepo.MarkReceived(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order received: %w", err)
	}
	if !ok {
		// Lost a race with a concurrent transition.
		return nil, model.ErrNotDelivered
	}

	order.ShipStatus = model.ShipStatusReceived
	s.logger.Info().Str("order_id", orderID.String()).Msg("order received")
	return order, nil
}

// ApplyRefund requests a refund on a paid order and stores the reason.
// Refund reversal of ledgers is a separate workflow; applying a refund
// never restocks.
func (s *orderService) ApplyRefund(ctx context.Context, userID string, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply refund: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	if !order.Paid() {
		return nil, model.ErrOrderUnpaid
	}
	if order.RefundStatus != model.RefundStatusPending {
		return nil, model.ErrRefundAlreadyOpen
	}

	ok, err := s.orderRepo.ApplyRefund(ctx, orderID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to apply refund: %w", err)
	}
	if !ok {
		return nil, model.ErrRefundAlreadyOpen
	}

	order.RefundStatus = model.RefundStatusApplied
	order.RefundReason = &reason
	s.logger.Info().Str("order_id", orderID.String()).Msg("refund applied")
	return order, nil
}

// SubmitReview sets per-item ratings and marks the order reviewed,
// atomically across all items.
func (s *orderService) SubmitReview(ctx context.Context, userID string, orderID uuid.UUID, reviews []model.ItemReview) error {
	if len(reviews) == 0 {
		return model.NewDomainError(model.ErrCodeValidation, "at least one item review is required")
	}
	for _, review := range reviews {
		if review.Rating < 1 || review.Rating > 5 {
			return model.NewDomainError(model.ErrCodeValidation, "rating must be between 1 and 5")
		}
	}

	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}
	if order == nil || order.UserID != userID {
		return model.ErrOrderNotFound
	}
	if !order.Paid() {
		return model.ErrOrderUnpaid
	}
	if order.Reviewed {
		return model.ErrAlreadyReviewed
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	for _, review := range reviews {
		var ok bool
		ok, err = s.orderRepo.SetItemReview(ctx, tx, orderID, review.ItemID, review.Rating, review.Review, now)
		if err != nil {
			return fmt.Errorf("failed to submit review: %w", err)
		}
		if !ok {
			err = model.NewDomainError(model.ErrCodeValidation, "review references an unknown or already-reviewed item")
			return err
		}
	}

	if err = s.orderRepo.MarkReviewed(ctx, tx, orderID); err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit review transaction")
		return fmt.Errorf("failed to submit review: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Int("item_count", len(reviews)).
		Msg("order reviewed")
	return nil
}

// CancelUnpaid closes a still-unpaid order and reverses its ledger
// effects, all in one transaction. The close-if-unpaid conditional update
// is the idempotency gate: a duplicate firing, or a firing that lost the
// race against payment, changes nothing.
func (s *orderService) CancelUnpaid(ctx context.Context, orderID uuid.UUID) error {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		s.logger.Warn().Str("order_id", orderID.String()).Msg("cancellation task for unknown order")
		return nil
	}
	if order.Paid() || order.Closed {
		return nil
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	closed, err := s.orderRepo.CloseIfUnpaid(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if !closed {
		// Payment or a duplicate task got here first.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return nil
	}

	for _, item := range items {
		if err = s.stockRepo.Increment(ctx, tx, item.SkuID, item.Quantity); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
	}

	if order.CouponID != nil {
		if err = s.couponRepo.Decrement(ctx, tx, *order.CouponID); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit cancellation")
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if s.events != nil {
		s.events.OrderCancelled(context.Background(), orderID)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Int("item_count", len(items)).
		Msg("unpaid order cancelled and ledgers released")
	return nil
}

// validatePlaceRequest validates the placement request.
func (s *orderService) validatePlaceRequest(userID string, req *model.PlaceOrderRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeValidation, "order request is nil")
	}
	if userID == "" {
		return model.NewDomainError(model.ErrCodeValidation, "acting user is required")
	}
	if req.AddressID == "" {
		return model.NewDomainError(model.ErrCodeValidation, "address ID is required")
	}
	if len(req.Items) == 0 {
		return model.NewDomainError(model.ErrCodeValidation, "order must contain at least one item")
	}

	for i, item := range req.Items {
		if item.SkuID == "" {
			return model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("item %d: SKU ID is required", i))
		}
		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Str("sku_id", item.SkuID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
