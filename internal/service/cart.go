package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/utidosgames/storefront/internal/coins"
	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
)

const DefaultStoreName = "UTI dos Games"

type CartService struct {
	Repo          *repo.GormRepo
	Coins         *CoinService
	Pro           *ProService
	Events        events.Publisher
	WhatsAppPhone string
	StoreName     string
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func (s *CartService) AddToCart(ctx context.Context, item *models.CartItem) error {
	if item.ProductID == uuid.Nil {
		return fmt.Errorf("ID product must be not nil: %w", ErrValidation)
	}
	if item.Quantity == 0 {
		return fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	prod, err := s.Repo.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", item.ProductID, ErrNotFound)
		}
		return err
	}
	if !prod.Active {
		return fmt.Errorf("product %s: %w", item.ProductID, ErrNotFound)
	}

	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, item.UserID.String(), map[string]any{
		"type":       "cart_item_added",
		"user_id":    item.UserID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})
	return nil
}

func (s *CartService) DeleteOneFromCart(ctx context.Context, productID, userID uuid.UUID) (bool, *models.CartItem, error) {
	if productID == uuid.Nil {
		return false, nil, fmt.Errorf("ID product must be not nil: %w", ErrValidation)
	}

	deleted, item, err := s.Repo.DeleteOneFromCart(ctx, productID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, fmt.Errorf("product not found: %w", ErrNotFound)
	}
	return deleted, item, err
}

func (s *CartService) DeleteAllFromCart(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.DeleteAllFromCart(ctx, userID)
}

// price turns cart items into priced lines. Every product must be present in
// products and active.
func price(items []models.CartItem, products []models.Product, isPro bool) ([]transport.QuoteLine, int64, error) {
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]transport.QuoteLine, 0, len(items))
	var subtotal int64
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.Active {
			return nil, 0, fmt.Errorf("product %s is no longer available: %w", it.ProductID, ErrNotFound)
		}
		unit := p.PriceFor(isPro)
		line := unit * int64(it.Quantity)
		lines = append(lines, transport.QuoteLine{
			ProductID:      p.ID,
			Name:           p.Name,
			Platform:       p.Platform,
			Quantity:       it.Quantity,
			UnitPriceCents: unit,
			LineTotalCents: line,
			ProPrice:       unit < p.PriceCents,
		})
		subtotal += line
	}
	return lines, subtotal, nil
}

func productIDs(items []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// usableCoins caps the coins spent on an order at its subtotal.
func usableCoins(balance, subtotalCents int64) int64 {
	return min(balance, coins.CentsToCoins(subtotalCents))
}

// Quote prices the cart without changing anything.
func (s *CartService) Quote(ctx context.Context, userID uuid.UUID, useCoins bool) (*transport.Quote, error) {
	isPro, err := s.Pro.IsActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.Repo.GetProductsByIDs(ctx, productIDs(items))
	if err != nil {
		return nil, err
	}
	lines, subtotal, err := price(items, products, isPro)
	if err != nil {
		return nil, err
	}
	wallet, err := s.Repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	usable := usableCoins(wallet.Balance, subtotal)
	q := &transport.Quote{
		Lines:         lines,
		SubtotalCents: subtotal,
		CoinsBalance:  wallet.Balance,
		CoinsUsable:   usable,
		TotalCents:    subtotal,
		ProApplied:    isPro,
	}
	if useCoins {
		q.DiscountCents = coins.CoinsToCents(usable)
		q.TotalCents = subtotal - q.DiscountCents
	}
	q.Subtotal = coins.FormatReais(q.SubtotalCents)
	q.Total = coins.FormatReais(q.TotalCents)
	return q, nil
}

// Checkout turns the cart into an order handed off to the store over
// WhatsApp. Stock, coins and the cart change atomically.
func (s *CartService) Checkout(ctx context.Context, userID uuid.UUID, useCoins bool) (*transport.CheckoutResponse, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout", "user_id", userID)

	isPro, err := s.Pro.IsActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		items, err := tx.GetCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		products, err := tx.LockProducts(ctx, productIDs(items))
		if err != nil {
			return err
		}
		lines, subtotal, err := price(items, products, isPro)
		if err != nil {
			return err
		}

		var coinsUsed int64
		if useCoins {
			wallet, err := tx.GetWallet(ctx, userID)
			if err != nil {
				return err
			}
			coinsUsed = usableCoins(wallet.Balance, subtotal)
		}
		discount := coins.CoinsToCents(coinsUsed)

		order = models.Order{
			UserID:        userID,
			Status:        models.OrderStatusSentToWhatsApp,
			SubtotalCents: subtotal,
			DiscountCents: discount,
			TotalCents:    subtotal - discount,
			CoinsUsed:     coinsUsed,
			ProApplied:    isPro,
		}
		for _, ln := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:      ln.ProductID,
				Name:           ln.Name,
				Platform:       ln.Platform,
				Quantity:       ln.Quantity,
				UnitPriceCents: ln.UnitPriceCents,
				LineTotalCents: ln.LineTotalCents,
			})
		}
		if _, err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}

		for _, ln := range lines {
			if err := tx.DecrementStock(ctx, ln.ProductID, int(ln.Quantity)); err != nil {
				if errors.Is(err, repo.ErrOutOfStock) {
					return fmt.Errorf("%s: %w", ln.Name, ErrOutOfStock)
				}
				return err
			}
		}

		if coinsUsed > 0 {
			spend := &models.CoinTransaction{Kind: models.CoinKindSpend, Amount: -coinsUsed, Reason: "checkout", OrderID: &order.ID}
			if err := tx.ApplyCoins(ctx, userID, spend); err != nil {
				return err
			}
		}
		if earned := s.Coins.Cashback(order.TotalCents, isPro); earned > 0 {
			earn := &models.CoinTransaction{Kind: models.CoinKindEarn, Amount: earned, Reason: "cashback", OrderID: &order.ID}
			if err := tx.ApplyCoins(ctx, userID, earn); err != nil {
				return err
			}
			order.CoinsEarned = earned
		}

		order.WhatsAppURL = WhatsAppURL(s.WhatsAppPhone, OrderMessage(s.storeName(), &order))
		if err := tx.UpdateOrderHandoff(ctx, order.ID, order.WhatsAppURL, order.CoinsEarned); err != nil {
			return err
		}
		return tx.DeleteAllFromCart(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, repo.ErrInsufficientBalance) {
			return nil, ErrInsufficientCoins
		}
		if !errors.Is(err, ErrEmptyCart) && !errors.Is(err, ErrOutOfStock) && !errors.Is(err, ErrNotFound) {
			l.Error("checkout_error", "status", 500, "error", err)
		}
		return nil, err
	}

	l.Info("checkout_completed", "order_id", order.ID, "total_cents", order.TotalCents, "coins_used", order.CoinsUsed)
	publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":         "checkout_completed",
		"user_id":      userID,
		"order_id":     order.ID,
		"total_cents":  order.TotalCents,
		"coins_used":   order.CoinsUsed,
		"coins_earned": order.CoinsEarned,
		"pro_applied":  order.ProApplied,
	})
	return &transport.CheckoutResponse{Order: order, WhatsAppURL: order.WhatsAppURL}, nil
}

func (s *CartService) storeName() string {
	if s.StoreName == "" {
		return DefaultStoreName
	}
	return s.StoreName
}

func (s *CartService) Orders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	orders, err := s.Repo.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
