package service

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
)

type cartFixture struct {
	repo  *repo.GormRepo
	cart  *CartService
	coins *CoinService
	pro   *ProService
	pub   *fakePublisher
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	r := newTestRepo(t)
	pub := &fakePublisher{}
	f := &cartFixture{
		repo:  r,
		coins: NewCoinService(r, pub, 2, 10),
		pro:   NewProService(r, pub),
		pub:   pub,
	}
	f.cart = &CartService{Repo: r, Coins: f.coins, Pro: f.pro, Events: pub, WhatsAppPhone: "+55 (11) 99999-0000"}
	return f
}

func (f *cartFixture) product(t *testing.T, name string, price int64, pro *int64, stock int) *models.Product {
	t.Helper()
	p, err := f.repo.CreateProduct(context.Background(), &models.Product{
		Name: name, Platform: "PS5", PriceCents: price, ProPriceCents: pro, Stock: stock, Active: true,
	})
	require.NoError(t, err)
	return p
}

func TestCart_AddValidation(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	err := f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)

	p := f.product(t, "Zelda", 1000, nil, 5)
	err = f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID})
	assert.ErrorIs(t, err, ErrValidation)

	err = f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.cart.DeleteOneFromCart(ctx, p.ID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCart_QuoteUsesProPrice(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	member := int64(17990)
	p := f.product(t, "Far Cry 6", 19990, &member, 5)
	require.NoError(t, f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 2}))

	q, err := f.cart.Quote(ctx, userID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(39980), q.SubtotalCents)
	assert.False(t, q.ProApplied)

	_, err = f.pro.Grant(ctx, uuid.New(), userID, models.ProPlanMonthly)
	require.NoError(t, err)

	q, err = f.cart.Quote(ctx, userID, false)
	require.NoError(t, err)
	assert.True(t, q.ProApplied)
	assert.Equal(t, int64(35980), q.SubtotalCents)
	assert.True(t, q.Lines[0].ProPrice)
	assert.Equal(t, "R$ 359,80", q.Subtotal)
}

func TestCart_CheckoutHandsOffToWhatsApp(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	p := f.product(t, "Far Cry 6", 19990, nil, 3)
	require.NoError(t, f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 2}))
	_, err := f.coins.Adjust(ctx, uuid.New(), userID, 1000, "welcome")
	require.NoError(t, err)

	q, err := f.cart.Quote(ctx, userID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.CoinsUsable)
	assert.Equal(t, int64(38980), q.TotalCents)

	res, err := f.cart.Checkout(ctx, userID, true)
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, models.OrderStatusSentToWhatsApp, o.Status)
	assert.Equal(t, int64(39980), o.SubtotalCents)
	assert.Equal(t, int64(1000), o.CoinsUsed)
	assert.Equal(t, int64(1000), o.DiscountCents)
	assert.Equal(t, int64(38980), o.TotalCents)
	assert.Equal(t, int64(779), o.CoinsEarned)

	require.True(t, strings.HasPrefix(res.WhatsAppURL, "https://wa.me/5511999990000?text="))
	assert.NotContains(t, res.WhatsAppURL, "+")
	u, err := url.Parse(res.WhatsAppURL)
	require.NoError(t, err)
	text := u.Query().Get("text")
	assert.Contains(t, text, o.ID.String())
	assert.Contains(t, text, "2x Far Cry 6 (PS5) - R$ 399,80")
	assert.Contains(t, text, "Total: R$ 389,80")

	bal, err := f.coins.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(779), bal.Balance)

	items, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)

	prod, err := f.repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prod.Stock)

	orders, err := f.cart.Orders(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.WhatsAppURL, orders[0].WhatsAppURL)

	assert.Contains(t, f.pub.types(), "checkout_completed")

	_, err = f.cart.Checkout(ctx, userID, false)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCart_CheckoutCoinsCappedAtSubtotal(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	p := f.product(t, "Indie", 500, nil, 1)
	require.NoError(t, f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 1}))
	_, err := f.coins.Adjust(ctx, uuid.New(), userID, 2000, "")
	require.NoError(t, err)

	res, err := f.cart.Checkout(ctx, userID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Order.CoinsUsed)
	assert.Zero(t, res.Order.TotalCents)
	assert.Zero(t, res.Order.CoinsEarned)

	bal, err := f.coins.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), bal.Balance)
}

func TestCart_CheckoutOutOfStockRollsBack(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	p := f.product(t, "Raro", 1000, nil, 1)
	require.NoError(t, f.cart.AddToCart(ctx, &models.CartItem{UserID: userID, ProductID: p.ID, Quantity: 2}))
	_, err := f.coins.Adjust(ctx, uuid.New(), userID, 100, "")
	require.NoError(t, err)

	_, err = f.cart.Checkout(ctx, userID, true)
	assert.ErrorIs(t, err, ErrOutOfStock)

	bal, err := f.coins.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Balance)

	items, err := f.cart.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	orders, err := f.cart.Orders(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+55 11 4002-8922", "Olá & até já")
	assert.Equal(t, "https://wa.me/551140028922?text=Ol%C3%A1%20%26%20at%C3%A9%20j%C3%A1", got)
}
