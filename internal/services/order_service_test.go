package services_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"permata/internal/apperrors"
	"permata/internal/models"
	"permata/internal/repositories"
	"permata/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	orders  *repositories.MockOrderRepository
	gems    *repositories.MockGemRepository
	cart    *repositories.MockCartRepository
	users   *repositories.MockUserRepository
	service *services.OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders: repositories.NewMockOrderRepository(),
		gems:   repositories.NewMockGemRepository(),
		cart:   repositories.NewMockCartRepository(),
		users:  repositories.NewMockUserRepository(),
	}
	f.service = services.NewOrderService(f.orders, f.gems, f.cart, f.users, nil)
	return f
}

func (f *orderFixture) seedGem(t *testing.T, name string, price float64, stock int, sellerID string) *models.Gem {
	t.Helper()
	gem := &models.Gem{
		Name:         name,
		HindiName:    name,
		Planet:       "Saturn",
		Color:        "Blue",
		Description:  "Test gem",
		Category:     "Sapphire",
		Price:        &price,
		Stock:        stock,
		Availability: stock > 0,
		SizeWeight:   2.5,
		SizeUnit:     models.SizeUnitCarat,
		Certification: "IGI",
		Origin:       "Sri Lanka",
		DeliveryDays: 5,
		HeroImage:    "hero.jpg",
		SellerID:     sellerID,
	}
	require.NoError(t, f.gems.Create(gem))
	return gem
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		Name:         "Asha Rao",
		Phone:        "9999999999",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
		Country:      "India",
	}
}

func placeRequest(lines ...services.OrderLine) services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		Items:           lines,
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentMethodCOD,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Neelam", 100, 5, "seller-1")

	// A cart line that should be cleared by the checkout.
	require.NoError(t, f.cart.Create(&models.CartItem{UserID: "buyer-1", GemID: gem.ID, Quantity: 2, Price: 100}))

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 2, Price: 100},
	))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 200.0, order.TotalPrice)
	assert.Equal(t, fmt.Sprintf("ORD-%d-001", time.Now().Year()), order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "seller-1", order.Items[0].SellerID)
	assert.Equal(t, 100.0, order.Items[0].Price)

	updated, err := f.gems.GetByID(gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.True(t, updated.Availability)

	items, err := f.cart.GetByUser("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, items, "cart should be cleared after checkout")
}

func TestPlaceOrder_SequentialOrderNumbers(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Panna", 50, 10, "seller-1")

	first, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 50},
	))
	require.NoError(t, err)
	second, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 50},
	))
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("ORD-%d-001", year), first.OrderNumber)
	assert.Equal(t, fmt.Sprintf("ORD-%d-002", year), second.OrderNumber)
}

func TestPlaceOrder_RollsBackOnPartialFailure(t *testing.T) {
	f := newOrderFixture()
	first := f.seedGem(t, "Manik", 100, 5, "seller-1")
	second := f.seedGem(t, "Moti", 80, 5, "seller-2")
	short := f.seedGem(t, "Pukhraj", 120, 1, "seller-1")

	_, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: first.ID, Quantity: 2, Price: 100},
		services.OrderLine{GemID: second.ID, Quantity: 1, Price: 80},
		services.OrderLine{GemID: short.ID, Quantity: 3, Price: 120},
	))
	require.Error(t, err)

	// Every decrement applied before the failing line must be undone.
	for _, gemID := range []string{first.ID, second.ID, short.ID} {
		gem, getErr := f.gems.GetByID(gemID)
		require.NoError(t, getErr)
		assert.Equalf(t, map[string]int{first.ID: 5, second.ID: 5, short.ID: 1}[gemID], gem.Stock,
			"stock for %s must be unchanged", gem.Name)
	}

	orders, count, err := f.orders.GetByUser("buyer-1", "", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, orders, "no partial order may be persisted")
}

func TestPlaceOrder_NoOversellUnderConcurrency(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Heera", 500, 5, "seller-1")

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(buyer int) {
			defer wg.Done()
			_, err := f.service.PlaceOrder(fmt.Sprintf("buyer-%d", buyer), placeRequest(
				services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 500},
			))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded, "exactly stock-many checkouts may succeed")

	final, err := f.gems.GetByID(gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Stock)
	assert.False(t, final.Availability)
}

func TestPlaceOrder_PriceImmutableAfterCheckout(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Gomed", 100, 5, "seller-1")

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 2, Price: 100},
	))
	require.NoError(t, err)

	// Raise the catalog price after the fact.
	current, err := f.gems.GetByID(gem.ID)
	require.NoError(t, err)
	newPrice := 250.0
	current.Price = &newPrice
	require.NoError(t, f.gems.Update(current))

	stored, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, stored.TotalPrice)
	assert.Equal(t, 100.0, stored.Items[0].Price)
}

func TestPlaceOrder_RejectsStalePrice(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Lehsunia", 100, 5, "seller-1")

	_, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 80},
	))
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)

	unchanged, getErr := f.gems.GetByID(gem.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 5, unchanged.Stock)
}

func TestPlaceOrder_MissingGem(t *testing.T) {
	f := newOrderFixture()

	_, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: "no-such-gem", Quantity: 1, Price: 10},
	))
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCancelOrder_RestoresStockExactly(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Moonga", 60, 5, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 3, Price: 60},
	))
	require.NoError(t, err)

	afterOrder, _ := f.gems.GetByID(gem.ID)
	require.Equal(t, 2, afterOrder.Stock)

	require.NoError(t, f.service.CancelOrder(order.ID, buyer, "changed my mind"))

	restored, err := f.gems.GetByID(gem.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Stock)

	cancelled, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// Cancelling again is rejected and does not touch stock a second time.
	err = f.service.CancelOrder(order.ID, buyer, "")
	var invalidState *apperrors.InvalidStateError
	require.ErrorAs(t, err, &invalidState)

	again, _ := f.gems.GetByID(gem.ID)
	assert.Equal(t, 5, again.Stock)
}

func TestCancelOrder_TerminalStateGuard(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Pitambari", 90, 4, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}
	seller := services.Principal{ID: "seller-1", Role: models.RoleSeller}

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 90},
	))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(order.ID, seller, models.OrderStatusShipped, "TRK1")
	require.NoError(t, err)

	err = f.service.CancelOrder(order.ID, buyer, "")
	var invalidState *apperrors.InvalidStateError
	require.ErrorAs(t, err, &invalidState)

	// No side effects: stock stays decremented, status stays shipped.
	gemAfter, _ := f.gems.GetByID(gem.ID)
	assert.Equal(t, 3, gemAfter.Stock)
	orderAfter, _ := f.orders.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusShipped, orderAfter.Status)
}

func TestCancelOrder_SkipsDeletedGem(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Sunela", 40, 3, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 40},
	))
	require.NoError(t, err)

	require.NoError(t, f.gems.Delete(gem.ID))

	require.NoError(t, f.service.CancelOrder(order.ID, buyer, ""))
	cancelled, _ := f.orders.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
}

func TestCancelOrder_Authorization(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Firoza", 30, 3, "seller-1")

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 30},
	))
	require.NoError(t, err)

	err = f.service.CancelOrder(order.ID, services.Principal{ID: "buyer-2", Role: models.RoleBuyer}, "")
	var authz *apperrors.AuthorizationError
	require.ErrorAs(t, err, &authz)

	// Admins may cancel on the buyer's behalf.
	require.NoError(t, f.service.CancelOrder(order.ID, services.Principal{ID: "admin-1", Role: models.RoleAdmin}, "fraud"))
}

func TestUpdateStatus_ShippedRequiresTracking(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Opal", 70, 3, "seller-1")
	seller := services.Principal{ID: "seller-1", Role: models.RoleSeller}

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 70},
	))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(order.ID, seller, models.OrderStatusShipped, "")
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)

	updated, err := f.service.UpdateStatus(order.ID, seller, models.OrderStatusShipped, "TRK42")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRK42", updated.TrackingNumber)
}

func TestUpdateStatus_AuthorizationAndLaxTransitions(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Tanzanite", 110, 3, "seller-1")

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 110},
	))
	require.NoError(t, err)

	// A seller without a line item in the order is rejected.
	_, err = f.service.UpdateStatus(order.ID, services.Principal{ID: "seller-2", Role: models.RoleSeller}, models.OrderStatusProcessing, "")
	var authz *apperrors.AuthorizationError
	require.ErrorAs(t, err, &authz)

	// Skipping intermediate states is accepted.
	updated, err := f.service.UpdateStatus(order.ID, services.Principal{ID: "seller-1", Role: models.RoleSeller}, models.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)

	// Unknown status is rejected.
	_, err = f.service.UpdateStatus(order.ID, services.Principal{ID: "seller-1", Role: models.RoleSeller}, "returned", "")
	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestOrderLifecycleScenario(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Neelam", 100, 3, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}
	seller := services.Principal{ID: "seller-1", Role: models.RoleSeller}

	order, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 2, Price: 100},
	))
	require.NoError(t, err)
	assert.Equal(t, 200.0, order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	afterFirst, _ := f.gems.GetByID(gem.ID)
	assert.Equal(t, 1, afterFirst.Stock)

	_, err = f.service.UpdateStatus(order.ID, seller, models.OrderStatusShipped, "TRK1")
	require.NoError(t, err)

	err = f.service.CancelOrder(order.ID, buyer, "")
	var invalidState *apperrors.InvalidStateError
	require.ErrorAs(t, err, &invalidState)

	// A fresh order takes the last unit and flips availability off.
	_, err = f.service.PlaceOrder("buyer-2", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 100},
	))
	require.NoError(t, err)
	drained, _ := f.gems.GetByID(gem.ID)
	assert.Equal(t, 0, drained.Stock)
	assert.False(t, drained.Availability)

	// And a third attempt is rejected on stock.
	_, err = f.service.PlaceOrder("buyer-3", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 100},
	))
	require.Error(t, err)
}

func TestListSellerOrders_FiltersToOwnItems(t *testing.T) {
	f := newOrderFixture()
	require.NoError(t, f.users.Create(&models.User{ID: "buyer-1", Username: "asha", Email: "asha@example.com", Password: "x", Role: models.RoleBuyer}))
	mine := f.seedGem(t, "Panna", 100, 5, "seller-1")
	other := f.seedGem(t, "Manik", 200, 5, "seller-2")

	_, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: mine.ID, Quantity: 2, Price: 100},
		services.OrderLine{GemID: other.ID, Quantity: 1, Price: 200},
	))
	require.NoError(t, err)

	views, err := f.service.ListSellerOrders("seller-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Items, 1, "seller must only see their own line items")
	assert.Equal(t, mine.ID, views[0].Items[0].GemID)
	assert.Equal(t, 200.0, views[0].Subtotal)
	assert.Equal(t, "asha", views[0].Buyer.Name)

	otherViews, err := f.service.ListSellerOrders("seller-2")
	require.NoError(t, err)
	require.Len(t, otherViews, 1)
	assert.Equal(t, 200.0, otherViews[0].Subtotal)
}

func TestListBuyerOrders_FilterAndOrdering(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Moti", 50, 10, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}

	first, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 1, Price: 50},
	))
	require.NoError(t, err)
	_, err = f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 2, Price: 50},
	))
	require.NoError(t, err)

	require.NoError(t, f.service.CancelOrder(first.ID, buyer, ""))

	all, count, err := f.service.ListBuyerOrders("buyer-1", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, all, 2)
	assert.Equal(t, 5, all[0].DeliveryDays)
	assert.Equal(t, all[0].CreatedAt.AddDate(0, 0, 5), all[0].ExpectedDelivery)

	cancelled, count, err := f.service.ListBuyerOrders("buyer-1", models.OrderStatusCancelled, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)
}

func TestStockConservation(t *testing.T) {
	f := newOrderFixture()
	gem := f.seedGem(t, "Aquamarine", 25, 10, "seller-1")
	buyer := services.Principal{ID: "buyer-1", Role: models.RoleBuyer}

	active := 0
	orderA, err := f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 3, Price: 25},
	))
	require.NoError(t, err)
	active += 3

	_, err = f.service.PlaceOrder("buyer-1", placeRequest(
		services.OrderLine{GemID: gem.ID, Quantity: 4, Price: 25},
	))
	require.NoError(t, err)
	active += 4

	current, _ := f.gems.GetByID(gem.ID)
	assert.Equal(t, 10-active, current.Stock)

	require.NoError(t, f.service.CancelOrder(orderA.ID, buyer, ""))
	active -= 3

	current, _ = f.gems.GetByID(gem.ID)
	assert.Equal(t, 10-active, current.Stock)
}
