package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zirng/backend/internal/cart"
	"zirng/backend/internal/domain"
	"zirng/backend/internal/store"
	"zirng/backend/internal/store/memory"
)

func testActor() domain.Actor {
	return domain.Actor{ID: "user-3", Username: "cashier", Name: "Omar Khalid", Role: domain.RoleCashier}
}

func newTestService(t *testing.T) (*Service, *memory.Store, context.Context) {
	t.Helper()

	st := memory.NewEmpty()
	st.AddProduct(domain.Product{ID: "prod-cola", Name: "Cola", Price: 1500, Category: "Beverages", Stock: 100})
	st.AddProduct(domain.Product{ID: "prod-choc", Name: "Chocolate", Price: 3000, Category: "Snacks", Stock: 40})
	st.AddProduct(domain.Product{ID: "prod-water", Name: "Water", Price: 500, Category: "Beverages", Stock: 200})

	svc := New(st, nil, time.Second)
	ctx := WithActor(context.Background(), testActor())
	return svc, st, ctx
}

func seedCustomer(t *testing.T, st *memory.Store, id string, balance int64) domain.Customer {
	t.Helper()

	created, err := st.CreateCustomer(context.Background(), domain.Customer{ID: id, Name: "Customer " + id, Balance: balance})
	if err != nil {
		t.Fatalf("seed customer %s: %v", id, err)
	}
	return *created
}

// splitCart builds a cart with subtotal 7500 and a 500 line discount, so the
// settled total is 7000.
func splitCart(t *testing.T, st *memory.Store) *cart.Cart {
	t.Helper()

	cola, err := st.GetProductByID(context.Background(), "prod-cola")
	if err != nil {
		t.Fatalf("get cola: %v", err)
	}
	choc, err := st.GetProductByID(context.Background(), "prod-choc")
	if err != nil {
		t.Fatalf("get chocolate: %v", err)
	}

	c := cart.New()
	c.AddProduct(*cola)
	c.SetQuantity(cola.ID, 3)
	c.AddProduct(*choc)
	c.SetDiscount(cola.ID, 500)

	totals := c.Totals()
	if totals.Subtotal != 7500 || totals.Discount != 500 || totals.Total != 7000 {
		t.Fatalf("unexpected cart totals: %+v", totals)
	}
	return c
}

func TestSettleCashWithChange(t *testing.T) {
	svc, st, ctx := newTestService(t)
	customer := seedCustomer(t, st, "cust-a", -5000)

	c := splitCart(t, st)
	c.BindCustomer(&customer)

	tx, err := svc.Settle(ctx, c, 10000, "", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Total != 7000 || tx.Paid != 10000 || tx.Change != 3000 || tx.Loan != 0 {
		t.Fatalf("unexpected settlement: total=%d paid=%d change=%d loan=%d", tx.Total, tx.Paid, tx.Change, tx.Loan)
	}
	if tx.CashierID != "user-3" || tx.CashierName != "Omar Khalid" {
		t.Fatalf("cashier identity not stamped: %+v", tx)
	}

	// Fully paid: a bound customer's balance must not move.
	after, err := st.GetCustomerByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if after.Balance != -5000 || after.TotalPurchases != 0 {
		t.Fatalf("balance mutated on cash sale: %+v", after)
	}
}

func TestSettleSplitPaymentRecordsLoan(t *testing.T) {
	svc, st, ctx := newTestService(t)
	customer := seedCustomer(t, st, "cust-b", 0)

	c := splitCart(t, st)
	c.BindCustomer(&customer)

	tx, err := svc.Settle(ctx, c, 5000, "partial", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Change != 0 || tx.Loan != 2000 {
		t.Fatalf("expected loan 2000 with no change, got change=%d loan=%d", tx.Change, tx.Loan)
	}
	if tx.CustomerID != customer.ID || tx.CustomerName != customer.Name {
		t.Fatalf("customer not stamped on transaction: %+v", tx)
	}

	after, err := st.GetCustomerByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if after.Balance != -2000 {
		t.Fatalf("expected balance -2000, got %d", after.Balance)
	}
	if after.TotalPurchases != 7000 {
		t.Fatalf("expected total purchases 7000, got %d", after.TotalPurchases)
	}
}

func TestSettleUnassignedLoanRejected(t *testing.T) {
	svc, st, ctx := newTestService(t)

	c := splitCart(t, st)

	_, err := svc.Settle(ctx, c, 5000, "", false)
	var unassigned *UnassignedLoanError
	if !errors.As(err, &unassigned) {
		t.Fatalf("expected UnassignedLoanError, got %v", err)
	}
	if unassigned.Loan != 2000 || unassigned.Total != 7000 {
		t.Fatalf("unexpected error payload: %+v", unassigned)
	}

	// Rejection happens before any mutation.
	transactions, err := st.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected empty log after rejection, got %d entries", len(transactions))
	}
}

func TestSettleUnassignedLoanOverride(t *testing.T) {
	svc, st, ctx := newTestService(t)

	c := splitCart(t, st)

	tx, err := svc.Settle(ctx, c, 5000, "walk-away", true)
	if err != nil {
		t.Fatalf("settle with override: %v", err)
	}
	if tx.Loan != 2000 || tx.CustomerID != "" {
		t.Fatalf("expected unassigned loan 2000, got loan=%d customer=%q", tx.Loan, tx.CustomerID)
	}
}

func TestSettleExactPayment(t *testing.T) {
	svc, st, ctx := newTestService(t)

	c := splitCart(t, st)

	tx, err := svc.Settle(ctx, c, 7000, "", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Change != 0 || tx.Loan != 0 {
		t.Fatalf("exact payment must carry neither change nor loan: %+v", tx)
	}
}

func TestSettleEmptyCartRejected(t *testing.T) {
	svc, _, ctx := newTestService(t)

	if _, err := svc.Settle(ctx, cart.New(), 1000, "", false); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	if _, err := svc.Settle(ctx, nil, 1000, "", false); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction for nil cart, got %v", err)
	}
}

func TestSettleUnknownCustomerLeavesNoTrace(t *testing.T) {
	svc, st, ctx := newTestService(t)

	c := splitCart(t, st)
	c.BindCustomer(&domain.Customer{ID: "cust-ghost", Name: "Ghost"})

	if _, err := svc.Settle(ctx, c, 5000, "", false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	transactions, err := st.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("failed settlement must not be logged, got %d entries", len(transactions))
	}
}

func TestSettleNegativePaymentBecomesFullLoan(t *testing.T) {
	svc, st, ctx := newTestService(t)
	customer := seedCustomer(t, st, "cust-c", 0)

	c := splitCart(t, st)
	c.BindCustomer(&customer)

	tx, err := svc.Settle(ctx, c, -100, "", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Paid != 0 || tx.Loan != 7000 || tx.Change != 0 {
		t.Fatalf("expected full loan, got paid=%d change=%d loan=%d", tx.Paid, tx.Change, tx.Loan)
	}
}

func TestSettleOverDiscountClampsAtZero(t *testing.T) {
	svc, st, ctx := newTestService(t)

	water, err := st.GetProductByID(ctx, "prod-water")
	if err != nil {
		t.Fatalf("get water: %v", err)
	}
	c := cart.New()
	c.AddProduct(*water)
	c.SetDiscount(water.ID, 2000)

	tx, err := svc.Settle(ctx, c, 0, "", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Total != 0 || tx.Change != 0 || tx.Loan != 0 {
		t.Fatalf("over-discounted cart must settle at zero: %+v", tx)
	}
}

func TestSettleConservation(t *testing.T) {
	for _, paid := range []int64{0, 1, 4999, 7000, 7001, 25000} {
		svc, st, ctx := newTestService(t)
		c := splitCart(t, st)

		tx, err := svc.Settle(ctx, c, paid, "", true)
		if err != nil {
			t.Fatalf("settle paid=%d: %v", paid, err)
		}
		if tx.Paid+tx.Loan != tx.Total+tx.Change {
			t.Fatalf("conservation violated for paid=%d: paid=%d change=%d total=%d loan=%d", paid, tx.Paid, tx.Change, tx.Total, tx.Loan)
		}
		if tx.Change > 0 && tx.Loan > 0 {
			t.Fatalf("change and loan cannot both be positive: %+v", tx)
		}
	}
}

func TestSettleSnapshotIsImmutable(t *testing.T) {
	svc, st, ctx := newTestService(t)

	c := splitCart(t, st)
	if _, err := svc.Settle(ctx, c, 7000, "", false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Mutating the cart after settlement must not reach the logged snapshot.
	c.SetQuantity("prod-cola", 99)
	c.Clear()

	transactions, err := st.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(transactions))
	}
	if got := transactions[0].Items[0].Quantity; got != 3 {
		t.Fatalf("snapshot quantity changed to %d", got)
	}
}

func TestSettleRequiresActor(t *testing.T) {
	svc, st, _ := newTestService(t)

	c := splitCart(t, st)
	if _, err := svc.Settle(context.Background(), c, 7000, "", false); err == nil {
		t.Fatal("expected error without actor in context")
	}
}

func TestLoanAccumulatesAcrossSettlements(t *testing.T) {
	svc, st, ctx := newTestService(t)
	customer := seedCustomer(t, st, "cust-d", -1000)

	for i := 0; i < 3; i++ {
		c := splitCart(t, st)
		c.BindCustomer(&customer)
		if _, err := svc.Settle(ctx, c, 5000, "", false); err != nil {
			t.Fatalf("settle %d: %v", i, err)
		}
	}

	after, err := st.GetCustomerByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if after.Balance != -7000 {
		t.Fatalf("expected balance -7000 after three loans, got %d", after.Balance)
	}
	if after.TotalPurchases != 21000 {
		t.Fatalf("expected total purchases 21000, got %d", after.TotalPurchases)
	}
}

func TestBuildCart(t *testing.T) {
	svc, st, ctx := newTestService(t)
	customer := seedCustomer(t, st, "cust-e", 0)

	c, err := svc.BuildCart(ctx, []domain.CheckoutLine{
		{ProductID: "prod-cola", Quantity: 3, Discount: 500},
		{ProductID: "prod-choc", Quantity: 1},
	}, customer.ID)
	if err != nil {
		t.Fatalf("build cart: %v", err)
	}

	totals := c.Totals()
	if totals.Total != 7000 {
		t.Fatalf("expected total 7000, got %d", totals.Total)
	}
	if bound := c.Customer(); bound == nil || bound.ID != customer.ID {
		t.Fatalf("customer not bound: %+v", bound)
	}
}

func TestBuildCartUnknownProduct(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.BuildCart(ctx, []domain.CheckoutLine{{ProductID: "prod-missing", Quantity: 1}}, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildCartUnknownCustomer(t *testing.T) {
	svc, _, ctx := newTestService(t)

	_, err := svc.BuildCart(ctx, []domain.CheckoutLine{{ProductID: "prod-cola", Quantity: 1}}, "cust-ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordTransfer(t *testing.T) {
	svc, st, ctx := newTestService(t)

	cashier := testActor()
	accountant := domain.Actor{ID: "user-2", Name: "Sara Ali", Role: domain.RoleAccountant}

	transfer, err := svc.RecordTransfer(ctx, cashier, accountant, 50000, domain.TransferCashierToAccountant)
	if err != nil {
		t.Fatalf("record transfer: %v", err)
	}
	if transfer.Amount != 50000 || transfer.FromUserID != cashier.ID || transfer.ToUserID != accountant.ID {
		t.Fatalf("unexpected transfer: %+v", transfer)
	}

	transfers, err := st.ListTransfers(ctx, 0)
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected one transfer in log, got %d", len(transfers))
	}
}

func TestRecordTransferRejectsNonPositiveAmount(t *testing.T) {
	svc, st, ctx := newTestService(t)

	from := domain.Actor{ID: "user-2", Name: "Sara Ali", Role: domain.RoleAccountant}
	to := domain.Actor{ID: "user-1", Name: "Ahmed Hassan", Role: domain.RoleManager}

	if _, err := svc.RecordTransfer(ctx, from, to, 50000, domain.TransferWithdrawal); err != nil {
		t.Fatalf("record withdrawal: %v", err)
	}
	for _, amount := range []int64{0, -10000} {
		if _, err := svc.RecordTransfer(ctx, from, to, amount, domain.TransferWithdrawal); !errors.Is(err, store.ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	transfers, err := st.ListTransfers(ctx, 0)
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("rejected transfers must not be logged, got %d entries", len(transfers))
	}
}

func TestRecordTransferRejectsUnknownKind(t *testing.T) {
	svc, _, ctx := newTestService(t)

	from := testActor()
	to := domain.Actor{ID: "user-2", Name: "Sara Ali"}
	if _, err := svc.RecordTransfer(ctx, from, to, 1000, "refund"); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestOutstandingLoans(t *testing.T) {
	svc, st, ctx := newTestService(t)
	seedCustomer(t, st, "cust-f", -25000)
	seedCustomer(t, st, "cust-g", 5000)
	seedCustomer(t, st, "cust-h", -10000)

	total, err := svc.OutstandingLoans(ctx)
	if err != nil {
		t.Fatalf("outstanding loans: %v", err)
	}
	if total != 35000 {
		t.Fatalf("expected 35000, got %d", total)
	}
}

func TestUpdateCustomerContactKeepsLedgerFields(t *testing.T) {
	svc, st, ctx := newTestService(t)
	seedCustomer(t, st, "cust-e", -12000)
	c := splitCart(t, st)
	customer, err := svc.GetCustomer(ctx, "cust-e")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	c.BindCustomer(&customer)
	if _, err := svc.Settle(ctx, c, 0, "", false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	updated, err := svc.UpdateCustomerContact(ctx, "cust-e", domain.CustomerUpdateRequest{
		Name:  "  Hana Karim ",
		Phone: "0750-555-0101",
		Email: "hana@example.test",
	})
	if err != nil {
		t.Fatalf("update contact: %v", err)
	}
	if updated.Name != "Hana Karim" || updated.Phone != "0750-555-0101" || updated.Email != "hana@example.test" {
		t.Fatalf("contact not applied: %+v", updated)
	}
	if updated.Balance != -19000 {
		t.Fatalf("balance must survive a contact edit, got %d", updated.Balance)
	}
	if updated.TotalPurchases != 7000 {
		t.Fatalf("total purchases must survive a contact edit, got %d", updated.TotalPurchases)
	}
}

func TestUpdateCustomerContactValidation(t *testing.T) {
	svc, st, ctx := newTestService(t)
	seedCustomer(t, st, "cust-e", 0)

	if _, err := svc.UpdateCustomerContact(ctx, "cust-e", domain.CustomerUpdateRequest{Name: "   "}); !errors.Is(err, store.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction for blank name, got %v", err)
	}
	if _, err := svc.UpdateCustomerContact(ctx, "cust-missing", domain.CustomerUpdateRequest{Name: "Hana"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown customer, got %v", err)
	}
}

type countingCache struct {
	stored []domain.Product
	gets   int
	sets   int
}

func (c *countingCache) Get(_ context.Context, _ string) ([]domain.Product, bool, error) {
	c.gets++
	if c.stored == nil {
		return nil, false, nil
	}
	return c.stored, true, nil
}

func (c *countingCache) Set(_ context.Context, _ string, products []domain.Product, _ time.Duration) error {
	c.sets++
	c.stored = products
	return nil
}

func TestListProductsUsesCache(t *testing.T) {
	st := memory.NewEmpty()
	st.AddProduct(domain.Product{ID: "prod-cola", Name: "Cola", Price: 1500})
	cc := &countingCache{}
	svc := New(st, cc, time.Second)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	second, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products again: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one product, got %d then %d", len(first), len(second))
	}
	if cc.sets != 1 || cc.gets != 2 {
		t.Fatalf("expected one fill and two lookups, got sets=%d gets=%d", cc.sets, cc.gets)
	}
}

func TestSettleStampsSyncedFromProbe(t *testing.T) {
	svc, st, ctx := newTestService(t)
	svc.SetConnectivityProbe(func() bool { return false })

	c := splitCart(t, st)
	tx, err := svc.Settle(ctx, c, 7000, "", false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.Synced {
		t.Fatal("expected synced=false while offline")
	}
}
