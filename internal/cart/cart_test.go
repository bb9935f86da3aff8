package cart

import (
	"testing"

	"zirng/backend/internal/domain"
)

func cola() domain.Product {
	return domain.Product{ID: "prod-cola", Name: "Cola", Price: 1500}
}

func chocolate() domain.Product {
	return domain.Product{ID: "prod-choc", Name: "Chocolate", Price: 3000}
}

func TestAddProductIncrementsExistingLine(t *testing.T) {
	c := New()
	c.AddProduct(cola())
	c.AddProduct(chocolate())
	c.AddProduct(cola())

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Product.ID != "prod-cola" || lines[0].Quantity != 2 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Quantity != 1 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.AddProduct(cola())

	c.SetQuantity("prod-cola", 5)
	if c.Lines()[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", c.Lines()[0].Quantity)
	}

	c.SetQuantity("prod-cola", 0)
	if !c.Empty() {
		t.Fatal("quantity zero must remove the line")
	}

	// Never creates a line for an id that is not in the cart.
	c.SetQuantity("prod-choc", 3)
	if !c.Empty() {
		t.Fatal("SetQuantity created a line out of nothing")
	}
}

func TestRemoveProductDropsWholeLine(t *testing.T) {
	c := New()
	c.AddProduct(cola())
	c.AddProduct(cola())
	c.AddProduct(chocolate())

	c.RemoveProduct("prod-cola")
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Product.ID != "prod-choc" {
		t.Fatalf("expected only chocolate to remain, got %+v", lines)
	}
}

func TestTotals(t *testing.T) {
	c := New()
	c.AddProduct(cola())
	c.SetQuantity("prod-cola", 3)
	c.AddProduct(chocolate())
	c.SetDiscount("prod-cola", 500)

	totals := c.Totals()
	if totals.Subtotal != 7500 {
		t.Fatalf("expected subtotal 7500, got %d", totals.Subtotal)
	}
	if totals.Discount != 500 {
		t.Fatalf("expected discount 500, got %d", totals.Discount)
	}
	if totals.Total != 7000 {
		t.Fatalf("expected total 7000, got %d", totals.Total)
	}
}

func TestTotalsClampAtZero(t *testing.T) {
	c := New()
	c.AddProduct(cola())
	c.SetDiscount("prod-cola", 5000)

	if total := c.Totals().Total; total != 0 {
		t.Fatalf("expected clamped total 0, got %d", total)
	}
}

func TestBindCustomerCopies(t *testing.T) {
	c := New()
	customer := domain.Customer{ID: "cust-1", Name: "Mohammed Ali", Balance: -25000}
	c.BindCustomer(&customer)

	customer.Balance = 0
	if bound := c.Customer(); bound.Balance != -25000 {
		t.Fatalf("bound customer shares memory with caller: %+v", bound)
	}

	c.BindCustomer(nil)
	if c.Customer() != nil {
		t.Fatal("expected nil after unbind")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.AddProduct(cola())
	c.BindCustomer(&domain.Customer{ID: "cust-1"})

	c.Clear()
	if !c.Empty() || c.Customer() != nil {
		t.Fatal("clear must empty lines and unbind the customer")
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	c := New()
	c.AddProduct(cola())

	lines := c.Lines()
	lines[0].Quantity = 99
	if c.Lines()[0].Quantity != 1 {
		t.Fatal("Lines exposed internal state")
	}
}
