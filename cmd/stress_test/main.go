// Command stress_test drives a running server with concurrent charges, carts
// and orders. Start the server with BOOKSTORE_RATE_LIMIT_ENABLED=false, the
// per-IP limiter otherwise rejects most of the load.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL  = "http://localhost:8080/api/v1"
	chargeAttempts  = 50
	parallelOrders  = 20
	anonymousUsers  = 100
	successCard     = "4111111111111111"
	requestTimeout  = 10 * time.Second
	customerPasswd  = "stress-test-pass"
	customerAddress = "1 Load Test Way"
)

type client struct {
	base  string
	http  *http.Client
	token string
}

func newClient(base string) *client {
	jar, _ := cookiejar.New(nil)
	return &client{base: base, http: &http.Client{Jar: jar, Timeout: requestTimeout}}
}

func (c *client) do(method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func main() {
	base := os.Getenv("BOOKSTORE_URL")
	if base == "" {
		base = defaultBaseURL
	}

	// Customer with a single pending order
	c := newClient(base)
	email := fmt.Sprintf("stress-%s@example.com", uuid.NewString())
	if status, err := c.do(http.MethodPost, "/auth/register/", map[string]string{
		"name": "Stress Test", "email": email, "password": customerPasswd, "address": customerAddress,
	}, nil); err != nil || status != http.StatusCreated {
		log.Fatalf("register: status %d: %v", status, err)
	}

	var login struct {
		AccessToken string `json:"access_token"`
	}
	if status, err := c.do(http.MethodPost, "/auth/login/", map[string]string{
		"email": email, "password": customerPasswd,
	}, &login); err != nil || status != http.StatusOK {
		log.Fatalf("login: status %d: %v", status, err)
	}
	c.token = login.AccessToken

	var page struct {
		Results []struct {
			BookID int64 `json:"book_id"`
			Stock  int   `json:"stock"`
		} `json:"results"`
	}
	if _, err := c.do(http.MethodGet, "/catalog/books/?limit=50", nil, &page); err != nil {
		log.Fatalf("list books: %v", err)
	}
	var bookID int64
	var stock int
	for _, b := range page.Results {
		if b.Stock > 0 {
			bookID, stock = b.BookID, b.Stock
			break
		}
	}
	if bookID == 0 {
		log.Fatal("no book in stock, seed the catalog first")
	}

	var order struct {
		OrderID     int64  `json:"order_id"`
		TotalAmount string `json:"total_amount"`
	}
	if status, err := c.do(http.MethodPost, "/orders/", map[string]any{
		"from_cart": false,
		"items":     []map[string]any{{"book_id": bookID, "quantity": 1}},
	}, &order); err != nil || status != http.StatusCreated {
		log.Fatalf("create order: status %d: %v", status, err)
	}

	// Concurrent charges against the same order
	var (
		chargeOK       atomic.Int32
		chargeRejected atomic.Int32
		chargeErrors   atomic.Int32
	)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < chargeAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status, err := c.do(http.MethodPost, "/payments/charge/", map[string]any{
				"order_id":       order.OrderID,
				"payment_method": "credit_card",
				"card_number":    successCard,
				"card_holder":    "Stress Test",
			}, nil)
			switch {
			case err != nil:
				chargeErrors.Add(1)
			case status == http.StatusOK:
				chargeOK.Add(1)
			default:
				chargeRejected.Add(1)
			}
		}()
	}
	wg.Wait()
	chargeElapsed := time.Since(start)

	// Anonymous shoppers filling their own carts
	var (
		cartOK  atomic.Int32
		cartBad atomic.Int32
	)
	start = time.Now()

	for i := 0; i < anonymousUsers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			shopper := newClient(base)
			var cart struct {
				TotalItems int `json:"total_items"`
			}
			status, err := shopper.do(http.MethodPost, "/cart/add/", map[string]any{"book_id": bookID, "quantity": 1}, nil)
			if err == nil && status == http.StatusOK {
				_, err = shopper.do(http.MethodGet, "/cart/", nil, &cart)
			}
			if err == nil && cart.TotalItems == 1 {
				cartOK.Add(1)
			} else {
				cartBad.Add(1)
			}
		}()
	}
	wg.Wait()
	cartElapsed := time.Since(start)

	// Parallel orders that each take the whole stock
	var ordersOK atomic.Int32
	start = time.Now()

	for i := 0; i < parallelOrders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status, err := c.do(http.MethodPost, "/orders/", map[string]any{
				"from_cart": false,
				"items":     []map[string]any{{"book_id": bookID, "quantity": stock}},
			}, nil)
			if err == nil && status == http.StatusCreated {
				ordersOK.Add(1)
			}
		}()
	}
	wg.Wait()
	ordersElapsed := time.Since(start)

	var payment struct {
		Status string `json:"status"`
	}
	c.do(http.MethodGet, fmt.Sprintf("/payments/order/%d/", order.OrderID), nil, &payment)

	var finalOrder struct {
		Status string `json:"status"`
	}
	c.do(http.MethodGet, fmt.Sprintf("/orders/%d/", order.OrderID), nil, &finalOrder)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Order:            %d (%s)\n", order.OrderID, order.TotalAmount)
	fmt.Printf("Charge Attempts:  %d\n", chargeAttempts)
	fmt.Printf("Charged:          %d\n", chargeOK.Load())
	fmt.Printf("Rejected:         %d\n", chargeRejected.Load())
	fmt.Printf("Errors:           %d\n", chargeErrors.Load())
	fmt.Printf("Charge Duration:  %v\n", chargeElapsed)
	fmt.Printf("Shoppers:         %d\n", anonymousUsers)
	fmt.Printf("Isolated Carts:   %d\n", cartOK.Load())
	fmt.Printf("Cart Duration:    %v\n", cartElapsed)
	fmt.Printf("Book Stock:       %d\n", stock)
	fmt.Printf("Full-Stock Orders: %d/%d\n", ordersOK.Load(), parallelOrders)
	fmt.Printf("Order Duration:   %v\n", ordersElapsed)
	fmt.Println("==========================================")

	if chargeOK.Load() == 1 && chargeRejected.Load() == chargeAttempts-1 {
		fmt.Println("PASS: Exactly 1 charge succeeded")
	} else {
		fmt.Printf("FAIL: Expected 1 charge and %d rejections, got %d/%d\n",
			chargeAttempts-1, chargeOK.Load(), chargeRejected.Load())
	}

	if payment.Status == "completed" && finalOrder.Status == "confirmed" {
		fmt.Println("PASS: Order confirmed with a completed payment")
	} else {
		fmt.Printf("FAIL: Expected completed/confirmed, got %q/%q\n", payment.Status, finalOrder.Status)
	}

	if n := ordersOK.Load(); n > 1 {
		fmt.Printf("NOTE: %d units ordered against stock %d (stock is not reserved)\n", int(n)*stock, stock)
	}

	if cartBad.Load() == 0 {
		fmt.Println("PASS: Every shopper saw only their own cart")
	} else {
		fmt.Printf("FAIL: %d shoppers saw a wrong cart\n", cartBad.Load())
	}
}
