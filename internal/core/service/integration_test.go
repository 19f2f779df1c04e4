package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/bookstore/internal/adapter/storage"
	"github.com/rl1809/bookstore/internal/core/domain"
)

type testEnv struct {
	redis    *redis.Client
	mysql    *sql.DB
	sessions *storage.RedisAdapter
	db       *storage.MySQLAdapter
	cleanup  func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/bookstore?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		rdb.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		rdb.Close()
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	_, err = adapter.Migrate(context.Background())
	require.NoError(t, err)

	return &testEnv{
		redis:    rdb,
		mysql:    db,
		sessions: storage.NewRedisAdapter(rdb, time.Hour),
		db:       adapter,
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (e *testEnv) addBook(t *testing.T, price string, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	res, err := e.mysql.ExecContext(ctx,
		`INSERT INTO book (Title, Price, Stock) VALUES (?, ?, ?)`, "Integration "+uuid.NewString()[:8], price, stock)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	t.Cleanup(func() { e.mysql.ExecContext(ctx, `DELETE FROM book WHERE BookID = ?`, id) })
	return id
}

func TestIntegration_CheckoutFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	bookID := env.addBook(t, "9.99", 5)

	activities := NewActivityService(env.db, 100, 100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		activities.Work(0)
	}()

	auth := NewAuthService(env.db, env.sessions, "integration-secret", time.Hour)
	carts := NewCartService(env.sessions, env.db, activities)
	orders := NewOrderService(env.db, env.db, env.sessions, activities)
	payments := NewPaymentService(env.db, env.db, env.sessions, NewMockGateway(DefaultGatewayConfig()))

	email := fmt.Sprintf("it-%s@example.com", uuid.NewString())
	customer, err := auth.Register(ctx, RegisterInput{Name: "Integration", Email: email, Password: "s3cret-pass"})
	require.NoError(t, err)
	defer func() {
		env.mysql.ExecContext(ctx, `DELETE FROM UserActivity WHERE CustomerID = ?`, customer.ID)
		env.mysql.ExecContext(ctx, `DELETE FROM customer WHERE CustomerID = ?`, customer.ID)
	}()

	sid, err := env.sessions.CreateSession(ctx)
	require.NoError(t, err)
	defer env.redis.Del(ctx, "session:"+sid, "session:"+sid+":cart")

	_, err = auth.Login(ctx, sid, email, "s3cret-pass")
	require.NoError(t, err)
	principal, err := auth.ResolvePrincipal(ctx, "", sid)
	require.NoError(t, err)
	require.True(t, principal.IsAuthenticated())

	cart, err := carts.Add(ctx, principal, sid, bookID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, "19.98", cart.TotalAmount.StringFixed(2))

	order, err := orders.Create(ctx, principal, sid, CreateOrderInput{FromCart: true})
	require.NoError(t, err)
	defer func() {
		env.mysql.ExecContext(ctx, `DELETE FROM payment WHERE OrderID = ?`, order.ID)
		env.mysql.ExecContext(ctx, `DELETE FROM orderdetail WHERE OrderID = ?`, order.ID)
		env.mysql.ExecContext(ctx, `DELETE FROM orders WHERE OrderID = ?`, order.ID)
	}()
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "19.98", order.TotalAmount.StringFixed(2))

	cart, err = carts.Get(ctx, sid)
	require.NoError(t, err)
	assert.Zero(t, cart.TotalItems)

	// Concurrent charges: the lock and the completed-payment check let one through.
	var charged, rejected atomic.Int32
	var chargeWg sync.WaitGroup
	for i := 0; i < 10; i++ {
		chargeWg.Add(1)
		go func() {
			defer chargeWg.Done()
			_, err := payments.Charge(ctx, principal, ChargeInput{
				OrderID: order.ID,
				Method:  domain.PaymentMethodCreditCard,
				Card:    domain.CardDetails{Number: "4111111111111111", Holder: "Integration"},
			})
			switch {
			case err == nil:
				charged.Add(1)
			case errors.Is(err, domain.ErrConflict):
				rejected.Add(1)
			default:
				t.Errorf("unexpected charge error: %v", err)
			}
		}()
	}
	chargeWg.Wait()
	assert.EqualValues(t, 1, charged.Load())
	assert.EqualValues(t, 9, rejected.Load())

	payment, err := payments.StatusByOrder(ctx, principal, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)

	stored, err := orders.Get(ctx, principal, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, stored.Status)

	activities.Close()
	wg.Wait()

	var recorded int
	require.NoError(t, env.mysql.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM UserActivity WHERE CustomerID = ? AND BookID = ?`, customer.ID, bookID).Scan(&recorded))
	assert.GreaterOrEqual(t, recorded, 2, "cart and purchase activities")
}

func TestIntegration_StockIsNotReserved(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	bookID := env.addBook(t, "5.00", 1)
	orders := NewOrderService(env.db, env.db, env.sessions, &mockRecorder{})

	// Stock is checked at order time but never decremented.
	customerID := time.Now().UnixNano() % 1_000_000_000
	principal := domain.Authenticated(customerID)
	for i := 0; i < 2; i++ {
		order, err := orders.Create(ctx, principal, "", CreateOrderInput{
			Items: []domain.OrderItemInput{{BookID: bookID, Quantity: 1}},
		})
		require.NoError(t, err)
		env.mysql.ExecContext(ctx, `DELETE FROM orderdetail WHERE OrderID = ?`, order.ID)
		env.mysql.ExecContext(ctx, `DELETE FROM orders WHERE OrderID = ?`, order.ID)
	}

	book, err := env.db.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.Stock)
}
