package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/learnhub/course-checkout/models"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLogger = zap.NewNop()

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Course{}, &models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.Enrollment{}))
	return db
}

func setupCartRepo(t *testing.T) repository.CartRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return repository.NewRedisCartRepository(client, time.Hour)
}

func seedCourse(t *testing.T, db *gorm.DB, title string, price int64, sale *int64) models.Course {
	t.Helper()
	c := models.Course{ID: uuid.New(), Title: title, Price: decimal.NewFromInt(price)}
	if sale != nil {
		c.SalePrice = decimal.NewNullDecimal(decimal.NewFromInt(*sale))
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func fillCart(t *testing.T, carts repository.CartRepository, userID string, courses ...models.Course) {
	t.Helper()
	_, err := carts.UpdateCart(context.Background(), userID, func(c *models.Cart) error {
		for _, course := range courses {
			c.Items = append(c.Items, models.CartItem{CourseID: course.ID, Quantity: 1})
		}
		return nil
	})
	require.NoError(t, err)
}

func int64Ptr(v int64) *int64 { return &v }

// ---- mock provider ----

type mockProvider struct {
	name        models.Provider
	validateErr error
	buildErr    error
	built       []*models.Order
}

func (m *mockProvider) Name() models.Provider { return m.name }
func (m *mockProvider) Validate() error       { return m.validateErr }
func (m *mockProvider) BuildPaymentRequest(_ context.Context, order *models.Order, _ providers.RequestMeta) (*providers.PaymentRequest, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	m.built = append(m.built, order)
	return &providers.PaymentRequest{
		RedirectURL:      "https://gateway.example.com/pay/" + order.ID.String(),
		GatewayRequestID: "req-" + order.ID.String(),
	}, nil
}
func (m *mockProvider) VerifyConfirmation(map[string]string) (*providers.VerifiedResult, error) {
	return nil, errors.New("not used")
}

// ---- mock publisher ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.PaymentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
