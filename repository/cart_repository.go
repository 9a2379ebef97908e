package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/course-checkout/models"
	"github.com/redis/go-redis/v9"
)

const maxCartTxRetries = 5

var ErrCartContention = errors.New("cart is being modified concurrently")

type CartRepository interface {
	// GetCart returns nil, nil when the user has no cart.
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// UpdateCart applies fn to the user's cart (created empty if absent) and
	// stores the result atomically. A cart left with no items is deleted.
	UpdateCart(ctx context.Context, userID string, fn func(cart *models.Cart) error) (*models.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
}

type redisCartRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &redisCartRepo{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *redisCartRepo) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return loadCart(ctx, r.client, cartKey(userID))
}

func (r *redisCartRepo) UpdateCart(ctx context.Context, userID string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	key := cartKey(userID)
	var updated *models.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := loadCart(ctx, tx, key)
		if err != nil {
			return err
		}
		if cart == nil {
			cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(cart.Items) == 0 {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, r.ttl)
			}
			return nil
		})
		updated = cart
		return err
	}

	for i := 0; i < maxCartTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrCartContention
}

func (r *redisCartRepo) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}

func loadCart(ctx context.Context, c redis.Cmdable, key string) (*models.Cart, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("corrupt cart %s: %w", key, err)
	}
	return &cart, nil
}
