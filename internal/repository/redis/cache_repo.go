package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/internal/domain"
	"github.com/DRSN-tech/inventory-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/clients"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const (
	dashboardSummaryKey        = "dashboard:summary"
	dashboardSummaryVersionKey = "dashboard:summary:ver"
)

// setIfVersionScript записывает значение, только если версия ключа не менялась с момента,
// когда читатель пошёл в БД. Отсутствующая версия считается нулевой.
var setIfVersionScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// CacheRepo кэширует карточки товаров и сводку дашборда. Кэш никогда не участвует
// в продаже: остатки для списания читаются только из БД.
//
// Каждое удаление увеличивает версию ключа, а запись проходит только при неизменной версии.
// Так читатель, взявший данные из БД до коммита продажи, не вернёт их в кэш после сброса.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает товар из кэша или e.ErrCacheMiss.
func (r *CacheRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := r.productKey(id)

	data, err := r.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.ErrCacheMiss
	}

	if model.ID != id {
		r.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", id, model.ID)
		if err := r.client.Client.Del(ctx, key).Err(); err != nil {
			r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, e.ErrCacheMiss
	}

	return converter.ToProduct(&model), nil
}

// ProductVersion возвращает текущую версию товара в кэше. Читается до похода в БД.
func (r *CacheRepo) ProductVersion(ctx context.Context, id int64) (int64, error) {
	return r.version(ctx, r.productVersionKey(id))
}

// SetProduct кладёт товар в кэш, если с версии version его никто не сбрасывал.
func (r *CacheRepo) SetProduct(ctx context.Context, product *domain.Product, version int64) error {
	data, err := json.Marshal(converter.ToProductRedisModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return r.setIfVersion(ctx, r.productKey(product.ID), r.productVersionKey(product.ID), data, version, r.cfg.ProductTTL)
}

// DeleteProducts удаляет товары из кэша по ID
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.productKey(id)
	}

	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range ids {
			pipe.Incr(ctx, r.productVersionKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *CacheRepo) GetDashboardSummary(ctx context.Context) (*usecase.DashboardSummary, error) {
	data, err := r.client.Client.Get(ctx, dashboardSummaryKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.DashboardSummaryRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.ErrCacheMiss
	}

	return converter.ToDashboardSummary(&model), nil
}

func (r *CacheRepo) DashboardSummaryVersion(ctx context.Context) (int64, error) {
	return r.version(ctx, dashboardSummaryVersionKey)
}

func (r *CacheRepo) SetDashboardSummary(ctx context.Context, summary *usecase.DashboardSummary, version int64) error {
	data, err := json.Marshal(converter.ToDashboardSummaryRedisModel(summary))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return r.setIfVersion(ctx, dashboardSummaryKey, dashboardSummaryVersionKey, data, version, r.cfg.SummaryTTL)
}

func (r *CacheRepo) DeleteDashboardSummary(ctx context.Context) error {
	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, dashboardSummaryVersionKey)
		pipe.Del(ctx, dashboardSummaryKey)
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *CacheRepo) version(ctx context.Context, key string) (int64, error) {
	v, err := r.client.Client.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return v, nil
}

func (r *CacheRepo) setIfVersion(ctx context.Context, key, versionKey string, data []byte, version int64, ttl time.Duration) error {
	stored, err := setIfVersionScript.Run(ctx, r.client.Client, []string{key, versionKey},
		data, strconv.FormatInt(version, 10), ttl.Milliseconds()).Int()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if stored == 0 {
		r.logger.Debugf("Skipped stale cache refill: key: %s, version: %d", key, version)
	}

	return nil
}

// productKey возвращает Redis-ключ для одного товара
func (r *CacheRepo) productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (r *CacheRepo) productVersionKey(id int64) string {
	return fmt.Sprintf("product:%d:ver", id)
}
