package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hanko-field/storefront/internal/catalog"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/config"
	pfirestore "github.com/hanko-field/storefront/internal/platform/firestore"
	"github.com/hanko-field/storefront/internal/platform/observability"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Products services.ProductService
	Reviews  services.ReviewService
	Cart     services.CartService
	Wishlist services.WishlistService
	Orders   services.OrderService
	Auth     services.AuthService
	Search   services.SearchService
}

// Dependencies lets callers override the infrastructure the container would otherwise build.
type Dependencies struct {
	Logger  *zap.Logger
	Store   persistence.Store
	Catalog catalog.Catalog
	Clock   func() time.Time
}

// Container wires the store, the remote catalogue and the services for runtime use.
type Container struct {
	Config   config.Config
	Store    persistence.Store
	Catalog  catalog.Catalog
	Tokens   *auth.Tokens
	Services Services

	closers []func(context.Context) error
}

// NewContainer constructs the runtime dependencies from cfg. Dependencies set in deps are
// used as-is and are not closed by the container.
func NewContainer(ctx context.Context, cfg config.Config, deps Dependencies) (*Container, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	c := &Container{Config: cfg}

	store := deps.Store
	if store == nil {
		built, closer, err := buildStore(cfg, clock)
		if err != nil {
			return nil, err
		}
		store = built
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}
	c.Store = store

	cat := deps.Catalog
	if cat == nil {
		built, err := buildCatalog(cfg)
		if err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		cat = built
	}
	c.Catalog = cat

	tokens, err := auth.NewTokens(cfg.Auth.TokenSecret,
		auth.WithTokenIssuer(cfg.Auth.TokenIssuer),
		auth.WithTokenTTL(cfg.Persistence.TokenTTL),
		auth.WithTokenClock(clock),
	)
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("build session tokens: %w", err)
	}
	c.Tokens = tokens

	svc, err := buildServices(cfg, store, cat, tokens, clock, logger)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	return c, nil
}

// Close releases clients the container created, in reverse order of creation.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Ping reports whether the persistence backend is reachable.
func (c *Container) Ping(ctx context.Context) error {
	if c == nil || c.Store == nil {
		return errors.New("container not initialised")
	}
	if pinger, ok := c.Store.(persistence.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Sweeper returns the store's expiry sweeper when the backend needs one.
func (c *Container) Sweeper() (persistence.Sweeper, bool) {
	if c == nil || c.Store == nil {
		return nil, false
	}
	sweeper, ok := c.Store.(persistence.Sweeper)
	return sweeper, ok
}

func buildStore(cfg config.Config, clock func() time.Time) (persistence.Store, func(context.Context) error, error) {
	switch cfg.Persistence.Backend {
	case config.BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := persistence.NewRedisStore(client, persistence.WithRedisPrefix(cfg.Persistence.KeyPrefix))
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("build redis store: %w", err)
		}
		return store, func(context.Context) error { return store.Close() }, nil
	case config.BackendFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore)
		store, err := persistence.NewFirestoreStore(provider,
			persistence.WithFirestoreCollection(cfg.Firestore.Collection),
			persistence.WithFirestoreClock(clock),
		)
		if err != nil {
			_ = provider.Close(context.Background())
			return nil, nil, fmt.Errorf("build firestore store: %w", err)
		}
		return store, provider.Close, nil
	case config.BackendMemory, "":
		return persistence.NewMemoryStore(persistence.WithMemoryClock(clock)), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported persistence backend %q", cfg.Persistence.Backend)
	}
}

func buildCatalog(cfg config.Config) (catalog.Catalog, error) {
	if cfg.Catalog.ProductURL == "" {
		fixture, err := catalog.LoadFixture(cfg.Catalog.FixtureFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog fixture: %w", err)
		}
		return fixture, nil
	}
	client, err := catalog.NewClient(catalog.Endpoints{
		Products: cfg.Catalog.ProductURL,
		Users:    cfg.Catalog.UserURL,
		Reviews:  cfg.Catalog.ReviewURL,
	}, catalog.WithTimeout(cfg.Catalog.Timeout))
	if err != nil {
		return nil, fmt.Errorf("build catalog client: %w", err)
	}
	return client, nil
}

func buildServices(cfg config.Config, store persistence.Store, cat catalog.Catalog, tokens *auth.Tokens, clock func() time.Time, logger *zap.Logger) (Services, error) {
	expiry := services.Expiry{State: cfg.Persistence.TTL, Session: cfg.Persistence.TokenTTL}
	locks := services.NewKeyLocks()
	events := observability.EventLogger(logger, "storefront event")

	reviews, err := services.NewReviewService(services.ReviewServiceDeps{
		Catalog: cat,
		Clock:   clock,
		Logger:  events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build review service: %w", err)
	}

	products, err := services.NewProductService(services.ProductServiceDeps{
		Catalog: cat,
		Reviews: reviews,
		Store:   store,
		Locks:   locks,
		Expiry:  expiry,
		Logger:  events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build product service: %w", err)
	}

	cart, err := services.NewCartService(services.CartServiceDeps{
		Store:    store,
		Products: products,
		Locks:    locks,
		Expiry:   expiry,
		Clock:    clock,
		Logger:   events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}

	wishlist, err := services.NewWishlistService(services.WishlistServiceDeps{
		Store:    store,
		Products: products,
		Locks:    locks,
		Expiry:   expiry,
		Logger:   events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build wishlist service: %w", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Store:  store,
		Locks:  locks,
		Expiry: expiry,
		Clock:  clock,
		Logger: events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}

	authSvc, err := services.NewAuthService(services.AuthServiceDeps{
		Catalog:     cat,
		Store:       store,
		Tokens:      tokens,
		AdminDomain: cfg.Auth.AdminDomain,
		Expiry:      expiry,
		Logger:      events,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build auth service: %w", err)
	}

	search, err := services.NewSearchService(services.SearchServiceDeps{
		Products: products,
		Clock:    clock,
		IdleTTL:  cfg.Persistence.TokenTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build search service: %w", err)
	}

	return Services{
		Products: products,
		Reviews:  reviews,
		Cart:     cart,
		Wishlist: wishlist,
		Orders:   orders,
		Auth:     authSvc,
		Search:   search,
	}, nil
}
