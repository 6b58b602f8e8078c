package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/verident/registry/pkg/common/config"
	"github.com/verident/registry/pkg/common/logger"
	"gorm.io/gorm"
)

// ErrUnavailable is returned for operations issued while the connector is
// not in the Connected state. Callers fail fast instead of queueing.
var ErrUnavailable = errors.New("database unavailable")

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type OpenFunc func(uri string) (*gorm.DB, error)

type PingFunc func(ctx context.Context, db *gorm.DB) error

// Connector owns the one logical database connection for the process
// lifetime. A failed connect attempt is retried on a fixed interval,
// forever; a dropped connection detected by the ping watcher re-enters the
// same retry loop.
type Connector struct {
	uri            string
	connectTimeout time.Duration
	retryInterval  time.Duration
	pingInterval   time.Duration

	open OpenFunc
	ping PingFunc

	mu        sync.RWMutex
	state     State
	db        *gorm.DB
	onConnect []func(*gorm.DB) error

	stop     chan struct{}
	stopOnce sync.Once
}

func NewConnector(cfg *config.Config) *Connector {
	return &Connector{
		uri:            cfg.DatabaseURI,
		connectTimeout: cfg.ConnectTimeout,
		retryInterval:  cfg.RetryInterval,
		pingInterval:   cfg.PingInterval,
		open:           openPostgres,
		ping:           pingDatabase,
		stop:           make(chan struct{}),
	}
}

// OnConnect registers a hook that runs after every successful (re)connect.
// Migrations are registered here so they re-apply on reconnection.
func (c *Connector) OnConnect(fn func(*gorm.DB) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// Start launches the connect loop in the background and returns
// immediately. Requests arriving before the first successful connect fail
// with ErrUnavailable.
func (c *Connector) Start() {
	go c.connectLoop()
}

func (c *Connector) connectLoop() {
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.setState(StateConnecting, nil)

		db, err := c.tryConnect()
		if err == nil {
			c.setState(StateConnected, db)
			logger.Log.Info("Connected to database")
			c.runHooks(db)
			if c.pingInterval > 0 {
				go c.watch(db)
			}
			return
		}

		logger.Log.WithError(err).Error("Database connection error")
		logger.Log.WithField("retry_in", c.retryInterval.String()).Info("Retrying database connection")

		select {
		case <-c.stop:
			return
		case <-time.After(c.retryInterval):
		}
	}
}

func (c *Connector) tryConnect() (*gorm.DB, error) {
	db, err := c.open(c.uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()

	if err := c.ping(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// watch pings the live connection on an interval. A failed ping marks the
// connector disconnected and re-enters the connect loop.
func (c *Connector) watch(db *gorm.DB) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
			err := c.ping(ctx, db)
			cancel()
			if err == nil {
				continue
			}

			logger.Log.WithError(err).Error("Database connection error")
			logger.Log.Info("Database disconnected, attempting to reconnect")
			c.setState(StateDisconnected, nil)
			go c.connectLoop()
			return
		}
	}
}

func (c *Connector) runHooks(db *gorm.DB) {
	c.mu.RLock()
	hooks := make([]func(*gorm.DB) error, len(c.onConnect))
	copy(hooks, c.onConnect)
	c.mu.RUnlock()

	for _, fn := range hooks {
		if err := fn(db); err != nil {
			logger.Log.WithError(err).Error("Post-connect hook failed")
		}
	}
}

func (c *Connector) setState(state State, db *gorm.DB) {
	c.mu.Lock()
	c.state = state
	c.db = db
	c.mu.Unlock()
}

func (c *Connector) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// DB returns the live handle, or ErrUnavailable while not connected.
func (c *Connector) DB() (*gorm.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateConnected || c.db == nil {
		return nil, ErrUnavailable
	}
	return c.db, nil
}

func (c *Connector) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	db := c.db
	c.db = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
