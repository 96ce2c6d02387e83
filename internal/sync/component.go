package sync

import (
	"context"
	stdsync "sync"

	"github.com/zetalabs/teliads/internal/component"
	"github.com/zetalabs/teliads/internal/credentials"
	"github.com/zetalabs/teliads/internal/facebook"
	"github.com/zetalabs/teliads/internal/logger"
	"github.com/zetalabs/teliads/internal/sheets"
)

// Component builds the sync service from the loaded credential store.
// It is registered after the credential store and before the HTTP server,
// so by the time the listener accepts traffic the service is wired.
type Component struct {
	store  *credentials.Store
	fbCfg  facebook.Config
	shCfg  sheets.Config
	log    *logger.Logger

	mu  stdsync.RWMutex
	svc *Service
}

// Ensure *Component satisfies component.Component at compile time.
var _ component.Component = (*Component)(nil)

// NewComponent creates the sync component.
func NewComponent(store *credentials.Store, fbCfg facebook.Config, shCfg sheets.Config, log *logger.Logger) *Component {
	return &Component{
		store: store,
		fbCfg: fbCfg,
		shCfg: shCfg,
		log:   log,
	}
}

// Name implements component.Component.
func (c *Component) Name() string { return "sync-service" }

// Start constructs the Graph API client and Sheets writer from the
// credential handles loaded by the store.
func (c *Component) Start(ctx context.Context) error {
	pk, err := credentials.PasskeysFrom(c.store)
	if err != nil {
		return err
	}

	fb, err := facebook.NewClient(c.fbCfg, pk, c.log)
	if err != nil {
		return err
	}

	saJSON, err := credentials.ServiceAccountJSON(c.store)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, c.shCfg, saJSON, c.log)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.svc = NewService(fb, writer, c.log)
	c.mu.Unlock()
	return nil
}

// Stop implements component.Component.
func (c *Component) Stop(ctx context.Context) error {
	return nil
}

// Health implements component.Component.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.Service() != nil {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusUnhealthy,
		Message: "sync service not initialized",
	}
}

// Service returns the wired sync service, or nil before Start.
func (c *Component) Service() *Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.svc
}
