package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/execgate/pkg/db"
	"github.com/doodlesbykumbi/execgate/pkg/identity"
	"github.com/doodlesbykumbi/execgate/pkg/metrics"
	"github.com/doodlesbykumbi/execgate/pkg/policy"
	"github.com/doodlesbykumbi/execgate/pkg/request"
	gormstore "github.com/doodlesbykumbi/execgate/pkg/store/gorm"
)

// services bundles the components every request command needs.
type services struct {
	principals  *gormstore.PrincipalStore
	connections *gormstore.ConnectionStore
	requests    *gormstore.RequestStore
	evaluator   *policy.Evaluator
	requestSvc  *request.Service
	metrics     *metrics.Metrics
}

func connect() (*gorm.DB, error) {
	return db.Connect(db.Config{
		URL:   cfg.DatabaseURL,
		Debug: cfg.LogLevel == "debug",
	})
}

func newServices() (*services, error) {
	database, err := connect()
	if err != nil {
		return nil, err
	}

	s := &services{
		principals:  gormstore.NewPrincipalStore(database),
		connections: gormstore.NewConnectionStore(database),
		requests:    gormstore.NewRequestStore(database),
		metrics:     metrics.New(),
	}
	s.evaluator = policy.NewEvaluator(s.principals, logger).WithMetrics(s.metrics)
	s.requestSvc = request.NewService(s.requests, s.connections, s.evaluator, logger).WithMetrics(s.metrics)
	return s, nil
}

// asPrincipal attaches the --as principal to ctx.
func asPrincipal(ctx context.Context, principalID string) (context.Context, error) {
	if principalID == "" {
		return nil, fmt.Errorf("--as is required")
	}
	return identity.Set(ctx, identity.New(principalID).WithSource("gatectl")), nil
}
