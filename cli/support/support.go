// Package support wires the CLI commands to a running control plane.
package support

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"gitlab.com/mta-deploy/deployctl/cli/flag"
	"gitlab.com/mta-deploy/deployctl/clients"
	"gitlab.com/mta-deploy/deployctl/common"
	"gitlab.com/mta-deploy/deployctl/config"
	"gitlab.com/mta-deploy/deployctl/engine"
	"gitlab.com/mta-deploy/deployctl/process"
	"gitlab.com/mta-deploy/deployctl/storage"
)

// Dial connects to NATS and assembles the process action service.  The
// returned close function releases the connection.
func Dial(ctx context.Context) (*process.Service, func(), error) {
	cfg, err := config.GetEnvironment()
	if err != nil {
		return nil, nil, fmt.Errorf("read environment: %w", err)
	}
	url := flag.Value.Server
	if url == "" {
		url = cfg.NatsURL
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	if err := common.CheckVersion(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("check NATS version: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open jetstream: %w", err)
	}
	store, err := storage.NewNats(ctx, js, jetstream.FileStorage)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open operation storage: %w", err)
	}
	clientCache, err := clients.NewCache()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("create client cache: %w", err)
	}
	gateway := engine.NewNatsGateway(conn)
	svc := process.NewService(gateway, store, store, clientCache,
		process.NewClearErrorMessagesAction(store),
	)
	ab := process.NewAbortAction(gateway, store)
	ab.SetVariableDeadline = cfg.AbortSetVarDeadline
	ab.PollInterval = cfg.AbortPollInterval
	svc.Register(ab)
	return svc, conn.Close, nil
}
