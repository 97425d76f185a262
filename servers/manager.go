package servers

import (
	"context"

	"nabi/interfaces"

	"golang.org/x/sync/errgroup"
)

// Server は Manager が起動と停止を管理するサーバーです。
// Start は停止されるまでブロックします。
type Server interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// Manager holds and manages all the servers.
type Manager struct {
	servers []Server
	log     interfaces.Logger
}

// NewManager creates a new server manager.
func NewManager(log interfaces.Logger) *Manager {
	return &Manager{log: log}
}

// AddServer adds a new server to the manager.
func (m *Manager) AddServer(server Server) {
	m.servers = append(m.servers, server)
}

// Run は登録されたサーバーをすべて起動し、ctx が終了するといっせいに停止します。
// いずれかのサーバーが異常終了した場合はそのエラーを返します。
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range m.servers {
		g.Go(func() error {
			m.log.Info("サーバーを起動します", "name", s.Name())
			return s.Start()
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		m.StopAll(context.Background())
		return nil
	})
	return g.Wait()
}

// StopAll stops all registered servers.
func (m *Manager) StopAll(ctx context.Context) {
	for _, s := range m.servers {
		m.log.Info("サーバーを停止します", "name", s.Name())
		if err := s.Stop(ctx); err != nil {
			m.log.Error("サーバーの停止に失敗しました", "name", s.Name(), "error", err)
		}
	}
}
