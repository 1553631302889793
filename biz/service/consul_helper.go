package service

import (
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper wraps service registration and the refresh lock.
type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelperWithAddrs returns a helper for the first address whose agent answers.
func NewConsulHelperWithAddrs(addrs []string) (*ConsulHelper, error) {
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		cli, err := api.NewClient(cfg)
		if err == nil {
			_, errPing := cli.Agent().Self()
			if errPing == nil {
				return &ConsulHelper{client: cli}, nil
			}
			lastErr = errPing
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// Register announces the HTTP service with a TCP health check.
func (c *ConsulHelper) Register(serviceID, name, host string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    name,
		Address: host,
		Port:    port,
		Tags:    []string{"ledger"},
		Check: &api.AgentServiceCheck{
			TCP:                            fmt.Sprintf("%s:%d", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	return c.client.Agent().ServiceRegister(reg)
}

func (c *ConsulHelper) Deregister(serviceID string) error {
	return c.client.Agent().ServiceDeregister(serviceID)
}

// TryLock makes one attempt at the lock under key. It returns a nil unlock func when another replica
// holds it.
func (c *ConsulHelper) TryLock(key string) (func() error, error) {
	lock, err := c.client.LockOpts(&api.LockOptions{
		Key:          key,
		LockTryOnce:  true,
		LockWaitTime: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	leaderCh, err := lock.Lock(nil)
	if err != nil {
		return nil, err
	}
	if leaderCh == nil {
		return nil, nil
	}
	return lock.Unlock, nil
}

func (c *ConsulHelper) Client() *api.Client {
	return c.client
}
