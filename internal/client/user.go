package client

import (
	"context"
	"sync"

	"fleet_tracker/internal/models"
)

// UserProvider hands out the signed-in user, loading it once and again
// only when asked to refresh.
type UserProvider struct {
	api *Client

	mu   sync.Mutex
	user *models.User
}

func NewUserProvider(api *Client) *UserProvider {
	return &UserProvider{api: api}
}

func (p *UserProvider) GetUser(ctx context.Context) (*models.User, error) {
	p.mu.Lock()
	user := p.user
	p.mu.Unlock()
	if user != nil {
		return user, nil
	}
	return p.RefreshUser(ctx)
}

func (p *UserProvider) RefreshUser(ctx context.Context) (*models.User, error) {
	user, err := p.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
	return user, nil
}

// Set stores a user obtained elsewhere, such as the sign-in reply.
func (p *UserProvider) Set(user *models.User) {
	p.mu.Lock()
	p.user = user
	p.mu.Unlock()
}
