package idmap

import "sync"

// CollaboratorCache remembers which destination users already have push access to a
// repository during the current run.
type CollaboratorCache struct {
	mu    sync.Mutex
	repos map[string]map[string]struct{}
}

func NewCollaboratorCache() *CollaboratorCache {
	return &CollaboratorCache{repos: make(map[string]map[string]struct{})}
}

func (c *CollaboratorCache) Has(repo, user string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.repos[repo][user]
	return ok
}

func (c *CollaboratorCache) Add(repo, user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	users, ok := c.repos[repo]
	if !ok {
		users = make(map[string]struct{})
		c.repos[repo] = users
	}
	users[user] = struct{}{}
}
