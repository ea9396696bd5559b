package payment

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 提供方注册表（构建后只读）
type Registry struct {
	providers map[string]Provider
	ids       []string
}

// NewRegistry 构建注册表，ID 为空或重复时报错
func NewRegistry(providers ...Provider) (*Registry, error) {
	items := make(map[string]Provider, len(providers))
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("%w: nil provider", ErrProviderInvalid)
		}
		id := strings.TrimSpace(p.Describe().ID)
		if id == "" {
			return nil, fmt.Errorf("%w: empty provider id", ErrProviderInvalid)
		}
		if _, exists := items[id]; exists {
			return nil, fmt.Errorf("%w: duplicate provider id %s", ErrProviderInvalid, id)
		}
		items[id] = p
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &Registry{providers: items, ids: ids}, nil
}

// GetProvider 获取提供方实现
func (r *Registry) GetProvider(id string) (Provider, error) {
	if r == nil {
		return nil, ErrProviderNotFound
	}
	p, ok := r.providers[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, id)
	}
	return p, nil
}

// HasProvider 判断提供方是否已注册
func (r *Registry) HasProvider(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.providers[strings.TrimSpace(id)]
	return ok
}

// ListProviders 返回已注册的提供方 ID（有序）
func (r *Registry) ListProviders() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Descriptors 返回全部提供方元信息
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.providers[id].Describe())
	}
	return out
}
