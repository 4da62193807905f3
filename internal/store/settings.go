package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const keyExcludedCouriers = "excluded_couriers"

// ExcludedCouriers 获取快递员排除名单
func (s *Store) ExcludedCouriers(ctx context.Context) ([]string, error) {
	raw, err := s.GetConfig(ctx, keyExcludedCouriers)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("failed to decode excluded couriers: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// AddExcludedCourier 添加快递员到排除名单；空名称或重复（不区分大小写）时不变
func (s *Store) AddExcludedCourier(ctx context.Context, name string) ([]string, error) {
	names, err := s.ExcludedCouriers(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return names, nil
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return names, nil
		}
	}
	names = append(names, name)
	return names, s.saveExcludedCouriers(ctx, names)
}

// RemoveExcludedCourier 从排除名单移除（不区分大小写）
func (s *Store) RemoveExcludedCourier(ctx context.Context, name string) ([]string, error) {
	names, err := s.ExcludedCouriers(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.EqualFold(n, name) {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(names) {
		return names, nil
	}
	return kept, s.saveExcludedCouriers(ctx, kept)
}

func (s *Store) saveExcludedCouriers(ctx context.Context, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode excluded couriers: %w", err)
	}
	return s.SetConfig(ctx, keyExcludedCouriers, string(data))
}
