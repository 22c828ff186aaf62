package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/quasilyte/gdata"
)

// GdataStore keeps each value as one gdata item in the per-user application
// data directory.
type GdataStore struct {
	m *gdata.Manager
}

func OpenGdata(appName string) (*GdataStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open gdata: %w", err)
	}
	return &GdataStore{m: m}, nil
}

var itemKeyEscaper = strings.NewReplacer("/", "_", "\\", "_", ".", "_", ":", "_")

func itemKey(k Key) string {
	key := fmt.Sprintf("%s.%s", k.Region, itemKeyEscaper.Replace(k.RegionKey))
	if k.UserID != "" {
		key += "." + itemKeyEscaper.Replace(k.UserID)
	}
	return key
}

func (s *GdataStore) Load(ctx context.Context, keys []Key) ([]Value, error) {
	values := make([]Value, 0, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.m.LoadItem(itemKey(k))
		if err != nil {
			// gdata reports a missing item as an error.
			log.Printf("[storage] no item for %s: %v", itemKey(k), err)
			values = append(values, Value{Key: k})
			continue
		}
		if len(data) == 0 {
			values = append(values, Value{Key: k})
			continue
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", itemKey(k), err)
		}
		values = append(values, Value{Key: k, Data: v})
	}
	return values, nil
}

func (s *GdataStore) Save(ctx context.Context, values []Value) error {
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(v.Data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", itemKey(v.Key), err)
		}
		if err := s.m.SaveItem(itemKey(v.Key), data); err != nil {
			return fmt.Errorf("save %s: %w", itemKey(v.Key), err)
		}
	}
	return nil
}

func (s *GdataStore) Close() error {
	return nil
}

var _ Store = (*GdataStore)(nil)
