// Package store persists captured interactions between CLI runs.
package store

import (
	"fmt"
	"strings"

	"github.com/s0up4200/calc-consumer/calculator"
)

// Store keeps captured interactions in insertion order.
type Store interface {
	Append(interaction calculator.Interaction) error
	List() ([]calculator.Interaction, error)
	Clear() error
	Close() error
}

// Backend names accepted by New
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
)

// New creates the configured storage backend.
func New(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Append(calculator.Interaction) error     { return nil }
func (noopStore) List() ([]calculator.Interaction, error) { return nil, nil }
func (noopStore) Clear() error                            { return nil }
func (noopStore) Close() error                            { return nil }
