// AngelaMos | 2026
// repository.go

package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type Repository interface {
	Thread(ctx context.Context, userA, userB string) ([]Message, error)
	Create(ctx context.Context, m newMessage) (*Message, error)
}

type repository struct {
	backend store.Backend
}

func NewRepository(backend store.Backend) Repository {
	return &repository{backend: backend}
}

func (r *repository) Thread(
	ctx context.Context,
	userA, userB string,
) ([]Message, error) {
	var msgs []Message
	q := schema.MessagesThreadQuery(userA, userB)
	if err := r.backend.Select(ctx, q, &msgs); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

func (r *repository) Create(ctx context.Context, m newMessage) (*Message, error) {
	var created []Message
	if err := r.backend.Insert(ctx, schema.Messages, m, &created); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	if len(created) == 0 {
		return nil, errors.New("send message: backend returned no row")
	}
	return &created[0], nil
}
