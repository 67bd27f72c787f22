// internal/domain/tx.go
package domain

import "context"

// Transactor runs fn inside one store transaction. The transaction travels on
// the context handed to fn, so every repository call made with that context
// joins it. Nested calls reuse the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
