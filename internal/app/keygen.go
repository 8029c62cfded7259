package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Keygen creates and stores a new API key and prints it once.
func (a *App) Keygen(ctx context.Context, opts KeygenOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot store api keys")
	}
	if closeStore != nil {
		defer closeStore()
	}

	key := uuid.NewString()
	if err := store.InsertAPIKey(ctx, key, opts.Label); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "api key created (label %q):\n%s\n", opts.Label, key)
	return nil
}
