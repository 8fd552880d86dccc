// Package valkey implements the scene store and user directory on Valkey.
// Every multi-key write runs as a Lua script so each store operation is
// atomic on the server.
package valkey

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"
)

type Options struct {
	Addrs    []string
	Password string
	DB       int
}

// Open builds a client and checks the server answers.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: opts.Addrs,
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach valkey: %w", err)
	}

	logger.Info("connected to Valkey", slog.String("component", "valkey"), slog.Any("addrs", opts.Addrs))
	return client, nil
}

// Keys of one project share the {id} hash tag so scripts touching them stay
// in a single cluster slot.
func projectKey(id string) string       { return "project:{" + id + "}" }
func objectsKey(id string) string       { return projectKey(id) + ":objects" }
func orderKey(id string) string         { return projectKey(id) + ":order" }
func sharedWithKey(id string) string    { return projectKey(id) + ":shared_with" }
func ownerProjectsKey(id string) string { return "owner:{" + id + "}:projects" }

const (
	usersByNameKey = "{users}:by_name"
	userKeyPrefix  = "{users}:user:"
)

func userKey(id string) string { return userKeyPrefix + id }
