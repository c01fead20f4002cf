// Package redis is an optional secondary storage.Driver for queue node
// deployments: Queue, Message and Claim backed by Redis sorted sets and
// hashes instead of PostgreSQL. It does not implement Catalogue or
// Partition — those stay on the proxy's postgres driver.
package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/queue-broker-service/internal/storage"
)

// NewClient parses redisURL and verifies connectivity, the way the rest
// of the example pack wires up a redis.Client.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewDriver wires the Queue/Message/Claim capabilities to client.
func NewDriver(client *redis.Client, clock storage.Clock) storage.Driver {
	qs := &QueueStore{client: client, clock: clock}
	ms := &MessageStore{client: client, clock: clock}
	cs := &ClaimStore{client: client, clock: clock}
	return storage.Driver{Queue: qs, Message: ms, Claim: cs}
}

func queueMetaKey(project, name string) string    { return "q:" + project + ":" + name }
func queueSetKey(project string) string           { return "queues:" + project }
func messagesZKey(project, queue string) string   { return "msgs:" + project + ":" + queue }
func messageKey(project, queue, id string) string { return "m:" + project + ":" + queue + ":" + id }
func claimKey(project, queue, id string) string   { return "c:" + project + ":" + queue + ":" + id }

// isWellFormedClaimID reports whether id has the shape of a claim id
// this driver issues. Claim ids are UUIDs; anything else is a malformed
// token rather than a reference to some other, stale claim.
func isWellFormedClaimID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
