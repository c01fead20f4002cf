//go:build integration && stress

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queue-broker-service/internal/storage"
	"github.com/queue-broker-service/internal/storage/postgres"
	"github.com/queue-broker-service/internal/testutil"
)

// TestHighLoadClaiming races many concurrent claimers against a queue
// sized so demand outstrips supply, the shape a busy production queue
// takes during a backlog drain.
func TestHighLoadClaiming(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	pc := testutil.NewPostgresContainer(t)
	ctx := testutil.TestContext(t)
	clock := storage.SystemClock{}

	queues := postgres.NewQueueStore(pc.Pool, clock)
	messages := postgres.NewMessageStore(pc.Pool, clock)
	claims := postgres.NewClaimStore(pc.Pool, clock)

	t.Run("100 claimers against 1000 messages", func(t *testing.T) {
		require.NoError(t, pc.CleanTables(ctx))

		const project = "proj-stress"
		const queue = "stress-queue"
		const numMessages = 1000
		const numClaimers = 100
		const perClaimerLimit = 5
		const attemptsPerClaimer = 10

		_, err := queues.Create(ctx, project, queue)
		require.NoError(t, err)

		t.Logf("Posting %d messages...", numMessages)
		const batch = 100
		for posted := 0; posted < numMessages; posted += batch {
			specs := testutil.NewTestMessageSpecs(batch, 300)
			_, err := messages.Post(ctx, project, queue, specs, "")
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		var totalClaimed int32
		seen := make(map[string]bool)
		var mu sync.Mutex

		start := time.Now()
		t.Logf("Starting claim stress test...")

		wg.Add(numClaimers)
		for i := 0; i < numClaimers; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < attemptsPerClaimer; j++ {
					_, msgs, err := claims.Create(ctx, project, queue, 60, 30, perClaimerLimit)
					if err != nil || len(msgs) == 0 {
						continue
					}
					atomic.AddInt32(&totalClaimed, int32(len(msgs)))

					mu.Lock()
					for _, m := range msgs {
						if seen[m.ID] {
							t.Errorf("message %s claimed more than once", m.ID)
						}
						seen[m.ID] = true
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		elapsed := time.Since(start)

		t.Logf("Claimed %d messages in %v (%.2f claims/sec)",
			totalClaimed, elapsed, float64(totalClaimed)/elapsed.Seconds())

		assert.Len(t, seen, int(totalClaimed), "every claimed message is distinct")
		assert.LessOrEqual(t, int(totalClaimed), numMessages)
		assert.Less(t, elapsed.Seconds(), 60.0, "stress test should complete in under 60 seconds")
	})
}

// TestConcurrentClaimAndDelete races claimers against deleters acting on
// messages the same goroutines just claimed, exercising the claim/delete
// path under load without corrupting queue state.
func TestConcurrentClaimAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	pc := testutil.NewPostgresContainer(t)
	ctx := testutil.TestContext(t)
	clock := storage.SystemClock{}

	queues := postgres.NewQueueStore(pc.Pool, clock)
	messages := postgres.NewMessageStore(pc.Pool, clock)
	claims := postgres.NewClaimStore(pc.Pool, clock)

	t.Run("claim then delete concurrently", func(t *testing.T) {
		require.NoError(t, pc.CleanTables(ctx))

		const project = "proj-mixed"
		const queue = "mixed-queue"
		const numMessages = 500
		const numWorkers = 20

		_, err := queues.Create(ctx, project, queue)
		require.NoError(t, err)

		specs := testutil.NewTestMessageSpecs(numMessages, 300)
		_, err = messages.Post(ctx, project, queue, specs, "")
		require.NoError(t, err)

		var wg sync.WaitGroup
		var claimed, deleted int32

		wg.Add(numWorkers)
		for i := 0; i < numWorkers; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					claim, msgs, err := claims.Create(ctx, project, queue, 60, 30, 3)
					if err != nil || len(msgs) == 0 {
						continue
					}
					atomic.AddInt32(&claimed, int32(len(msgs)))

					for _, m := range msgs {
						if err := messages.Delete(ctx, project, queue, m.ID, claim.ID); err == nil {
							atomic.AddInt32(&deleted, 1)
						}
					}
				}
			}()
		}
		wg.Wait()

		t.Logf("Claimed: %d, Deleted: %d", claimed, deleted)
		assert.Equal(t, claimed, deleted, "every claimed message in this test is deleted by its claimer")
		assert.LessOrEqual(t, int(claimed), numMessages)
	})
}

// TestRaceDetector exercises concurrent reads and claim-touches against
// the same claim; run with -race to confirm the postgres driver holds no
// shared in-process state across goroutines (all synchronization is at
// the database, not in Go memory).
func TestRaceDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping race detector test in short mode")
	}

	pc := testutil.NewPostgresContainer(t)
	ctx := testutil.TestContext(t)
	clock := storage.SystemClock{}

	queues := postgres.NewQueueStore(pc.Pool, clock)
	messages := postgres.NewMessageStore(pc.Pool, clock)
	claims := postgres.NewClaimStore(pc.Pool, clock)

	t.Run("concurrent reads and touches", func(t *testing.T) {
		require.NoError(t, pc.CleanTables(ctx))

		const project = "proj-race-detector"
		const queue = "race-detector-queue"

		_, err := queues.Create(ctx, project, queue)
		require.NoError(t, err)

		specs := testutil.NewTestMessageSpecs(20, 300)
		_, err = messages.Post(ctx, project, queue, specs, "")
		require.NoError(t, err)

		claim, _, err := claims.Create(ctx, project, queue, 60, 30, 20)
		require.NoError(t, err)

		var wg sync.WaitGroup
		numGoroutines := 50

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func() {
				defer wg.Done()
				claims.Get(ctx, project, queue, claim.ID)
			}()
		}

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func() {
				defer wg.Done()
				claims.Touch(ctx, project, queue, claim.ID, 60)
			}()
		}

		wg.Wait()
		t.Log("No race conditions detected")
	})
}
