package protocol

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jovyanlabs/kernel-debug-sdk-go/internal/dap"
)

func reply(requestSeq int, success bool) *dap.Response {
	return &dap.Response{
		Type:       dap.TypeResponse,
		Seq:        100 + requestSeq,
		RequestSeq: requestSeq,
		Success:    success,
		Command:    "test",
	}
}

func TestCorrelator_SeqStrictlyIncreasing(t *testing.T) {
	c := NewCorrelator(slog.Default())

	seq1, _ := c.Track("dumpCell")
	seq2, _ := c.Track("setBreakpoints")
	seq3, _ := c.Track("configurationDone")

	require.Equal(t, 1, seq1)
	require.Equal(t, 2, seq2)
	require.Equal(t, 3, seq3)

	// Abandoning a request must not recycle its number.
	c.Discard(seq2)

	seq4, _ := c.Track("evaluate")
	require.Equal(t, 4, seq4)
}

func TestCorrelator_ResolveOutOfOrder(t *testing.T) {
	c := NewCorrelator(slog.Default())

	seqA, resultA := c.Track("stackTrace")
	seqB, resultB := c.Track("scopes")

	// The kernel answers the second request first.
	require.True(t, c.Resolve(reply(seqB, true)))
	require.True(t, c.Resolve(reply(seqA, true)))

	resB := <-resultB
	require.NoError(t, resB.Err)
	require.Equal(t, seqB, resB.Response.RequestSeq)

	resA := <-resultA
	require.NoError(t, resA.Err)
	require.Equal(t, seqA, resA.Response.RequestSeq)

	require.Zero(t, c.Pending())
}

func TestCorrelator_UnmatchedReplyDropped(t *testing.T) {
	c := NewCorrelator(slog.Default())

	seq, _ := c.Track("variables")

	require.False(t, c.Resolve(reply(999, true)), "unknown request_seq must not resolve")
	require.Equal(t, 1, c.Pending(), "the real pending entry must survive")

	require.True(t, c.Resolve(reply(seq, true)))
}

func TestCorrelator_ReplyResolvesExactlyOnce(t *testing.T) {
	c := NewCorrelator(slog.Default())

	seq, result := c.Track("evaluate")

	require.True(t, c.Resolve(reply(seq, false)))
	require.False(t, c.Resolve(reply(seq, false)), "a duplicate reply is stale")

	res := <-result
	require.NoError(t, res.Err)
	require.False(t, res.Response.Success, "success=false arrives as data, not an error")
}

func TestCorrelator_DiscardSafeAfterResolve(t *testing.T) {
	c := NewCorrelator(slog.Default())

	seq, result := c.Track("next")
	require.True(t, c.Resolve(reply(seq, true)))

	c.Discard(seq)
	c.Discard(12345)

	res := <-result
	require.NotNil(t, res.Response)
}

func TestCorrelator_FailAll(t *testing.T) {
	c := NewCorrelator(slog.Default())

	stopErr := errors.New("session stopped")

	_, result1 := c.Track("continue")
	seq2, result2 := c.Track("stackTrace")

	c.FailAll(stopErr)

	res1 := <-result1
	require.ErrorIs(t, res1.Err, stopErr)
	require.Nil(t, res1.Response)

	res2 := <-result2
	require.ErrorIs(t, res2.Err, stopErr)

	require.Zero(t, c.Pending())
	require.False(t, c.Resolve(reply(seq2, true)), "late replies after teardown are dropped")

	// The correlator stays usable: the session may still route, and seq
	// numbers keep increasing.
	seq3, _ := c.Track("disconnect")
	require.Equal(t, 3, seq3)
}

func TestCorrelator_FailAll_ConcurrentWithResolve(t *testing.T) {
	// Each waiter must get exactly one result whichever side wins.
	// Run with: go test -race -count=100
	for range 100 {
		c := NewCorrelator(slog.Default())

		const n = 8

		results := make([]<-chan Result, 0, n)
		seqs := make([]int, 0, n)

		for range n {
			seq, result := c.Track("test")
			seqs = append(seqs, seq)
			results = append(results, result)
		}

		var wg sync.WaitGroup

		wg.Go(func() {
			c.FailAll(errors.New("torn down"))
		})

		for _, seq := range seqs {
			wg.Go(func() {
				c.Resolve(reply(seq, true))
			})
		}

		wg.Wait()

		for _, result := range results {
			res := <-result
			require.True(t, (res.Response != nil) != (res.Err != nil),
				"exactly one of response or error must be set")

			select {
			case extra := <-result:
				t.Fatalf("waiter resolved twice: %+v", extra)
			default:
			}
		}
	}
}

func TestCorrelator_ConcurrentTrackUniqueSeqs(t *testing.T) {
	c := NewCorrelator(slog.Default())

	const n = 50

	var mu sync.Mutex

	seen := make(map[int]bool, n)

	var wg sync.WaitGroup

	for range n {
		wg.Go(func() {
			seq, _ := c.Track("test")

			mu.Lock()
			defer mu.Unlock()

			require.False(t, seen[seq], "sequence number allocated twice")
			seen[seq] = true
		})
	}

	wg.Wait()

	require.Len(t, seen, n)
	require.Equal(t, n, c.Pending())
}
