/*
Package chunk implements the hand-off protocol between adjacent pipeline
stages.

A producer stage owns a Store that maps chunk ids to raw output buffers. Its
single consumer owns a Queue of pending signals and hands the producer that
queue as a Notifier. The exchange for one chunk is:

 1. the producer Puts the buffer under id in its store,
 2. the producer calls Notify(id) on the consumer's queue,
 3. the consumer goroutine wakes in Next, pops id, and calls Fetch(id) on
    the Mediator it obtained from the producer at assembly time,
 4. the mediator Takes the entry out of the store (exactly once) and
    converts it to the negotiated representation.

End of stream is an id for which no entry exists: Fetch reports ok=false.
Every stage forwards exactly one such id after its last real chunk.

# Representations

Stages advertise the Types they emit and accept. Negotiate picks the first
type in the consumer's preference list that the producer also emits:

	t, ok := chunk.Negotiate([]chunk.Type{chunk.Words, chunk.Bytes}, []chunk.Type{chunk.Bytes, chunk.Chars})
	// t == chunk.Bytes

Words and Chars views drop an odd trailing byte. AsBytes converts any
payload back to raw bytes.

# Stores

MemoryStore guards its map with one mutex. RedisStore keeps entries in Redis
and claims them with GETDEL, which lets large runs keep pending chunks out
of process memory:

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	stores := chunk.RedisStores(chunk.RedisConfig{Client: client, KeyPrefix: "chunkflow:" + runID})

# Failure

A producer that stops abnormally calls Fail on its consumer's queue. The
consumer forwards the failure to its own consumer and exits, so the chain
drains instead of leaving later stages waiting forever.
*/
package chunk
