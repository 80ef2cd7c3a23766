/*
Package stage implements the stages of a chunk pipeline and the protocol
that connects them.

A chain is a Source, any number of transforms and a Sink. Every stage runs
on its own goroutine. A producer stores each chunk it emits in its own
chunk store and notifies its single consumer; the consumer wakes, pulls
that chunk through a mediator bound to the representation both sides
agreed on, and repeats. A chunk id with no stored entry is the end of the
stream: every stage forwards it once and exits.

# Connecting stages

	reader, _ := stage.NewReader(stage.Deps{ID: "READER"}, 4096)
	writer, _ := stage.NewWriter(stage.Deps{ID: "WRITER"}, 4096)

	if err := writer.SetProducer(reader); err != nil {
		// no representation in common
	}
	reader.SetInput(in)
	writer.SetOutput(out)

	go reader.Run(ctx)
	err := writer.Run(ctx)

SetProducer negotiates the representation by scanning the consumer's
accepted types in order and taking the first one the producer emits.

# Transforms

NewTransform turns a Transformer into a stage. The transformer sees each
payload in the negotiated representation and returns the bytes to emit
under the same id. Transformers that also implement Finisher get a call
once the stream has ended.

# Failure

A stage that stops abnormally forwards the failure to its consumer, which
stops too and returns an UpstreamError. A consumer that stops closes its
queue, so its producer fails on the next notification instead of working
for nobody. Cancelling the context ends every wait.
*/
package stage
