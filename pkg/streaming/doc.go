/*
Package streaming holds the data plumbing between pipeline stages.

  - chunk: numbered chunks, their Bytes, Words and Chars representations,
    the stores a producer keeps them in and the queues a consumer is
    notified through
  - writer: a buffered writer that cuts an arbitrary byte stream into
    fixed-size blocks

Stages never share buffers. A producer puts each chunk in its own store
and notifies the consumer's queue with the chunk's id; the consumer claims
the chunk through a mediator, which removes it from the store and converts
it to the negotiated representation.
*/
package streaming
