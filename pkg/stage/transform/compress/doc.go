/*
Package compress provides per-chunk compression stages.

	zstd    compress each chunk into one zstd frame       LEVEL=fastest|default|better|best
	unzstd  decompress one zstd frame per chunk           (no tags)
	xz      compress each chunk into one xz stream        DICT_CAP=<bytes, >= 4096>
	unxz    decompress one xz stream per chunk            (no tags)

Compressed chunks are self-contained, so a sink writing them back to back
produces a valid multi-frame .zst or multi-stream .xz file. The
decompressing stages expect the chunk boundaries of a compressing stage
earlier in the same chain.
*/
package compress
