/*
Package config parses chain descriptors and stage configuration files.

Both use the same line grammar: one KEY=VALUE pair per line, split on a
single '='. Blank lines and lines starting with '#' are ignored.

A chain descriptor names the input and output files and the chain itself:

	INPUT=in.bin
	OUTPUT=out.bin
	CHAIN=READER->ROT->WRITER
	READER_NAME=reader
	READER_CONFIG=reader.cfg
	ROT_NAME=shift
	ROT_CONFIG=rot.cfg
	WRITER_NAME=writer
	WRITER_CONFIG=writer.cfg

The chain must start with READER and end with WRITER. Relative paths are
resolved against the descriptor's directory.

A stage configuration holds the tags of one stage, for example

	BUFFER_SIZE=4096

Stages pull the tags they need from Params and call Done, so a missing
tag, an unknown tag and a malformed line are all config grammar errors,
while values that break a domain rule are config semantic errors.
*/
package config
