// Package process bridges external programs into pipelines. A spawned
// program's stdout becomes a byte stream, structured input is serialized
// onto its stdin, and its exit status travels in the stream's trailer.
package process
