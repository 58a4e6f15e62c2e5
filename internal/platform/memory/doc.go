// Package memory implements every store interface over process memory.
// It backs unit tests of the selection and service layers and mirrors the
// SQL stores' semantics: filter deletes cascade to dealer associations, and
// missing references surface as the store package's not-found errors.
package memory
