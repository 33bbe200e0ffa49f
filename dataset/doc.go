// Package dataset defines the instance collection that a cakes tree indexes.
//
// A Dataset is immutable for the lifetime of every tree built over it. It
// exposes its instances by index and the metric that compares them. Queries
// are compared with the same metric, so they must share the instance type.
//
// Vectors is the in-memory implementation used by the library and the CLI.
// LoadCSV and LoadSQLite read float vectors from files and databases.
package dataset
