// Package catalog defines the service catalog data model: service entries,
// their declared configuration documents, dependency declarations, and
// lifecycle status. Everything here is plain data; the registry owns all
// mutation and the graph package owns all topology.
package catalog
