// Package types defines the entity, property, link and query types shared by
// the facets engine, its stores and its CLI, together with the store
// interfaces the engine consumes and the standard errors it returns.
package types
