// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, repositories
// (defined in internal/store), and the background task machinery to fulfill
// application features.
//
// Services receive their dependencies through constructor injection and
// translate lower-level errors (store, broker) into application-level
// sentinel errors the API layer can map to HTTP status codes.
package service
