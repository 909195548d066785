// Package httpapi exposes the ask, ingest, metrics, health and documents
// endpoints over HTTP using echo. Every route is also mounted under /api.
package httpapi
