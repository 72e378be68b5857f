// Package fetch pulls the full species dataset from the upstream REST
// source and converts it into archive-ready records.
//
// The pipeline lists the canonical species index first, then fetches
// per-species detail with a bounded worker pool, a shared rate limiter and
// per-request retry with backoff. Individual species that still fail after
// retries are skipped and counted; a handful of missing records never
// aborts a sync. The archive store and builder have no dependency on this
// package, so the application runs fully offline once an archive exists.
package fetch
