// Package gharchive handles fetching and reading GH Archive hourly gzip files
//
// Design choices:
// - Stream with bufio.Scanner but with a 32MB cap to reliably handle huge commits.
// - Malformed lines are skipped and counted, one bad record never kills an hour
// - Keep payload as raw JSON, the pipeline never decodes event payloads
// - HTTP fetches retry transient failures with fibonacci backoff, 404 is terminal
// - Optional on disk cache with conditional GET revalidation for recent hours
package gharchive
