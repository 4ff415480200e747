// Package channel provides the shared broadcast channel portrait events travel
// on. Every backend delivers each published frame to the other peers; some
// (redis, an echoing relay) also deliver it back to the publisher, which the
// portrait manager absorbs as a duplicate.
package channel
