/*
Package lock implements the read/write leases that guard the runtime graph of
a process instance.

Both leases live in a ports.LeaseStore under WRITE#<id> and READ#<id>. A
writer requires both keys to be absent; a reader only requires the write key
to be absent and shares the read key with other readers, refreshing its TTL
when it already exists. Acquisition never waits: a conflict fails at once
with a *domain.LockUnavailableError.

Leases expire after the configured TTL (15 seconds by default) so a crashed
holder cannot block an instance forever. Only the party that created a lease
releases it.
*/
package lock
