// Package votingcore implements ballot casting, one-time voter codes and the
// election clock.
//
// Layering:
// - domain: election state, eligibility and ballot policy, sentinel errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence, tokens, notifications and metrics
// - adapters: concrete HTTP, memory, gorm, security and event publisher implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Domain and application never import adapters or internal/platform.
// - A ballot is written in one unit of work serialized on the voter; the
//   election clock is the only writer of Election.IsActive.
package votingcore
