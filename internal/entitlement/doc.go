// Package entitlement decides which metered actions a user may take and
// records usage once an action has gone through.
//
// Three collaborators make up the engine:
//
//   - SettingsStore loads the admin-editable limits and falls back to
//     DefaultSettings whenever the backing row cannot be read.
//   - Resolver turns a subscription plus settings into a Decision.
//   - Recorder increments a usage counter after the action succeeded.
//
// Checks are check-before-use: two concurrent requests can both pass a
// check while the counter sits one below the limit, and both will then
// increment it. Quotas are therefore enforced approximately.
package entitlement
