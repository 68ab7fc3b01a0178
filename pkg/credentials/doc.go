// Package credentials loads the secrets a sync run needs.
//
// Secrets are looked up by name across an ordered list of stores: the
// environment first, then the system keyring. Each secret is taken from the
// first store that has it, so stores may supply different secrets.
package credentials
