// Package registry lists the accounts to sync and where each one is written.
//
// AirtableSource reads an Airtable table (one record per account, with a
// username field and a spreadsheet URL field). StaticSource serves a fixed
// account list sharing one spreadsheet. Entries that cannot be resolved are
// returned with Err set rather than dropped, so they show up as skipped.
package registry
