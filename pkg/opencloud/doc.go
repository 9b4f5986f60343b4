// Package opencloud provides lightweight clients for the two Roblox Open
// Cloud surfaces this service consumes: the standard Data Store entry
// resource (GET and conditional PATCH with etag preconditions, v2 REST
// layout) and the usernames lookup batch endpoint. The public API centres on
// the DataStore and Users types; both accept a custom httpx client so tests
// and the sandbox binary can point them at local doubles.
package opencloud
