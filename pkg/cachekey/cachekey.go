// Package cachekey builds the query keys shared by the API, the invalidation
// push and the panel's query cache. A key is the request path plus its query,
// so invalidating a prefix drops every page and filter of that list.
package cachekey

import "net/url"

// Partners is the partner-list prefix for one program
func Partners(workspaceID, programID string) string {
	return "/api/partners?" + query(workspaceID, "programId", programID)
}

// Partner is the single-partner key
func Partner(workspaceID, programID, partnerID string) string {
	return "/api/partners/" + url.PathEscape(partnerID) + "?" + query(workspaceID, "programId", programID)
}

func Application(workspaceID, programID, applicationID string) string {
	return "/api/programs/" + url.PathEscape(programID) + "/applications/" + url.PathEscape(applicationID) +
		"?workspaceId=" + url.QueryEscape(workspaceID)
}

func Payouts(workspaceID, programID, partnerID string) string {
	return "/api/programs/" + url.PathEscape(programID) + "/payouts?" + query(workspaceID, "partnerId", partnerID)
}

func Links(workspaceID, programID, partnerID string) string {
	return "/api/programs/" + url.PathEscape(programID) + "/links?" + query(workspaceID, "partnerId", partnerID)
}

// query keeps workspaceId first so prefixes stay stable
func query(workspaceID, key, value string) string {
	return "workspaceId=" + url.QueryEscape(workspaceID) + "&" + key + "=" + url.QueryEscape(value)
}
