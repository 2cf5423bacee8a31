package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the base URL of the v1.1 REST API
	DefaultBaseURL = "https://api.twitter.com"

	// UsersLookupEndpoint resolves up to 100 users per call
	UsersLookupEndpoint = "/1.1/users/lookup.json"

	// FollowerIDsEndpoint pages the IDs of the accounts following a user
	FollowerIDsEndpoint = "/1.1/followers/ids.json"

	// VerifyCredentialsEndpoint returns the authenticating user
	VerifyCredentialsEndpoint = "/1.1/account/verify_credentials.json"

	// MaxLookupBatch is the largest number of users one lookup accepts
	MaxLookupBatch = 100

	// MaxFollowerPageSize is the largest page followers/ids returns
	MaxFollowerPageSize = 5000

	// FirstCursor starts a cursored listing
	FirstCursor int64 = -1
)

// LookupByIDsParams builds the query for a users/lookup call by user ID
func LookupByIDsParams(ids []int64) url.Values {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("user_id", strings.Join(parts, ","))
	params.Set("include_entities", "false")
	return params
}

// LookupByHandlesParams builds the query for a users/lookup call by screen name
func LookupByHandlesParams(handles []string) url.Values {
	params := url.Values{}
	params.Set("screen_name", strings.Join(handles, ","))
	params.Set("include_entities", "false")
	return params
}

// FollowerIDsParams builds the query for one page of followers/ids
func FollowerIDsParams(root, cursor int64, count int) url.Values {
	if count <= 0 || count > MaxFollowerPageSize {
		count = MaxFollowerPageSize
	}
	params := url.Values{}
	params.Set("user_id", strconv.FormatInt(root, 10))
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("count", strconv.Itoa(count))
	params.Set("stringify_ids", "false")
	return params
}

// BuildURL joins the base URL, endpoint and query
func BuildURL(baseURL, endpoint string, params url.Values) string {
	u := strings.TrimRight(baseURL, "/") + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
