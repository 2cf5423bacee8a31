package record

import (
	"encoding/json"
	"strconv"
)

// Fixture returns a complete raw user object shaped like a decoded API
// response. It is used by tests across packages.
func Fixture(id int64, screenName string) Raw {
	return Raw{
		"id":                   json.Number(strconv.FormatInt(id, 10)),
		"id_str":               strconv.FormatInt(id, 10),
		"name":                 "User " + screenName,
		"screen_name":          screenName,
		"location":             "",
		"followers_count":      json.Number("10"),
		"friends_count":        json.Number("20"),
		"favourites_count":     json.Number("30"),
		"description":          "",
		"geo_enabled":          false,
		"lang":                 nil,
		"statuses_count":       json.Number("40"),
		"time_zone":            nil,
		"created_at":           "Wed Oct 10 20:19:24 +0000 2018",
		"verified":             false,
		"utc_offset":           nil,
		"contributors_enabled": false,
		"listed_count":         json.Number("5"),
		"protected":            false,
		"url":                  nil,
	}
}
