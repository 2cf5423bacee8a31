// Package record turns raw API user objects into fixed-shape UserRecords.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Fields lists the keys every raw user object must carry
var Fields = []string{
	"id", "id_str", "name", "screen_name", "location",
	"followers_count", "friends_count", "favourites_count", "description", "geo_enabled",
	"lang", "statuses_count", "time_zone", "created_at", "verified",
	"utc_offset", "contributors_enabled", "listed_count", "protected", "url",
}

// UserRecord is the hydrated form of one account. Keys present in the raw
// object with a null value leave the zero value, except UTCOffset which is
// nil when unknown.
type UserRecord struct {
	ID                  int64  `json:"id"`
	IDStr               string `json:"id_str"`
	Name                string `json:"name"`
	ScreenName          string `json:"screen_name"`
	Location            string `json:"location"`
	FollowersCount      int64  `json:"followers_count"`
	FriendsCount        int64  `json:"friends_count"`
	FavouritesCount     int64  `json:"favourites_count"`
	Description         string `json:"description"`
	GeoEnabled          bool   `json:"geo_enabled"`
	Lang                string `json:"lang"`
	StatusesCount       int64  `json:"statuses_count"`
	TimeZone            string `json:"time_zone"`
	CreatedAt           string `json:"created_at"`
	Verified            bool   `json:"verified"`
	UTCOffset           *int64 `json:"utc_offset"`
	ContributorsEnabled bool   `json:"contributors_enabled"`
	ListedCount         int64  `json:"listed_count"`
	Protected           bool   `json:"protected"`
	URL                 string `json:"url"`
}

// CreatedTime parses CreatedAt, which the API formats like
// "Wed Oct 10 20:19:24 +0000 2018"
func (u UserRecord) CreatedTime() (time.Time, error) {
	return time.Parse(time.RubyDate, u.CreatedAt)
}

// MissingFieldError reports a required key absent from a raw object
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// InvalidFieldError reports a key whose value has the wrong type
type InvalidFieldError struct {
	Field string
	Value any
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %q has unexpected value %v (%T)", e.Field, e.Value, e.Value)
}

// IsBuildError reports whether err came from Build
func IsBuildError(err error) bool {
	var missing *MissingFieldError
	var invalid *InvalidFieldError
	return errors.As(err, &missing) || errors.As(err, &invalid)
}

type builder struct {
	raw Raw
	err error
}

func (b *builder) value(field string) (any, bool) {
	if b.err != nil {
		return nil, false
	}
	v, ok := b.raw[field]
	if !ok {
		b.err = &MissingFieldError{Field: field}
		return nil, false
	}
	return v, v != nil
}

func (b *builder) str(field string) string {
	v, ok := b.value(field)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		b.err = &InvalidFieldError{Field: field, Value: v}
	}
	return s
}

func (b *builder) boolean(field string) bool {
	v, ok := b.value(field)
	if !ok {
		return false
	}
	flag, isBool := v.(bool)
	if !isBool {
		b.err = &InvalidFieldError{Field: field, Value: v}
	}
	return flag
}

func (b *builder) integer(field string) int64 {
	v, ok := b.value(field)
	if !ok {
		return 0
	}
	n, convErr := toInt64(v)
	if convErr != nil {
		b.err = &InvalidFieldError{Field: field, Value: v}
	}
	return n
}

func (b *builder) optionalInteger(field string) *int64 {
	v, ok := b.value(field)
	if !ok {
		return nil
	}
	n, convErr := toInt64(v)
	if convErr != nil {
		b.err = &InvalidFieldError{Field: field, Value: v}
		return nil
	}
	return &n
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("not an exact integer: %v", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// Build projects raw onto a UserRecord. It fails with *MissingFieldError
// when a required key is absent and *InvalidFieldError when a value has
// the wrong type. Build never modifies raw.
func Build(raw Raw) (UserRecord, error) {
	if v, ok := raw["id"]; ok && v == nil {
		return UserRecord{}, &InvalidFieldError{Field: "id"}
	}

	b := &builder{raw: raw}
	rec := UserRecord{
		ID:                  b.integer("id"),
		IDStr:               b.str("id_str"),
		Name:                b.str("name"),
		ScreenName:          b.str("screen_name"),
		Location:            b.str("location"),
		FollowersCount:      b.integer("followers_count"),
		FriendsCount:        b.integer("friends_count"),
		FavouritesCount:     b.integer("favourites_count"),
		Description:         b.str("description"),
		GeoEnabled:          b.boolean("geo_enabled"),
		Lang:                b.str("lang"),
		StatusesCount:       b.integer("statuses_count"),
		TimeZone:            b.str("time_zone"),
		CreatedAt:           b.str("created_at"),
		Verified:            b.boolean("verified"),
		UTCOffset:           b.optionalInteger("utc_offset"),
		ContributorsEnabled: b.boolean("contributors_enabled"),
		ListedCount:         b.integer("listed_count"),
		Protected:           b.boolean("protected"),
		URL:                 b.str("url"),
	}
	if b.err != nil {
		return UserRecord{}, b.err
	}
	return rec, nil
}
