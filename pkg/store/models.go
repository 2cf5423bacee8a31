package store

import (
	"time"

	"twhydrate/pkg/record"
)

// User is the persisted form of a hydrated account
type User struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement:false"`
	IDStr               string `gorm:"size:20"`
	Name                string
	ScreenName          string `gorm:"index:idx_screen_name"`
	Location            string
	FollowersCount      int64
	FriendsCount        int64
	FavouritesCount     int64
	Description         string
	GeoEnabled          bool
	Lang                string
	StatusesCount       int64
	TimeZone            string
	AccountCreatedAt    string
	// AccountCreated is AccountCreatedAt parsed, nil when unparseable
	AccountCreated      *time.Time `gorm:"index:idx_account_created"`
	Verified            bool
	UTCOffset           *int64
	ContributorsEnabled bool
	ListedCount         int64
	Protected           bool
	URL                 string
	HydratedAt          time.Time `gorm:"autoUpdateTime"`
}

// FollowerEdge is one (root, follower) pair in page order
type FollowerEdge struct {
	ID         uint  `gorm:"primaryKey"`
	RootID     int64 `gorm:"index:idx_root_position,priority:1"`
	Position   int   `gorm:"index:idx_root_position,priority:2"`
	FollowerID int64 `gorm:"index:idx_follower"`
	PulledAt   time.Time
}

func userFromRecord(r record.UserRecord) User {
	u := User{
		ID:                  r.ID,
		IDStr:               r.IDStr,
		Name:                r.Name,
		ScreenName:          r.ScreenName,
		Location:            r.Location,
		FollowersCount:      r.FollowersCount,
		FriendsCount:        r.FriendsCount,
		FavouritesCount:     r.FavouritesCount,
		Description:         r.Description,
		GeoEnabled:          r.GeoEnabled,
		Lang:                r.Lang,
		StatusesCount:       r.StatusesCount,
		TimeZone:            r.TimeZone,
		AccountCreatedAt:    r.CreatedAt,
		Verified:            r.Verified,
		UTCOffset:           r.UTCOffset,
		ContributorsEnabled: r.ContributorsEnabled,
		ListedCount:         r.ListedCount,
		Protected:           r.Protected,
		URL:                 r.URL,
	}
	if created, err := r.CreatedTime(); err == nil {
		created = created.UTC()
		u.AccountCreated = &created
	}
	return u
}

// Record converts u back to a UserRecord
func (u User) Record() record.UserRecord {
	return record.UserRecord{
		ID:                  u.ID,
		IDStr:               u.IDStr,
		Name:                u.Name,
		ScreenName:          u.ScreenName,
		Location:            u.Location,
		FollowersCount:      u.FollowersCount,
		FriendsCount:        u.FriendsCount,
		FavouritesCount:     u.FavouritesCount,
		Description:         u.Description,
		GeoEnabled:          u.GeoEnabled,
		Lang:                u.Lang,
		StatusesCount:       u.StatusesCount,
		TimeZone:            u.TimeZone,
		CreatedAt:           u.AccountCreatedAt,
		Verified:            u.Verified,
		UTCOffset:           u.UTCOffset,
		ContributorsEnabled: u.ContributorsEnabled,
		ListedCount:         u.ListedCount,
		Protected:           u.Protected,
		URL:                 u.URL,
	}
}
