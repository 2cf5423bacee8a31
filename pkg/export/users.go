package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"twhydrate/pkg/record"
)

// UserColumns is the header of the user TSV
var UserColumns = []string{
	"screen_name", "name", "id", "location", "followers_count", "friends_count", "description",
}

// UserRow returns the sanitized TSV fields of u in UserColumns order
func UserRow(u record.UserRecord) []string {
	return []string{
		Sanitize(u.ScreenName),
		Sanitize(u.Name),
		strconv.FormatInt(u.ID, 10),
		Sanitize(u.Location),
		strconv.FormatInt(u.FollowersCount, 10),
		strconv.FormatInt(u.FriendsCount, 10),
		Sanitize(u.Description),
	}
}

// WriteUsers writes the header and one row per user, ordered by ID
func WriteUsers(w io.Writer, users map[int64]record.UserRecord) error {
	if _, err := fmt.Fprintln(w, strings.Join(UserColumns, "\t")); err != nil {
		return err
	}

	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if _, err := fmt.Fprintln(w, strings.Join(UserRow(users[id]), "\t")); err != nil {
			return err
		}
	}
	return nil
}
