package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupParams(t *testing.T) {
	ids := LookupByIDsParams([]int64{1, 22, 333})
	assert.Equal(t, "1,22,333", ids.Get("user_id"))
	assert.Equal(t, "false", ids.Get("include_entities"))

	handles := LookupByHandlesParams([]string{"jack", "biz"})
	assert.Equal(t, "jack,biz", handles.Get("screen_name"))
}

func TestFollowerIDsParams(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  string
	}{
		{"default page", 0, "5000"},
		{"custom page", 200, "200"},
		{"clamped page", 9000, "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FollowerIDsParams(12, FirstCursor, tt.count)
			assert.Equal(t, tt.want, p.Get("count"))
			assert.Equal(t, "-1", p.Get("cursor"))
			assert.Equal(t, "12", p.Get("user_id"))
		})
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://api.twitter.com/1.1/users/lookup.json?include_entities=false&user_id=1",
		BuildURL("https://api.twitter.com/", UsersLookupEndpoint, LookupByIDsParams([]int64{1})))
	assert.Equal(t, "http://127.0.0.1:8080/1.1/followers/ids.json",
		BuildURL("http://127.0.0.1:8080", FollowerIDsEndpoint, nil))
}
