package naver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const commentFixture = `jQuery({
	"success": true,
	"result": {
		"commentList": [
			{"userName":"ant1","contents":"가즈아","regTime":"2025-11-15T10:00:00+09:00","sympathyCount":5,"antipathyCount":1},
			{"userName":"ant2","contents":"존버","regTime":"2025-11-15T11:30:00+09:00","sympathyCount":0,"antipathyCount":0}
		]
	}
});`

func TestParseCommentJSONP(t *testing.T) {
	comments, err := parseCommentJSONP(commentFixture, seoul)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	first := comments[0]
	require.Equal(t, 1, first.Index)
	require.Equal(t, "ant1", first.Author)
	require.Equal(t, "가즈아", first.Text)
	require.Equal(t, "2025-11-15 10:00:00", first.Date)
	require.Equal(t, 5, first.Likes)
	require.Equal(t, 1, first.Dislikes)

	require.Equal(t, 2, comments[1].Index)
}

func TestParseCommentJSONPNotSuccessful(t *testing.T) {
	comments, err := parseCommentJSONP(`cb({"success":false,"result":{}});`, seoul)
	require.NoError(t, err)
	require.Empty(t, comments)
}

func TestParseCommentJSONPBadPayload(t *testing.T) {
	_, err := parseCommentJSONP(`jQuery(not json);`, seoul)
	require.Error(t, err)
}

func TestParseCommentJSONPKeepsRawDateOnParseFailure(t *testing.T) {
	comments, err := parseCommentJSONP(
		`cb({"success":true,"result":{"commentList":[{"userName":"x","contents":"y","regTime":"??"}]}});`,
		seoul)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "??", comments[0].Date)
}
