package messaging

import (
	"testing"

	"classline/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectKey(t *testing.T) {
	t.Run("SymmetricForAnyPair", func(t *testing.T) {
		assert.Equal(t, DirectKey("alice", "bob"), DirectKey("bob", "alice"))
		assert.Equal(t, "alice-bob", DirectKey("bob", "alice"))
	})

	t.Run("SelfConversation", func(t *testing.T) {
		assert.Equal(t, "me-me", DirectKey("me", "me"))
	})

	t.Run("UUIDPairsStaySymmetric", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			a, b := uuid.NewString(), uuid.NewString()
			assert.Equal(t, DirectKey(a, b), DirectKey(b, a))
		}
	})
}

func TestAudienceKeys(t *testing.T) {
	assert.Equal(t, "class-5a", ClassKey("5a"))
	assert.Equal(t, "course-music", CourseKey("music"))

	assert.Equal(t, "class-5a", Class("5a").Key("ignored"))
	assert.Equal(t, "course-music", Course("music").Key("ignored"))
	assert.Equal(t, DirectKey("x", "y"), Direct("y").Key("x"))
}

func TestParseKey(t *testing.T) {
	t.Run("ClassifiesEachKind", func(t *testing.T) {
		kind, subject, err := ParseKey("class-5a")
		require.NoError(t, err)
		assert.Equal(t, models.TypeClass, kind)
		assert.Equal(t, "5a", subject)

		kind, subject, err = ParseKey("course-music")
		require.NoError(t, err)
		assert.Equal(t, models.TypeCourse, kind)
		assert.Equal(t, "music", subject)

		a, b := uuid.NewString(), uuid.NewString()
		kind, subject, err = ParseKey(DirectKey(a, b))
		require.NoError(t, err)
		assert.Equal(t, models.TypeDirect, kind)
		assert.Equal(t, DirectKey(a, b), subject)
	})

	t.Run("UUIDDirectKeysNeverCollideWithAudiencePrefixes", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			kind, _, err := ParseKey(DirectKey(uuid.NewString(), uuid.NewString()))
			require.NoError(t, err)
			assert.Equal(t, models.TypeDirect, kind)
		}
	})

	t.Run("MalformedKey", func(t *testing.T) {
		_, _, err := ParseKey("nodash")
		assert.Error(t, err)
	})
}
