package content_test

import (
	"strings"
	"testing"

	"github.com/driftwood-cms/driftwood/content"
	"github.com/driftwood-cms/driftwood/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndVerifyPassword(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	alice := content.NewUser(env.admin, d, "alice")
	require.NoError(t, alice.SetPassword("secret"))
	require.NoError(t, alice.Save(env.root))

	reloaded, err := env.admin.User(d, "alice")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.VerifyPassword("secret"))
	assert.False(t, reloaded.VerifyPassword("wrong"))
}

func TestDisabledUserNeverVerifies(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	alice := content.NewUser(env.admin, d, "alice")
	require.NoError(t, alice.SetPassword("secret"))
	alice.SetEnabled(false)
	require.NoError(t, alice.Save(env.root))

	reloaded, err := env.admin.User(d, "alice")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.False(t, reloaded.VerifyPassword("secret"))
}

func TestLegacyPasswordCompat(t *testing.T) {
	env := newTestEnv(t)
	env.createDomain(t, "ROOT")

	// the legacy hash is deterministic
	assert.Equal(t,
		content.LegacyPasswordHash("alice", "secret"),
		content.LegacyPasswordHash("alice", "secret"))
	assert.NotEqual(t,
		content.LegacyPasswordHash("alice", "secret"),
		content.LegacyPasswordHash("bob", "secret"))

	// an account hashed by an old installation keeps verifying
	require.NoError(t, env.store.Users.Insert(&data.UserRow{
		Domain:   "ROOT",
		Name:     "legacy",
		Password: content.LegacyPasswordHash("legacy", "oldpass"),
		Enabled:  true,
	}))

	user, err := env.admin.UserByName("ROOT", "legacy")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.VerifyPassword("oldpass"))
	assert.False(t, user.VerifyPassword("newpass"))

	// changing the password moves the account to the current hash
	require.NoError(t, user.SetPassword("newpass"))
	require.NoError(t, user.Save(env.root))
	reloaded, err := env.admin.UserByName("ROOT", "legacy")
	require.NoError(t, err)
	assert.True(t, reloaded.VerifyPassword("newpass"))
	assert.False(t, reloaded.VerifyPassword("oldpass"))
}

func TestGeneratePassword(t *testing.T) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRTUVWXYZ"
	const charset = letters + "2346789#%=+"

	for i := 0; i < 20; i++ {
		password, err := content.GeneratePassword()
		require.NoError(t, err)
		require.Len(t, password, 8)
		assert.True(t, strings.ContainsRune(letters, rune(password[0])), "first char must be a letter")
		for _, r := range password {
			assert.True(t, strings.ContainsRune(charset, r), "unexpected character %q", r)
		}
	}
}

func TestSuperuserFallbackLookup(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	super := content.NewUser(env.admin, nil, "admin")
	require.NoError(t, super.Save(env.root))

	// a domain lookup falls back to the superusers
	found, err := env.admin.User(d, "admin")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsSuperuser())
}

func TestGroupMembership(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	editors := content.NewGroup(env.admin, d, "editors")
	require.NoError(t, editors.Save(env.root))

	alice := content.NewUser(env.admin, d, "alice")
	alice.AddToGroup(editors)
	require.NoError(t, alice.Save(env.root))

	groups, err := alice.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"editors"}, groups)

	members, err := editors.Members(10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members)

	count, err := editors.MemberCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	alice.RemoveFromGroup(editors)
	require.NoError(t, alice.Save(env.root))

	groups, err = alice.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)
}
