package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {

	for _, input := range []string{"teacher", "Teacher", " TEACHER "} {
		role, err := ParseRole(input)
		require.NoError(t, err)
		assert.Equal(t, Teacher, role)
	}

	for _, input := range []string{"", "student", "root", "teachers"} {
		_, err := ParseRole(input)
		assert.Error(t, err, input)
	}
}

func TestRoleAllowed(t *testing.T) {

	assert.True(t, Teacher.Allowed(Teacher))
	assert.True(t, Teacher.Allowed(Teacher, Parent))
	assert.False(t, Teacher.Allowed(Parent))
	assert.False(t, Parent.Allowed(Teacher))
	assert.False(t, Parent.Allowed())

	// admin passes every gate
	assert.True(t, Admin.Allowed(Teacher))
	assert.True(t, Admin.Allowed(Parent))
	assert.True(t, Admin.Allowed())
}

func TestRoleHome(t *testing.T) {
	assert.Equal(t, "/teachers", Teacher.Home())
	assert.Equal(t, "/parents", Parent.Home())
	assert.Equal(t, "/admin", Admin.Home())
	assert.Equal(t, "/", Role("nobody").Home())
}
