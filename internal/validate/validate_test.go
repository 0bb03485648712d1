package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldErrors_OrNil(t *testing.T) {
	fields := FieldErrors{}
	require.NoError(t, fields.OrNil())

	fields.Add("name", "required")
	err := fields.OrNil()
	require.Error(t, err)

	var got FieldErrors
	require.True(t, errors.As(err, &got))
	require.Equal(t, "required", got["name"])
}

func TestFieldErrors_AddKeepsFirstMessage(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("dob", "must be YYYY-MM-DD")
	fields.Add("dob", "some later problem")
	require.Equal(t, "must be YYYY-MM-DD", fields["dob"])
}

func TestFieldErrors_ErrorIsStable(t *testing.T) {
	fields := FieldErrors{"b": "two", "a": "one"}
	require.Equal(t, "validation failed: a: one; b: two", fields.Error())
}
