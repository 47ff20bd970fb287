package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := ConfigError("cass", "user", "primary key %q must be required or auto-assigned", "id")
	assert.Equal(t, `CONFIG: primary key "id" must be required or auto-assigned (datastore=cass, model=user)`, err.Error())

	err = ConfigError("cass", "", "no keyspace defined")
	assert.Equal(t, "CONFIG: no keyspace defined (datastore=cass)", err.Error())

	assert.Equal(t, `UNKNOWN_TABLE: table "pets" is not registered (model=pets)`, UnknownTable("pets").Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPredicateParse, KindOf(PredicateError("unsupported modifier: %s", "like")))
	assert.Equal(t, KindInvalidRowShape, KindOf(fmt.Errorf("create: %w", RowShapeError("empty row"))))
	assert.Equal(t, KindStorageEngine, KindOf(errors.New("connection refused")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("find: %w", UnknownTable("pets"))
	assert.True(t, IsKind(err, KindUnknownTable))
	assert.False(t, IsKind(err, KindConfig))
	assert.False(t, IsKind(nil, KindUnknownTable))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindInvalidRowShape, Message: "bad", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}
