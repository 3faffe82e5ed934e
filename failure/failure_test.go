package failure

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := NotFoundf("GET /pool", "pool %s was not found", "/Common/p1")
	wrapped := errors.Wrap(err, "pool exists")
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Transport))
	assert.Equal(t, "pool exists: GET /pool: pool /Common/p1 was not found", wrapped.Error())
}

func TestKindOfPlain(t *testing.T) {
	assert.Equal(t, Other, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Other))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(Command, nil, "ggsci"))
}

func TestClassify(t *testing.T) {
	p, err := Classify(nil)
	assert.NoError(t, err)
	assert.Equal(t, Found, p)

	p, err = Classify(NotFoundf("", "gone"))
	assert.NoError(t, err)
	assert.Equal(t, NotPresent, p)

	genuine := Transportf("POST", "connection refused")
	p, err = Classify(genuine)
	assert.Equal(t, Unknown, p)
	assert.Equal(t, genuine, err)
}

func TestCause(t *testing.T) {
	root := errors.New("exit status 1")
	err := Wrap(Command, root, "runmqsc")
	assert.Equal(t, root, errors.Cause(err))
	assert.Equal(t, "runmqsc: exit status 1", err.Error())
}
